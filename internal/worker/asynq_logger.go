package worker

import (
	"github.com/loadbid-next/internal/logger"

	"go.uber.org/zap"
)

// asynqLogger 把 asynq 内部日志转到 zap
type asynqLogger struct {
	sugar *zap.SugaredLogger
}

func newAsynqLogger() *asynqLogger {
	return &asynqLogger{sugar: logger.SW("component", "asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.sugar.Debug(args...) }
func (l *asynqLogger) Info(args ...interface{})  { l.sugar.Info(args...) }
func (l *asynqLogger) Warn(args ...interface{})  { l.sugar.Warn(args...) }
func (l *asynqLogger) Error(args ...interface{}) { l.sugar.Error(args...) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.sugar.Fatal(args...) }
