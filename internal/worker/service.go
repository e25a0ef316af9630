package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/queue"
	"github.com/loadbid-next/internal/service"

	"github.com/hibiken/asynq"
)

const (
	archiveCheckInterval = 5 * time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	serverCfg.Logger = newAsynqLogger()
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// ArchiveLoop 日终自动归档，不依赖队列
type ArchiveLoop struct {
	archive  archiveRunner
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewArchiveLoop 创建自动归档循环
func NewArchiveLoop(archive *service.ArchiveService) *ArchiveLoop {
	l := &ArchiveLoop{
		interval: archiveCheckInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if archive != nil {
		l.archive = archive
	}
	return l
}

// Name 服务名称
func (l *ArchiveLoop) Name() string {
	return "archive"
}

// Start 启动循环，阻塞到 ctx 结束或 Stop
func (l *ArchiveLoop) Start(ctx context.Context) error {
	if l == nil {
		return errors.New("archive loop not initialized")
	}
	defer close(l.done)
	if l.archive == nil {
		return errors.New("archive service is nil")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-l.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	trigger := &archiveTrigger{archive: l.archive, nowFn: time.Now}
	trigger.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			trigger.tick(ctx)
		}
	}
}

// Stop 停止循环并等待当前归档结束
func (l *ArchiveLoop) Stop(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.stopOnce.Do(func() { close(l.stop) })
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// archiveRunner 日终归档
type archiveRunner interface {
	ResolveWindow(day string) (service.ArchiveWindow, bool, error)
	Run(ctx context.Context, input service.ArchiveInput) (*service.ArchiveReport, error)
}

// archiveTrigger 到达截止时间后对昨天执行一次归档，失败时下个周期重试
type archiveTrigger struct {
	archive archiveRunner
	nowFn   func() time.Time
	lastDay string
}

func (t *archiveTrigger) tick(ctx context.Context) bool {
	window, _, err := t.archive.ResolveWindow("")
	if err != nil {
		logger.Warnw("worker_archive_resolve_failed", "error", err)
		return false
	}
	if window.Day == t.lastDay || t.nowFn().Before(window.To) {
		return false
	}
	report, err := t.archive.Run(ctx, service.ArchiveInput{Day: window.Day})
	if err != nil {
		archived := 0
		if report != nil {
			archived = report.Archived
		}
		logger.Warnw("worker_archive_failed", "day", window.Day, "archived", archived, "error", err)
		return false
	}
	t.lastDay = window.Day
	logger.Infow("worker_archive_completed", "day", window.Day, "archived", report.Archived, "chunks", report.Chunks)
	return true
}
