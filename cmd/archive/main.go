package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/provider"
	"github.com/loadbid-next/internal/service"
)

// 手动执行日终归档，-day 为空时归档昨天
func main() {
	var day, actor string
	var timeout time.Duration
	flag.StringVar(&day, "day", "", "归档日期 YYYY-MM-DD，默认昨天")
	flag.StringVar(&actor, "actor", "cli", "操作人")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "最长执行时间")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	container, err := provider.NewContainerWithDB(cfg, models.DB)
	if err != nil {
		stdLog.Fatalf("容器初始化失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	report, runErr := container.ArchiveService.Run(ctx, service.ArchiveInput{Day: day, Actor: actor})
	cancel()
	stop()
	container.Close()

	if report != nil {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(report)
	}
	if runErr != nil {
		logger.Errorw("archive_cli_failed", "day", day, "error", runErr)
		os.Exit(1)
	}
}
