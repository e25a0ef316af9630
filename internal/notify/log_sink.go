package notify

import (
	"context"

	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/queue"
)

// LogSink 仅记录日志的投递通道，用于本地开发
type LogSink struct{}

// NewLogSink 创建日志通道
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Deliver 记录通知
func (s *LogSink) Deliver(ctx context.Context, payload queue.NotificationPayload) error {
	logger.FromContext(ctx).Infow("notification_delivered",
		"driver", "log",
		"job_id", payload.JobID,
		"kind", payload.Kind,
		"recipient_type", payload.RecipientType,
		"recipient", payload.Recipient,
		"auction_id", payload.AuctionID,
	)
	return nil
}

// Close 无需释放资源
func (s *LogSink) Close() error { return nil }
