// Package notify 将通知任务投递到外部消息通道。
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/constants"
	"github.com/loadbid-next/internal/queue"
)

// Sink 外部消息通道，只需确认接收
type Sink interface {
	Deliver(ctx context.Context, payload queue.NotificationPayload) error
	Close() error
}

// NewSink 根据配置创建投递通道
func NewSink(cfg config.NotificationConfig) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", constants.NotificationDriverLog:
		return NewLogSink(), nil
	case constants.NotificationDriverWebhook:
		return NewWebhookSink(cfg.Webhook)
	case constants.NotificationDriverAMQP:
		return NewAMQPSink(cfg.AMQP)
	default:
		return nil, fmt.Errorf("unsupported notification driver: %s", cfg.Driver)
	}
}
