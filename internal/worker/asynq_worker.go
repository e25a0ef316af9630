package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/provider"
	"github.com/loadbid-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationDispatch, c.handleNotificationDispatch)
}

func (c *Consumer) handleNotificationDispatch(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseNotificationPayload(task)
	if err != nil {
		logger.Warnw("worker_notification_unmarshal_failed", "error", err)
		// 载荷损坏重试也无法恢复
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if strings.TrimSpace(payload.Recipient) == "" || strings.TrimSpace(payload.Kind) == "" {
		logger.Debugw("worker_notification_skip_invalid_payload",
			"job_id", payload.JobID,
			"kind", payload.Kind,
			"auction_id", payload.AuctionID,
		)
		return nil
	}
	if c.NotificationRelay == nil {
		logger.Warnw("worker_notification_skip_relay_nil", "job_id", payload.JobID)
		return nil
	}
	if err := c.NotificationRelay.Dispatch(ctx, payload); err != nil {
		logger.Warnw("worker_notification_deliver_failed",
			"job_id", payload.JobID,
			"kind", payload.Kind,
			"recipient", payload.Recipient,
			"auction_id", payload.AuctionID,
			"error", err,
		)
		return err
	}
	return nil
}
