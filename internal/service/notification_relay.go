package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/loadbid-next/internal/constants"
	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/notify"
	"github.com/loadbid-next/internal/queue"

	"github.com/google/uuid"
)

const directDeliveryTimeout = 10 * time.Second

// NotificationJob 通知任务
type NotificationJob = queue.NotificationPayload

// notificationQueue 通知任务队列
type notificationQueue interface {
	Enabled() bool
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error
}

// NotificationRelay 把生命周期结果转换为通知任务，尽力投递，失败只记日志
type NotificationRelay struct {
	queue           notificationQueue
	sink            notify.Sink
	adminRecipients []string
	inflight        sync.WaitGroup
	nowFn           func() time.Time
}

// NewNotificationRelay 创建通知中继；队列未启用时直接在后台投递到 sink
func NewNotificationRelay(queueClient notificationQueue, sink notify.Sink, adminRecipients []string) *NotificationRelay {
	admins := make([]string, 0, len(adminRecipients))
	for _, r := range adminRecipients {
		if r = strings.TrimSpace(r); r != "" {
			admins = append(admins, r)
		}
	}
	return &NotificationRelay{
		queue:           queueClient,
		sink:            sink,
		adminRecipients: admins,
		nowFn:           time.Now,
	}
}

// AdminRecipients 管理员通知接收方
func (r *NotificationRelay) AdminRecipients() []string {
	if r == nil {
		return nil
	}
	return r.adminRecipients
}

// Enqueue 提交通知任务，不返回错误
func (r *NotificationRelay) Enqueue(ctx context.Context, jobs ...NotificationJob) {
	if r == nil {
		return
	}
	log := logger.FromContext(ctx)
	for _, job := range jobs {
		if strings.TrimSpace(job.Recipient) == "" {
			continue
		}
		if job.JobID == "" {
			job.JobID = uuid.NewString()
		}
		if job.OccurredAt == 0 {
			job.OccurredAt = r.nowFn().UTC().Unix()
		}
		if r.queue != nil && r.queue.Enabled() {
			if err := r.queue.EnqueueNotification(ctx, job); err != nil {
				log.Warnw("notification_enqueue_failed",
					"job_id", job.JobID,
					"kind", job.Kind,
					"recipient", job.Recipient,
					"auction_id", job.AuctionID,
					"error", err,
				)
			}
			continue
		}
		if r.sink == nil {
			log.Debugw("notification_dropped_no_sink", "kind", job.Kind, "auction_id", job.AuctionID)
			continue
		}
		r.deliverInBackground(ctx, job)
	}
}

func (r *NotificationRelay) deliverInBackground(ctx context.Context, job NotificationJob) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), directDeliveryTimeout)
		defer cancel()
		if err := r.sink.Deliver(deliverCtx, job); err != nil {
			logger.FromContext(ctx).Warnw("notification_direct_delivery_failed",
				"job_id", job.JobID,
				"kind", job.Kind,
				"recipient", job.Recipient,
				"error", err,
			)
		}
	}()
}

// Dispatch 消费端投递，返回错误以便队列重试
func (r *NotificationRelay) Dispatch(ctx context.Context, payload queue.NotificationPayload) error {
	if r == nil || r.sink == nil {
		return nil
	}
	return r.sink.Deliver(ctx, payload)
}

// Wait 等待后台投递完成
func (r *NotificationRelay) Wait() {
	if r == nil {
		return
	}
	r.inflight.Wait()
}

func bidderJob(kind, bidderID, auctionID string, data map[string]interface{}) NotificationJob {
	return NotificationJob{
		Kind:          kind,
		RecipientType: constants.RecipientBidder,
		Recipient:     bidderID,
		AuctionID:     auctionID,
		Context:       data,
	}
}

func (r *NotificationRelay) adminJobs(kind, auctionID string, data map[string]interface{}) []NotificationJob {
	if r == nil {
		return nil
	}
	jobs := make([]NotificationJob, 0, len(r.adminRecipients))
	for _, admin := range r.adminRecipients {
		jobs = append(jobs, NotificationJob{
			Kind:          kind,
			RecipientType: constants.RecipientAdmin,
			Recipient:     admin,
			AuctionID:     auctionID,
			Context:       data,
		})
	}
	return jobs
}
