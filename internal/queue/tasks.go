package queue

import (
	"encoding/json"

	"github.com/loadbid-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationDispatch 通知投递任务
	TaskNotificationDispatch = constants.TaskNotificationDispatch
)

// NotificationPayload 通知任务载荷，对下游不透明
type NotificationPayload struct {
	JobID         string                 `json:"job_id"`
	Kind          string                 `json:"kind"`
	RecipientType string                 `json:"recipient_type"`
	Recipient     string                 `json:"recipient"`
	AuctionID     string                 `json:"auction_id"`
	Context       map[string]interface{} `json:"context,omitempty"`
	OccurredAt    int64                  `json:"occurred_at"` // unix 秒
}

// NewNotificationTask 创建通知投递任务
func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, body), nil
}

// ParseNotificationPayload 解析通知任务载荷
func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
