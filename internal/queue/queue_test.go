package queue

import (
	"context"
	"testing"

	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/constants"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueueNotification(context.Background(), NotificationPayload{Kind: constants.NotificationAuctionWon}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestNotificationTaskRoundTrip(t *testing.T) {
	task, err := NewNotificationTask(NotificationPayload{
		JobID:     "job-1",
		Kind:      constants.NotificationAuctionLost,
		Recipient: "carrier-9",
		AuctionID: "LB-1",
		Context:   map[string]interface{}{"winning_amount": "1500.00"},
	})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskNotificationDispatch {
		t.Fatalf("unexpected task type %s", task.Type())
	}
	payload, err := ParseNotificationPayload(task)
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.Recipient != "carrier-9" || payload.Context["winning_amount"] != "1500.00" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestQueueForKind(t *testing.T) {
	if got := queueForKind(constants.NotificationAuctionWon); got != CriticalQueue {
		t.Fatalf("won notifications should use critical queue, got %s", got)
	}
	if got := queueForKind(constants.NotificationOfferAccepted); got != DefaultQueue {
		t.Fatalf("offer notifications should use default queue, got %s", got)
	}
}
