package service

import (
	"context"
	"fmt"
	"time"

	"github.com/loadbid-next/internal/logger"
	"github.com/loadbid-next/internal/models"
	"github.com/loadbid-next/internal/repository"
)

// LifecycleRecorder 写入竞价单审计事件
type LifecycleRecorder struct {
	repo  repository.LifecycleEventRepository
	nowFn func() time.Time
}

// NewLifecycleRecorder 创建事件记录器
func NewLifecycleRecorder(repo repository.LifecycleEventRepository) *LifecycleRecorder {
	return &LifecycleRecorder{repo: repo, nowFn: time.Now}
}

// lifecycleDedupKey 一次性事件的去重键，bid_placed 按出价编号去重
func lifecycleDedupKey(auctionID, eventType, ref string) *string {
	var key string
	switch eventType {
	case models.EventBidPlaced:
		if ref == "" {
			return nil
		}
		key = fmt.Sprintf("%s:%s:%s", auctionID, eventType, ref)
	default:
		key = fmt.Sprintf("%s:%s", auctionID, eventType)
	}
	return &key
}

// Record 记录事件，失败只记日志；返回是否新写入
func (r *LifecycleRecorder) Record(ctx context.Context, auctionID, eventType, ref string, data models.JSON) bool {
	if r == nil || r.repo == nil {
		return false
	}
	event := &models.LifecycleEvent{
		AuctionID: auctionID,
		EventType: eventType,
		EventData: data,
		DedupKey:  lifecycleDedupKey(auctionID, eventType, ref),
		Timestamp: r.nowFn().UTC(),
	}
	inserted, err := r.repo.Append(event)
	if err != nil {
		logger.FromContext(ctx).Warnw("lifecycle_event_record_failed",
			"auction_id", auctionID,
			"event_type", eventType,
			"error", err,
		)
		return false
	}
	return inserted
}

// RecordArchived 批量记录归档事件
func (r *LifecycleRecorder) RecordArchived(ctx context.Context, refs []repository.ArchivedRef, day string, archivedAt time.Time) {
	if r == nil || r.repo == nil || len(refs) == 0 {
		return
	}
	now := r.nowFn().UTC()
	events := make([]models.LifecycleEvent, 0, len(refs))
	for _, ref := range refs {
		events = append(events, models.LifecycleEvent{
			AuctionID: ref.AuctionID,
			EventType: models.EventArchived,
			EventData: models.JSON{"day": day, "archived_at": archivedAt.UTC().Format(time.RFC3339)},
			DedupKey:  lifecycleDedupKey(ref.AuctionID, models.EventArchived, ""),
			Timestamp: now,
		})
	}
	if _, err := r.repo.AppendBatch(events); err != nil {
		logger.FromContext(ctx).Warnw("lifecycle_archived_events_failed", "day", day, "count", len(events), "error", err)
	}
}

// History 竞价单事件历史
func (r *LifecycleRecorder) History(auctionID string) ([]models.LifecycleEvent, error) {
	events, err := r.repo.ListByAuction(auctionID)
	if err != nil {
		return nil, dependencyError("list lifecycle events", err)
	}
	return events, nil
}
