package models

import "time"

// 生命周期事件类型
const (
	EventReceived  = "received"
	EventBidPlaced = "bid_placed"
	EventExpired   = "expired"
	EventAwarded   = "awarded"
	EventArchived  = "archived"
)

// LifecycleEvent 竞价单审计日志（只追加）
type LifecycleEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AuctionID string    `gorm:"type:varchar(64);index;not null" json:"auction_id"`
	EventType string    `gorm:"type:varchar(32);index;not null" json:"event_type"`
	EventData JSON      `gorm:"type:json" json:"event_data"`
	DedupKey  *string   `gorm:"type:varchar(160);uniqueIndex" json:"-"` // 一次性事件去重键
	Timestamp time.Time `gorm:"column:occurred_at;not null;index" json:"timestamp"`
}

// TableName 指定表名
func (LifecycleEvent) TableName() string {
	return "auction_lifecycle_events"
}
