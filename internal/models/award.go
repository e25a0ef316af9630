package models

import "time"

// Award 中标记录，每个竞价单至多一条，创建后不可变
type Award struct {
	ID                      uint      `gorm:"primarykey" json:"id"`
	AuctionID               string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"auction_id"`
	OfferID                 string    `gorm:"type:varchar(64);not null" json:"offer_id"`
	WinnerID                string    `gorm:"type:varchar(64);index;not null" json:"winner_id"`
	WinningAmountMinorUnits int64     `gorm:"not null" json:"winning_amount_minor_units"`
	AwardedAt               time.Time `gorm:"not null;index" json:"awarded_at"`
	AdjudicatorNotes        string    `gorm:"type:text" json:"adjudicator_notes,omitempty"` // 人工指定时的说明
	AwardedBy               string    `gorm:"type:varchar(64)" json:"awarded_by"`           // system 或管理员
	Manual                  bool      `gorm:"not null;default:false" json:"manual"`         // 是否人工裁决
	Fingerprint             string    `gorm:"type:varchar(64)" json:"fingerprint"`          // 审计指纹 sha256
}

// TableName 指定表名
func (Award) TableName() string {
	return "awards"
}
