package models

import "time"

// Offer 出价记录（只追加）
type Offer struct {
	ID               uint      `gorm:"primarykey" json:"-"`                                   // 自增主键，兼作写入顺序
	OfferID          string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"offer_id"` // 出价编号
	AuctionID        string    `gorm:"type:varchar(64);index;not null" json:"auction_id"`     // 竞价单号
	BidderID         string    `gorm:"type:varchar(64);index;not null" json:"bidder_id"`      // 投标人
	OperatingNumber  string    `gorm:"type:varchar(32);index" json:"operating_number,omitempty"`
	DotNumber        string    `gorm:"type:varchar(32)" json:"dot_number,omitempty"`
	AmountMinorUnits int64     `gorm:"not null" json:"amount_minor_units"` // 报价（最小货币单位）
	Notes            string    `gorm:"type:text" json:"notes,omitempty"`   // 备注
	SubmittedAt      time.Time `gorm:"not null;index" json:"submitted_at"` // 提交时间
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}
