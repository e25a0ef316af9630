package models

import "time"

// Auction 竞价单（每个货运单一条）
type Auction struct {
	ID            uint        `gorm:"primarykey" json:"id"`                                    // 主键
	AuctionID     string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"auction_id"` // 外部竞价单号
	Distance      float64     `gorm:"not null;default:0" json:"distance"`                      // 里程
	RouteStops    StringArray `gorm:"type:json" json:"route_stops"`                            // 途经站点（有序）
	Tag           string      `gorm:"type:varchar(32);index" json:"tag"`                       // 分类标签（如始发区域）
	SourceChannel string      `gorm:"type:varchar(64)" json:"source_channel,omitempty"`        // 接入渠道
	PickupAt      *time.Time  `json:"pickup_at,omitempty"`                                     // 提货时间
	DeliveryAt    *time.Time  `json:"delivery_at,omitempty"`                                   // 送达时间
	Published     bool        `gorm:"not null;default:false;index" json:"published"`           // 是否对外展示
	ReceivedAt    time.Time   `gorm:"not null;index" json:"received_at"`                       // 接收时间，竞价窗口起点
	ArchivedAt    *time.Time  `gorm:"index" json:"archived_at"`                                // 归档时间，只写一次
	IsArchived    bool        `gorm:"not null;default:false;index" json:"is_archived"`         // 是否已归档
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt     time.Time   `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (Auction) TableName() string {
	return "auctions"
}
