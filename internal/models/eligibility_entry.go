package models

import "time"

// EligibilityEntry 承运人投标资格名单，无记录即默认可投标
type EligibilityEntry struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	OperatingNumber string     `gorm:"type:varchar(32);index" json:"operating_number"` // MC 号
	DotNumber       string     `gorm:"type:varchar(32);index" json:"dot_number"`       // DOT 号
	IsActive        bool       `gorm:"not null" json:"is_active"`                      // false 表示禁止投标
	Reason          string     `gorm:"type:varchar(500)" json:"reason"`
	DisabledAt      *time.Time `json:"disabled_at"`
	EnabledAt       *time.Time `json:"enabled_at"`
	UpdatedBy       string     `gorm:"type:varchar(64)" json:"updated_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (EligibilityEntry) TableName() string {
	return "eligibility_entries"
}
