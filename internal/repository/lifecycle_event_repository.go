package repository

import (
	"strings"

	"github.com/loadbid-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LifecycleEventRepository 生命周期事件数据访问接口
type LifecycleEventRepository interface {
	Append(event *models.LifecycleEvent) (bool, error)
	AppendBatch(events []models.LifecycleEvent) (int64, error)
	ListByAuction(auctionID string) ([]models.LifecycleEvent, error)
	WithTx(tx *gorm.DB) *GormLifecycleEventRepository
}

// GormLifecycleEventRepository GORM 实现
type GormLifecycleEventRepository struct {
	db *gorm.DB
}

// NewLifecycleEventRepository 创建生命周期事件仓库
func NewLifecycleEventRepository(db *gorm.DB) *GormLifecycleEventRepository {
	return &GormLifecycleEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLifecycleEventRepository) WithTx(tx *gorm.DB) *GormLifecycleEventRepository {
	if tx == nil {
		return r
	}
	return &GormLifecycleEventRepository{db: tx}
}

func dedupOnConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}
}

// Append 追加事件，去重键已存在时跳过
func (r *GormLifecycleEventRepository) Append(event *models.LifecycleEvent) (bool, error) {
	result := r.db.Clauses(dedupOnConflict()).Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AppendBatch 批量追加事件
func (r *GormLifecycleEventRepository) AppendBatch(events []models.LifecycleEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(dedupOnConflict()).CreateInBatches(events, 200)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListByAuction 按时间顺序列出竞价单事件
func (r *GormLifecycleEventRepository) ListByAuction(auctionID string) ([]models.LifecycleEvent, error) {
	var events []models.LifecycleEvent
	if err := r.db.Where("auction_id = ?", strings.TrimSpace(auctionID)).
		Order("occurred_at asc").
		Order("id asc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
