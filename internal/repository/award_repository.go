package repository

import (
	"errors"
	"strings"

	"github.com/loadbid-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AwardRepository 中标记录数据访问接口
type AwardRepository interface {
	CreateIfAbsent(award *models.Award) (bool, error)
	GetByAuctionID(auctionID string) (*models.Award, error)
	MapByAuctionIDs(auctionIDs []string) (map[string]models.Award, error)
	List(filter AwardListFilter) ([]models.Award, int64, error)
	WithTx(tx *gorm.DB) *GormAwardRepository
}

// GormAwardRepository GORM 实现
type GormAwardRepository struct {
	db *gorm.DB
}

// NewAwardRepository 创建中标记录仓库
func NewAwardRepository(db *gorm.DB) *GormAwardRepository {
	return &GormAwardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAwardRepository) WithTx(tx *gorm.DB) *GormAwardRepository {
	if tx == nil {
		return r
	}
	return &GormAwardRepository{db: tx}
}

// CreateIfAbsent 依赖 auction_id 唯一索引插入，已存在时不写入并返回 false
func (r *GormAwardRepository) CreateIfAbsent(award *models.Award) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "auction_id"}},
		DoNothing: true,
	}).Create(award)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetByAuctionID 获取竞价单的中标记录
func (r *GormAwardRepository) GetByAuctionID(auctionID string) (*models.Award, error) {
	auctionID = strings.TrimSpace(auctionID)
	if auctionID == "" {
		return nil, nil
	}
	var award models.Award
	if err := r.db.Where("auction_id = ?", auctionID).First(&award).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &award, nil
}

// MapByAuctionIDs 批量获取中标记录
func (r *GormAwardRepository) MapByAuctionIDs(auctionIDs []string) (map[string]models.Award, error) {
	result := make(map[string]models.Award, len(auctionIDs))
	if len(auctionIDs) == 0 {
		return result, nil
	}
	var awards []models.Award
	if err := r.db.Where("auction_id IN ?", auctionIDs).Find(&awards).Error; err != nil {
		return nil, err
	}
	for _, award := range awards {
		result[award.AuctionID] = award
	}
	return result, nil
}

// List 分页查询中标记录
func (r *GormAwardRepository) List(filter AwardListFilter) ([]models.Award, int64, error) {
	query := r.db.Model(&models.Award{})
	if winnerID := strings.TrimSpace(filter.WinnerID); winnerID != "" {
		query = query.Where("winner_id = ?", winnerID)
	}
	if filter.Manual != nil {
		query = query.Where("manual = ?", *filter.Manual)
	}
	if filter.AwardedTo != nil {
		query = query.Where("awarded_at < ?", *filter.AwardedTo)
	}

	return findPage[models.Award](query, filter.Page, filter.PageSize, "awarded_at desc", "id desc")
}
