package repository

import (
	"errors"
	"strings"

	"github.com/loadbid-next/internal/models"

	"gorm.io/gorm"
)

// OfferRepository 出价数据访问接口
type OfferRepository interface {
	Create(offer *models.Offer) error
	ListByAuction(auctionID string) ([]models.Offer, error)
	CountByAuction(auctionID string) (int64, error)
	LatestByBidder(auctionID, bidderID string) (*models.Offer, error)
	ListByBidder(filter OfferListFilter) ([]models.Offer, int64, error)
	SummarizeByAuctions(auctionIDs []string) (map[string]OfferSummary, error)
	WithTx(tx *gorm.DB) *GormOfferRepository
}

// GormOfferRepository GORM 实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建出价仓库
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) *GormOfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// Create 追加出价
func (r *GormOfferRepository) Create(offer *models.Offer) error {
	return r.db.Create(offer).Error
}

// ListByAuction 按写入顺序列出竞价单全部出价
func (r *GormOfferRepository) ListByAuction(auctionID string) ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.db.Where("auction_id = ?", strings.TrimSpace(auctionID)).
		Order("id asc").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// CountByAuction 统计出价数量
func (r *GormOfferRepository) CountByAuction(auctionID string) (int64, error) {
	var total int64
	if err := r.db.Model(&models.Offer{}).
		Where("auction_id = ?", strings.TrimSpace(auctionID)).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// LatestByBidder 获取投标人在竞价单上的最新一次出价
func (r *GormOfferRepository) LatestByBidder(auctionID, bidderID string) (*models.Offer, error) {
	auctionID = strings.TrimSpace(auctionID)
	bidderID = strings.TrimSpace(bidderID)
	if auctionID == "" || bidderID == "" {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.Where("auction_id = ? AND bidder_id = ?", auctionID, bidderID).
		Order("id desc").
		First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// ListByBidder 分页查询投标人出价历史
func (r *GormOfferRepository) ListByBidder(filter OfferListFilter) ([]models.Offer, int64, error) {
	query := r.db.Model(&models.Offer{})
	if bidderID := strings.TrimSpace(filter.BidderID); bidderID != "" {
		query = query.Where("bidder_id = ?", bidderID)
	}
	if auctionID := strings.TrimSpace(filter.AuctionID); auctionID != "" {
		query = query.Where("auction_id = ?", auctionID)
	}

	return findPage[models.Offer](query, filter.Page, filter.PageSize, "id desc")
}

// SummarizeByAuctions 批量汇总出价数量与最低报价
func (r *GormOfferRepository) SummarizeByAuctions(auctionIDs []string) (map[string]OfferSummary, error) {
	result := make(map[string]OfferSummary, len(auctionIDs))
	if len(auctionIDs) == 0 {
		return result, nil
	}
	var rows []OfferSummary
	if err := r.db.Model(&models.Offer{}).
		Select("auction_id, COUNT(*) AS offer_count, MIN(amount_minor_units) AS lowest_minor").
		Where("auction_id IN ?", auctionIDs).
		Group("auction_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.AuctionID] = row
	}
	return result, nil
}
