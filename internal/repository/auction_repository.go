package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loadbid-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuctionRepository 竞价单数据访问接口
type AuctionRepository interface {
	Create(auction *models.Auction) error
	GetByAuctionID(auctionID string) (*models.Auction, error)
	List(filter AuctionListFilter) ([]models.Auction, int64, error)
	SetPublished(auctionID string, published bool) (bool, error)
	ListArchiveCandidateIDs(from, to time.Time, afterID uint, limit int) ([]uint, error)
	ArchiveByIDs(ids []uint, archivedAt time.Time) ([]ArchivedRef, error)
	ListArchived(filter ArchivedListFilter) ([]models.Auction, int64, error)
	WithTx(tx *gorm.DB) *GormAuctionRepository
}

// GormAuctionRepository GORM 实现
type GormAuctionRepository struct {
	db *gorm.DB
}

// NewAuctionRepository 创建竞价单仓库
func NewAuctionRepository(db *gorm.DB) *GormAuctionRepository {
	return &GormAuctionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAuctionRepository) WithTx(tx *gorm.DB) *GormAuctionRepository {
	if tx == nil {
		return r
	}
	return &GormAuctionRepository{db: tx}
}

// Create 创建竞价单，auction_id 冲突时返回 ErrDuplicateKey
func (r *GormAuctionRepository) Create(auction *models.Auction) error {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "auction_id"}},
		DoNothing: true,
	}).Create(auction)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateKey
	}
	return nil
}

// GetByAuctionID 根据外部单号获取竞价单
func (r *GormAuctionRepository) GetByAuctionID(auctionID string) (*models.Auction, error) {
	auctionID = strings.TrimSpace(auctionID)
	if auctionID == "" {
		return nil, nil
	}
	var auction models.Auction
	if err := r.db.Where("auction_id = ?", auctionID).First(&auction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auction, nil
}

// List 分页查询竞价单，按接收时间倒序
func (r *GormAuctionRepository) List(filter AuctionListFilter) ([]models.Auction, int64, error) {
	query := r.db.Model(&models.Auction{})
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		query = query.Where("tag = ?", strings.ToUpper(tag))
	}
	if filter.OnlyPublished {
		query = query.Where("published = ?", true)
	}
	if filter.OnlyActive {
		query = query.Where("archived_at IS NULL")
	}
	if filter.ReceivedFrom != nil {
		query = query.Where("received_at >= ?", *filter.ReceivedFrom)
	}
	if filter.ReceivedTo != nil {
		query = query.Where("received_at < ?", *filter.ReceivedTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"auction_id", "tag", "source_channel"})
		query = query.Where(condition, repeatLikeArgs(containsPattern(search), argCount)...)
	}

	return findPage[models.Auction](query, filter.Page, filter.PageSize, "received_at desc", "id desc")
}

// SetPublished 更新展示标记，返回是否找到记录
func (r *GormAuctionRepository) SetPublished(auctionID string, published bool) (bool, error) {
	result := r.db.Model(&models.Auction{}).
		Where("auction_id = ?", strings.TrimSpace(auctionID)).
		Updates(map[string]interface{}{
			"published":  published,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListArchiveCandidateIDs 按 id 游标列出 [from, to) 内尚未归档的竞价单
func (r *GormAuctionRepository) ListArchiveCandidateIDs(from, to time.Time, afterID uint, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []uint
	err := r.db.Model(&models.Auction{}).
		Where("received_at >= ? AND received_at < ?", from, to).
		Where("archived_at IS NULL").
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ArchiveByIDs 锁定并归档仍未归档的行，返回本次实际归档的记录
func (r *GormAuctionRepository) ArchiveByIDs(ids []uint, archivedAt time.Time) ([]ArchivedRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var archived []ArchivedRef
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var rows []ArchivedRef
		if err := tx.Model(&models.Auction{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "auction_id").
			Where("id IN ?", ids).
			Where("archived_at IS NULL").
			Order("id asc").
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		locked := make([]uint, 0, len(rows))
		for _, row := range rows {
			locked = append(locked, row.ID)
		}
		result := tx.Model(&models.Auction{}).
			Where("id IN ?", locked).
			Where("archived_at IS NULL").
			Updates(map[string]interface{}{
				"archived_at": archivedAt,
				"is_archived": true,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(rows)) {
			return ErrArchiveConflict
		}
		archived = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

// ListArchived 查询某一归档时间戳下的竞价单
func (r *GormAuctionRepository) ListArchived(filter ArchivedListFilter) ([]models.Auction, int64, error) {
	query := r.db.Model(&models.Auction{}).Where("archived_at = ?", filter.ArchivedAt)
	return findPage[models.Auction](query, filter.Page, filter.PageSize, "received_at asc", "id asc")
}
