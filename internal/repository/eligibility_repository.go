package repository

import (
	"errors"
	"strings"

	"github.com/loadbid-next/internal/models"

	"gorm.io/gorm"
)

// EligibilityRepository 资格名单数据访问接口
type EligibilityRepository interface {
	FindByIdentifiers(operatingNumber, dotNumber string) ([]models.EligibilityEntry, error)
	GetByID(id uint) (*models.EligibilityEntry, error)
	Create(entry *models.EligibilityEntry) error
	Update(entry *models.EligibilityEntry) error
	List(filter EligibilityListFilter) ([]models.EligibilityEntry, int64, error)
	WithTx(tx *gorm.DB) *GormEligibilityRepository
}

// GormEligibilityRepository GORM 实现
type GormEligibilityRepository struct {
	db *gorm.DB
}

// NewEligibilityRepository 创建资格名单仓库
func NewEligibilityRepository(db *gorm.DB) *GormEligibilityRepository {
	return &GormEligibilityRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEligibilityRepository) WithTx(tx *gorm.DB) *GormEligibilityRepository {
	if tx == nil {
		return r
	}
	return &GormEligibilityRepository{db: tx}
}

// FindByIdentifiers 按 MC 号或 DOT 号查找名单记录，空标识不参与匹配
func (r *GormEligibilityRepository) FindByIdentifiers(operatingNumber, dotNumber string) ([]models.EligibilityEntry, error) {
	operatingNumber = strings.TrimSpace(operatingNumber)
	dotNumber = strings.TrimSpace(dotNumber)
	if operatingNumber == "" && dotNumber == "" {
		return nil, nil
	}
	query := r.db.Model(&models.EligibilityEntry{})
	switch {
	case operatingNumber != "" && dotNumber != "":
		query = query.Where("operating_number = ? OR dot_number = ?", operatingNumber, dotNumber)
	case operatingNumber != "":
		query = query.Where("operating_number = ?", operatingNumber)
	default:
		query = query.Where("dot_number = ?", dotNumber)
	}
	var entries []models.EligibilityEntry
	if err := query.Order("updated_at desc").Order("id desc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// GetByID 根据 ID 获取名单记录
func (r *GormEligibilityRepository) GetByID(id uint) (*models.EligibilityEntry, error) {
	if id == 0 {
		return nil, nil
	}
	var entry models.EligibilityEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Create 新增名单记录
func (r *GormEligibilityRepository) Create(entry *models.EligibilityEntry) error {
	return r.db.Create(entry).Error
}

// Update 保存名单记录
func (r *GormEligibilityRepository) Update(entry *models.EligibilityEntry) error {
	return r.db.Save(entry).Error
}

// List 分页查询名单
func (r *GormEligibilityRepository) List(filter EligibilityListFilter) ([]models.EligibilityEntry, int64, error) {
	query := r.db.Model(&models.EligibilityEntry{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := buildLikeCondition(r.db, []string{"operating_number", "dot_number", "reason"})
		query = query.Where(condition, repeatLikeArgs(containsPattern(keyword), argCount)...)
	}

	return findPage[models.EligibilityEntry](query, filter.Page, filter.PageSize, "updated_at desc", "id desc")
}
