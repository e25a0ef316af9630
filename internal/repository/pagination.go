package repository

import "gorm.io/gorm"

// maxPageSize 单页上限，防止一次拉取整张表
const maxPageSize = 500

// applyPagination 应用分页参数，统一处理非法页码与偏移量。
// pageSize <= 0 表示不分页。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// findPage 先统计总数再按排序取一页
func findPage[T any](query *gorm.DB, page, pageSize int, orders ...string) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)
	for _, order := range orders {
		query = query.Order(order)
	}
	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
