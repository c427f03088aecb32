package repository

import "gorm.io/gorm"

// 列表默认的排序：最新的在前，同一时刻按ID倒排保证顺序稳定
var newestFirst = []string{"created_at desc", "id desc"}

// findPage 先Count总数，再按偏移量取一页；偏移超出总数直接返回空页
// query需要已经带上Model和过滤条件
func findPage[T any](query *gorm.DB, offset, limit int, orders []string, preloads ...string) ([]T, int64, error) {
	// Session之后query可以安全复用，Count和Find各自克隆条件
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := make([]T, 0, limit)
	if total == 0 || int64(offset) >= total {
		return items, total, nil
	}
	q := query
	for _, p := range preloads {
		q = q.Preload(p)
	}
	for _, o := range orders {
		q = q.Order(o)
	}
	err := q.Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}
