// internal/service/catalog/domain/amazing_sale.go
package domain

import "time"

// AmazingSaleStatus 标识限时折扣的启用状态。
type AmazingSaleStatus int

const (
	SaleInactive AmazingSaleStatus = 0
	SaleActive   AmazingSaleStatus = 1
)

// AmazingSale 是作用在单个商品上的限时百分比折扣。
// 同一商品同一时刻理论上只有一条生效记录；若时间窗重叠，
// 查询按默认排序取第一条（与历史行为保持一致，未定义更细的优先级）。
type AmazingSale struct {
	ID         int64
	ProductID  int64
	Percentage int64 // [0, 100]
	StartDate  time.Time
	EndDate    time.Time
	Status     AmazingSaleStatus
}

// ActiveAt 判断折扣在给定时刻是否生效。
func (s *AmazingSale) ActiveAt(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != SaleActive {
		return false
	}
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}
