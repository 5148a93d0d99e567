// internal/service/promotion/domain/common_discount.go
package domain

import "time"

// CommonDiscountStatus 标识全场折扣的启用状态。
type CommonDiscountStatus int

const (
	CommonDiscountInactive CommonDiscountStatus = 0
	CommonDiscountActive   CommonDiscountStatus = 1
)

// CommonDiscount 是全站范围的百分比折扣。
// 同一时刻应当只有一条生效记录；查询取第一条匹配。
type CommonDiscount struct {
	ID                 int64
	Title              string
	Percentage         int64 // [0, 100]
	DiscountCeiling    int64 // 让利绝对上限
	MinimalOrderAmount int64 // 低于此金额不参与折扣
	StartDate          time.Time
	EndDate            time.Time
	Status             CommonDiscountStatus

	// RuleDefinition 是可选的 CEL 表达式，为空表示无附加条件。
	RuleDefinition string
}

// ActiveAt 判断折扣在给定时刻是否生效。
func (d *CommonDiscount) ActiveAt(now time.Time) bool {
	if d == nil {
		return false
	}
	if d.Status != CommonDiscountActive {
		return false
	}
	return !now.Before(d.StartDate) && !now.After(d.EndDate)
}

// AppliedAmount 计算折扣对给定购物车总额的让利。
// 总额未达到门槛时为 0；超过上限时按上限封顶。
func (d *CommonDiscount) AppliedAmount(itemsTotal int64) int64 {
	if d == nil || itemsTotal < d.MinimalOrderAmount {
		return 0
	}
	raw := itemsTotal * d.Percentage / 100
	if raw > d.DiscountCeiling {
		return d.DiscountCeiling
	}
	return raw
}
