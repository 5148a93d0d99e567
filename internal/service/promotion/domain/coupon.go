// internal/service/promotion/domain/coupon.go
package domain

import "time"

// CouponAmountType 区分固定金额券和百分比折扣券。
type CouponAmountType int

const (
	AmountTypeFlat       CouponAmountType = 0 // 固定金额立减
	AmountTypePercentage CouponAmountType = 1 // 按订单金额的百分比
)

// CouponStatus 定义了优惠券的生命周期状态。
type CouponStatus int

const (
	CouponInactive CouponStatus = 0
	CouponActive   CouponStatus = 1
	CouponConsumed CouponStatus = 2 // 单次券核销后置为此状态
)

// CouponType 标识券的使用次数语义。
type CouponType int

const (
	CouponMultiUse  CouponType = 0
	CouponSingleUse CouponType = 1 // 首次成功使用后立即失效
)

// Coupon 是一张优惠券的核心定义。
// DiscountCeiling 对两种 AmountType 都生效：即使是固定金额券，
// 让利也不会超过上限。
type Coupon struct {
	ID              int64
	Code            string
	Amount          int64 // flat: 金额；percentage: [0,100] 的百分比
	AmountType      CouponAmountType
	DiscountCeiling int64
	UserID          *int64 // 设置后仅限该用户使用
	Type            CouponType
	StartDate       time.Time
	EndDate         time.Time
	Status          CouponStatus

	// RuleDefinition 是可选的 CEL 表达式，描述本券的附加适用条件。
	// 为空表示无附加条件。
	RuleDefinition string
}

// Validate 依次执行与用户无关/有关的前置校验。
// 校验顺序是对外承诺的一部分：先判断有效期，再判断归属。
func (c *Coupon) Validate(userID int64, now time.Time) error {
	if c.Status != CouponActive {
		return ErrCouponExpired
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return ErrCouponExpired
	}
	if c.UserID != nil && *c.UserID != userID {
		return ErrCouponNotOwned
	}
	return nil
}

// DiscountFor 计算本券对给定金额的让利。
// 上限对两种类型一视同仁地封顶。
func (c *Coupon) DiscountFor(amount int64) int64 {
	var raw int64
	switch c.AmountType {
	case AmountTypePercentage:
		raw = amount * c.Amount / 100
	default:
		raw = c.Amount
	}
	if raw > c.DiscountCeiling {
		return c.DiscountCeiling
	}
	return raw
}

// Consume 核销一张单次券。多次使用券保持 active。
func (c *Coupon) Consume() {
	if c.Type == CouponSingleUse {
		c.Status = CouponConsumed
	}
}
