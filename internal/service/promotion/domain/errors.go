// internal/service/promotion/domain/errors.go
package domain

import "github.com/pkg/errors"

// 优惠券的每一类拒绝原因都是独立的哨兵错误，
// 接口层据此映射到不同的 HTTP 状态码和用户提示。
var (
	ErrCouponNotFound    = errors.New("coupon is invalid or expired")
	ErrCouponExpired     = errors.New("coupon is invalid or expired")
	ErrCouponNotOwned    = errors.New("you are not authorized to use this coupon")
	ErrCouponAlreadyUsed = errors.New("coupon is invalid or already used")
	ErrCouponNotEligible = errors.New("coupon conditions are not met for this order")
)
