// internal/service/promotion/domain/repository.go
package domain

import (
	"context"
	"time"
)

// PromotionRepository 定义了优惠相关实体的持久化接口。
// 它位于领域层，由基础设施层实现。
type PromotionRepository interface {
	// FindCouponByCode 按券码查找优惠券，找不到返回 ErrCouponNotFound。
	FindCouponByCode(ctx context.Context, code string) (*Coupon, error)

	// FindActiveCommonDiscount 返回给定时刻生效的全场折扣。
	// 没有生效记录时返回 (nil, nil)。
	FindActiveCommonDiscount(ctx context.Context, now time.Time) (*CommonDiscount, error)
}

// RuleEngine 评估优惠的附加适用条件（CEL 表达式）。
type RuleEngine interface {
	// Evaluate 对给定事实评估规则，表达式为空时视为通过。
	Evaluate(ruleDefinition string, fact Fact) (bool, error)
}

// Fact 是规则评估的输入事实。
type Fact struct {
	UserID     int64 `json:"user_id"`
	ItemsTotal int64 `json:"items_total"`
	Quantity   int   `json:"quantity"`
}

// RedeemGuard 是单次券并发核销的护栏。
// 典型实现基于 Redis：同一券码同一时刻只允许一个会话持有。
type RedeemGuard interface {
	// Acquire 尝试占住券码，返回 false 表示已被其他会话占用。
	Acquire(ctx context.Context, code, sessionRef string) (bool, error)

	// Release 释放占用，用于事务回滚后的补偿。
	Release(ctx context.Context, code string) error
}
