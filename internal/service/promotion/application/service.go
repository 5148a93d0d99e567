// internal/service/promotion/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/promotion/domain"
)

// PromotionService 定义了优惠服务提供的所有业务用例
type PromotionService struct {
	repo       domain.PromotionRepository
	ruleEngine domain.RuleEngine
	tracer     trace.Tracer
}

// NewPromotionService 创建一个新的优惠服务实例
func NewPromotionService(repo domain.PromotionRepository, ruleEngine domain.RuleEngine, tracer trace.Tracer) *PromotionService {
	return &PromotionService{
		repo:       repo,
		ruleEngine: ruleEngine,
		tracer:     tracer,
	}
}

// CommonDiscountFor 返回当前生效的全场折扣及其对给定购物车总额的让利。
// 没有生效折扣、未达门槛或附加规则不通过时，让利为 0。
func (s *PromotionService) CommonDiscountFor(ctx context.Context, fact domain.Fact) (*domain.CommonDiscount, int64, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.CommonDiscountFor")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", fact.UserID),
		attribute.Int64("order.items_total", fact.ItemsTotal),
	)

	discount, err := s.repo.FindActiveCommonDiscount(ctx, time.Now())
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	if discount == nil {
		span.AddEvent("No active common discount.")
		return nil, 0, nil
	}

	if discount.RuleDefinition != "" {
		ok, err := s.ruleEngine.Evaluate(discount.RuleDefinition, fact)
		if err != nil {
			span.RecordError(err)
			return nil, 0, err
		}
		if !ok {
			span.AddEvent("Common discount rule rejected the order.")
			return nil, 0, nil
		}
	}

	applied := discount.AppliedAmount(fact.ItemsTotal)
	span.SetAttributes(attribute.Int64("discount.applied", applied))
	logger.Ctx(ctx).Debug().
		Int64("discount_id", discount.ID).
		Int64("applied", applied).
		Msg("common discount evaluated")

	return discount, applied, nil
}

// ValidateCoupon 是券核销的前置校验，校验顺序是对外承诺的一部分：
// 1. 券存在、启用且在有效期内，否则视为无效或过期；
// 2. 有归属的券只能由归属用户使用；
// 3. 附加 CEL 规则（如有）必须通过。
// 是否已应用到当前结算会话由结算侧判断，不在这里。
func (s *PromotionService) ValidateCoupon(ctx context.Context, code string, fact domain.Fact) (*domain.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.ValidateCoupon")
	defer span.End()

	span.SetAttributes(
		attribute.String("coupon.code", code),
		attribute.Int64("user.id", fact.UserID),
	)

	coupon, err := s.repo.FindCouponByCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := coupon.Validate(fact.UserID, time.Now()); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if coupon.RuleDefinition != "" {
		ok, err := s.ruleEngine.Evaluate(coupon.RuleDefinition, fact)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			span.RecordError(domain.ErrCouponNotEligible)
			return nil, domain.ErrCouponNotEligible
		}
	}

	span.AddEvent("Coupon validated.")
	return coupon, nil
}
