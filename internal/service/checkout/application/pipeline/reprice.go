package pipeline

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"bazaar/internal/service/checkout/domain"
	promoapp "bazaar/internal/service/promotion/application"
	promodomain "bazaar/internal/service/promotion/domain"
)

// RepriceHandler 用提交时刻的购物车总额重算会话金额链路：
// 全场折扣重新评估，券让利按新的基数重算（券本身在应用时已校验，
// 这里不再改变"已应用"这个事实）。
type RepriceHandler struct {
	NextHandler
	promo *promoapp.PromotionService
}

func NewRepriceHandler(promo *promoapp.PromotionService) *RepriceHandler {
	return &RepriceHandler{promo: promo}
}

func (h *RepriceHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "pipeline.Reprice")
	defer span.End()

	session := checkoutCtx.Session

	var qty int
	for _, line := range checkoutCtx.Cart.Lines {
		qty += line.Item.Qty
	}
	fact := promodomain.Fact{
		UserID:     session.UserID,
		ItemsTotal: checkoutCtx.Cart.ItemsTotal,
		Quantity:   qty,
	}

	discount, applied, err := h.promo.CommonDiscountFor(ctx, fact)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("evaluate common discount: %w", err)
	}

	var snapshot *domain.CommonDiscountSnapshot
	if discount != nil && applied > 0 {
		snapshot = &domain.CommonDiscountSnapshot{
			DiscountID:         discount.ID,
			Percentage:         discount.Percentage,
			DiscountCeiling:    discount.DiscountCeiling,
			MinimalOrderAmount: discount.MinimalOrderAmount,
		}
	}

	// 地址与配送保持原选择，只刷新金额
	session.ApplyShipping(*session.Address, *session.Delivery, checkoutCtx.Cart.ItemsTotal, snapshot, applied)

	if session.HasCoupon() {
		session.CouponDiscountAmount = session.Coupon.DiscountFor(session.OrderFinalAmount)
	}

	span.SetAttributes(
		attribute.Int64("session.items_total", session.ItemsTotal),
		attribute.Int64("session.common_discount", session.CommonDiscountAmount),
		attribute.Int64("session.coupon_discount", session.CouponDiscountAmount),
		attribute.Int64("session.payable", session.PayableAmount()),
	)
	return h.executeNext(checkoutCtx)
}
