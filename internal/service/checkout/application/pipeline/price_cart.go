package pipeline

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	cartapp "bazaar/internal/service/cart/application"
	cartdomain "bazaar/internal/service/cart/domain"
	"bazaar/internal/service/checkout/domain"
)

// PriceCartHandler 在提交时刻按当前目录状态重新为购物车计价。
// 加车到提交之间的价格漂移在这里定格。
type PriceCartHandler struct {
	NextHandler
	cart *cartapp.CartService
}

func NewPriceCartHandler(cart *cartapp.CartService) *PriceCartHandler {
	return &PriceCartHandler{cart: cart}
}

func (h *PriceCartHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "pipeline.PriceCart")
	defer span.End()

	summary, err := h.cart.Summary(ctx, checkoutCtx.Session.UserID)
	if err != nil {
		if errors.Is(err, cartdomain.ErrEmptyCart) {
			return domain.ErrEmptyCart
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reprice cart at submit time")
		return fmt.Errorf("reprice cart: %w", err)
	}
	if len(summary.Lines) == 0 {
		return domain.ErrEmptyCart
	}

	checkoutCtx.Cart = summary
	span.SetAttributes(
		attribute.Int("cart.lines", len(summary.Lines)),
		attribute.Int64("cart.items_total", summary.ItemsTotal),
	)
	return h.executeNext(checkoutCtx)
}
