package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	catalogdomain "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/checkout/domain"
)

// BuildOrderHandler 用会话快照和提交时刻的计价行装配订单实体与支付记录。
// 这里只构造内存对象，不落库。
type BuildOrderHandler struct {
	NextHandler
}

func (h *BuildOrderHandler) Handle(checkoutCtx *CheckoutContext) error {
	_, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "pipeline.BuildOrder")
	defer span.End()

	orderID := uuid.New().String()

	items := make([]domain.OrderItem, 0, len(checkoutCtx.Cart.Lines))
	for _, line := range checkoutCtx.Cart.Lines {
		items = append(items, toOrderItem(orderID, line.Product, line.Color, line.Guarantee, line.Quote))
	}

	order, err := domain.NewOrderFromSession(orderID, checkoutCtx.Session, items, checkoutCtx.Method)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build order from session: %w", err)
	}

	checkoutCtx.Order = order
	checkoutCtx.Payment = domain.NewPayment(uuid.New().String(), orderID, order.PayableAmount, checkoutCtx.Method)

	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.state", string(order.State)),
		attribute.Int("order.items", len(items)),
	)
	return h.executeNext(checkoutCtx)
}

func toOrderItem(orderID string, product *catalogdomain.Product, color *catalogdomain.Color, guarantee *catalogdomain.Guarantee, quote catalogdomain.Quote) domain.OrderItem {
	item := domain.OrderItem{
		OrderID: orderID,
		Product: domain.ProductSnapshot{
			ProductID: product.ID,
			Title:     product.Title,
			Price:     product.Price,
		},
		Qty:            int64(quote.Qty),
		UnitPrice:      quote.UnitPrice,
		SaleDiscount:   quote.SaleDiscount,
		FinalUnitPrice: quote.FinalUnitPrice,
		FinalLineTotal: quote.FinalLineTotal,
	}
	if color != nil {
		item.Color = &domain.ColorSnapshot{ColorID: color.ID, Name: color.Name, PriceIncrease: color.PriceIncrease}
	}
	if guarantee != nil {
		item.Guarantee = &domain.GuaranteeSnapshot{GuaranteeID: guarantee.ID, Name: guarantee.Name, PriceIncrease: guarantee.PriceIncrease}
	}
	if quote.AppliedSale != nil {
		item.Sale = &domain.SaleSnapshot{
			SaleID:     quote.AppliedSale.ID,
			Percentage: quote.AppliedSale.Percentage,
			EndDate:    quote.AppliedSale.EndDate,
		}
	}
	return item
}
