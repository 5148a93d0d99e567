package pipeline

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"bazaar/internal/service/checkout/domain/port"
)

// CommitHandler 把订单、支付、券核销、清车、会话关闭打进同一个数据库事务。
// 事务失败时购物车和会话保持原样，调用方可以直接重试。
type CommitHandler struct {
	NextHandler
}

func (h *CommitHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "pipeline.Commit")
	defer span.End()

	commit := &port.Commit{
		Order:     checkoutCtx.Order,
		Payment:   checkoutCtx.Payment,
		SessionID: checkoutCtx.Session.ID,
	}
	for _, line := range checkoutCtx.Cart.Lines {
		commit.CartItemIDs = append(commit.CartItemIDs, line.Item.ID)
	}

	if err := checkoutCtx.CommitStore.CommitOrder(ctx, commit); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order commit transaction failed")
		return fmt.Errorf("commit order: %w", err)
	}

	span.AddEvent("Order, payment and cart committed atomically.")
	return h.executeNext(checkoutCtx)
}
