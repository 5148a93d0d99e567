package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/domain"
)

// GatewayHandler 只对线上支付生效：向外部网关申请一笔支付，
// 拿到的凭据写进支付方式，供回调时二次确认。
// 申请成功后登记补偿：后续步骤失败时向网关作废这笔支付，
// 不留下悬空的待支付凭据。
type GatewayHandler struct {
	NextHandler
}

func (h *GatewayHandler) Handle(checkoutCtx *CheckoutContext) error {
	online, ok := checkoutCtx.Method.(domain.OnlineMethod)
	if !ok {
		return h.executeNext(checkoutCtx)
	}

	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "pipeline.Gateway")
	defer span.End()

	payable := checkoutCtx.Session.PayableAmount()
	result, err := checkoutCtx.Gateway.RequestPayment(ctx, payable, checkoutCtx.Order.ID, checkoutCtx.CallbackURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment gateway request failed")
		return fmt.Errorf("request payment: %w", err)
	}

	online.GatewayAuthority = result.Authority
	checkoutCtx.Method = online
	checkoutCtx.Payment.Method = online
	checkoutCtx.GatewayRedirectURL = result.RedirectURL

	authority := result.Authority
	checkoutCtx.AddCompensation(func(ctx context.Context) {
		if err := checkoutCtx.Gateway.ReversePayment(ctx, authority); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("authority", authority).
				Msg("failed to reverse gateway payment during compensation")
		}
	})

	span.SetAttributes(
		attribute.Int64("payment.amount", payable),
		attribute.String("payment.authority", result.Authority),
	)
	return h.executeNext(checkoutCtx)
}
