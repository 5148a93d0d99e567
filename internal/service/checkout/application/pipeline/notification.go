package pipeline

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/domain"
)

// NotificationHandler 是链路的最后一步，把订单结果投递到消息队列。
// 投递失败不是关键路径失败：订单已经落库，只记警告交给监控补偿。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "pipeline.Notification")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.topic", "order-notifications"),
	)

	order := checkoutCtx.Order
	event := &domain.OrderNotificationEvent{
		TraceID: trace.SpanContextFromContext(ctx).TraceID().String(),
		UserID:  order.UserID,
		OrderID: order.ID,
		State:   order.State,
		Message: fmt.Sprintf("order %s is now %s", order.ID, order.State),
		At:      time.Now(),
	}

	if err := checkoutCtx.Notifier.PublishOrderNotification(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order notification")
		span.RecordError(err)
	}

	return h.executeNext(checkoutCtx)
}
