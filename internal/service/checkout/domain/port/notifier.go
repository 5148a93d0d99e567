package port

import (
	"context"

	"bazaar/internal/service/checkout/domain"
)

// NotificationProducer 是订单通知事件的出站端口。
// 应用层只管投递，消费与推送由通知服务负责。
type NotificationProducer interface {
	PublishOrderNotification(ctx context.Context, event *domain.OrderNotificationEvent) error
}
