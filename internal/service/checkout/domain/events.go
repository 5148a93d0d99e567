// internal/service/checkout/domain/events.go
package domain

import "time"

// OrderNotificationEvent 是订单状态变化时投递到消息队列的事件，
// 由通知服务消费后推送给用户。
type OrderNotificationEvent struct {
	TraceID string     `json:"traceId,omitempty"`
	UserID  int64      `json:"userId"`
	OrderID string     `json:"orderId"`
	State   OrderState `json:"state"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}
