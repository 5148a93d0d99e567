package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/checkout/domain"
)

// NotificationKafkaAdapter 实现了 port.NotificationProducer 接口。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

// NewNotificationKafkaAdapter 创建一个新的通知生产者适配器。
func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

// PublishOrderNotification 把订单事件写入消息队列。
// 以用户 ID 作为分区键，同一用户的通知保持有序。
func (a *NotificationKafkaAdapter) PublishOrderNotification(ctx context.Context, event *domain.OrderNotificationEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	// mq.ProduceMessage 会自动注入追踪上下文
	key := []byte(strconv.FormatInt(event.UserID, 10))
	return mq.ProduceMessage(ctx, a.writer, key, eventBytes)
}

// Close 关闭底层的 Kafka writer。
func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
