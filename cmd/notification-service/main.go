// cmd/notification-service/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/tracing"
	checkoutdomain "bazaar/internal/service/checkout/domain"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "notification-group"
)

var (
	jaegerEndpoint    = getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	kafkaBrokers      = getEnv("KAFKA_BROKERS", "localhost:9092")
	notificationTopic = getEnv("NOTIFICATION_TOPIC", "order-notifications")

	tracer = otel.Tracer(serviceName)

	notificationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_notifications_processed_total",
		Help: "Order notifications consumed, partitioned by order state.",
	}, []string{"state"})
)

func main() {
	logger.Init(serviceName)

	tp, err := tracing.InitTracerProvider(serviceName, jaegerEndpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	// 健康检查和监控走独立端口
	go func() {
		http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		http.Handle("/metrics", promhttp.Handler())
		logger.Logger.Info().Msg("health and metrics server listening on :8083")
		if err := http.ListenAndServe(":8083", nil); err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to start health/metrics server")
		}
	}()

	reader := mq.NewKafkaReader(strings.Split(kafkaBrokers, ","), notificationTopic, consumerGroupID)
	defer reader.Close()

	logger.Logger.Info().Str("topic", notificationTopic).Msg("notification service consuming")

	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			logger.Logger.Error().Err(err).Msg("could not read message, retrying")
			time.Sleep(5 * time.Second)
			continue
		}
		go processNotification(msg)
	}
}

// processNotification 处理从消息队列收到的单条订单事件。
func processNotification(msg kafka.Message) {
	ctx := mq.ExtractTraceContext(context.Background(), msg.Headers)

	spanOpts := []trace.SpanStartOption{
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	}
	ctx, span := tracer.Start(ctx, "notification-service.ProcessNotification", spanOpts...)
	defer span.End()

	var event checkoutdomain.OrderNotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal notification event")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(
		attribute.Int64("user.id", event.UserID),
		attribute.String("order.id", event.OrderID),
		attribute.String("order.state", string(event.State)),
	)

	// 短信/邮件通道尚未接入，先落日志占位
	logger.Ctx(ctx).Info().
		Int64("user_id", event.UserID).
		Str("order_id", event.OrderID).
		Str("state", string(event.State)).
		Str("message", event.Message).
		Msg("dispatching order notification")

	notificationsProcessed.WithLabelValues(string(event.State)).Inc()
	span.AddEvent("Notification dispatched.")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
