// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是全局的 zerolog 实例，所有服务共用。
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 根据服务名初始化全局 Logger。
// 在每个服务的 main 中调用一次即可。
func Init(serviceName string) {
	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个绑定了追踪上下文的 Logger。
// 如果 ctx 中存在有效的 Span，日志会自动带上 trace_id/span_id，
// 方便在 Jaeger 和日志系统之间互相跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &l
}
