package pipeline

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	cartapp "bazaar/internal/service/cart/application"
	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
)

// CheckoutContext 在提交责任链中传递上下文数据。
// 所有外部依赖都通过出站端口注入，便于在测试里替换。
type CheckoutContext struct {
	Ctx     context.Context
	Tracer  trace.Tracer
	Session *domain.Session

	// 各步骤产出，逐级向后传递
	Cart    *cartapp.CartSummary
	Method  domain.PaymentMethod
	Order   *domain.Order
	Payment *domain.Payment

	// 出站端口
	Gateway     port.PaymentGateway
	CommitStore port.CommitStore
	Notifier    port.NotificationProducer

	CallbackURL string

	// 线上支付时由网关步骤写入，透传给调用方做跳转
	GatewayRedirectURL string

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 登记补偿函数，后登记的先执行。
func (c *CheckoutContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 在链路失败时回滚已经落下的副作用。
func (c *CheckoutContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("session_id", c.Session.ID).
		Int("compensations", len(c.compensations)).
		Msg("executing checkout compensation functions")
	for _, comp := range c.compensations {
		comp(ctx)
	}
}

// Handler 是提交链路的单个步骤。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(checkoutCtx *CheckoutContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(checkoutCtx *CheckoutContext) error {
	if h.next != nil {
		return h.next.Handle(checkoutCtx)
	}
	return nil
}
