// internal/service/checkout/application/service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	cartapp "bazaar/internal/service/cart/application"
	"bazaar/internal/service/checkout/application/pipeline"
	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
	promoapp "bazaar/internal/service/promotion/application"
	promodomain "bazaar/internal/service/promotion/domain"
)

// CheckoutService 编排结算域的所有业务流程：
// 配送选择、券应用、下单提交和网关回调。
type CheckoutService struct {
	sessionRepo domain.SessionRepository
	orderRepo   domain.OrderRepository
	paymentRepo domain.PaymentRepository
	addressDir  domain.AddressDirectory
	deliveryDir domain.DeliveryDirectory

	cart  *cartapp.CartService
	promo *promoapp.PromotionService

	gateway     port.PaymentGateway
	commitStore port.CommitStore
	notifier    port.NotificationProducer
	locker      port.CommitLocker
	redeemGuard promodomain.RedeemGuard

	checkoutTimeout time.Duration
	callbackURL     string
	redeemGuardOn   bool
	tracer          trace.Tracer
}

// CheckoutServiceDeps 聚合构造参数，避免参数列表失控。
type CheckoutServiceDeps struct {
	SessionRepo domain.SessionRepository
	OrderRepo   domain.OrderRepository
	PaymentRepo domain.PaymentRepository
	AddressDir  domain.AddressDirectory
	DeliveryDir domain.DeliveryDirectory

	Cart  *cartapp.CartService
	Promo *promoapp.PromotionService

	Gateway     port.PaymentGateway
	CommitStore port.CommitStore
	Notifier    port.NotificationProducer
	Locker      port.CommitLocker
	RedeemGuard promodomain.RedeemGuard

	CheckoutTimeout time.Duration
	CallbackURL     string
	RedeemGuardOn   bool
	Tracer          trace.Tracer
}

func NewCheckoutService(deps CheckoutServiceDeps) *CheckoutService {
	return &CheckoutService{
		sessionRepo:     deps.SessionRepo,
		orderRepo:       deps.OrderRepo,
		paymentRepo:     deps.PaymentRepo,
		addressDir:      deps.AddressDir,
		deliveryDir:     deps.DeliveryDir,
		cart:            deps.Cart,
		promo:           deps.Promo,
		gateway:         deps.Gateway,
		commitStore:     deps.CommitStore,
		notifier:        deps.Notifier,
		locker:          deps.Locker,
		redeemGuard:     deps.RedeemGuard,
		checkoutTimeout: deps.CheckoutTimeout,
		callbackURL:     deps.CallbackURL,
		redeemGuardOn:   deps.RedeemGuardOn,
		tracer:          deps.Tracer,
	}
}

// SelectShipping 记录收货地址与配送方式，并按当前购物车刷新会话金额。
// 同一用户只有一个 OPEN 会话：重复调用更新同一行，不新建。
func (s *CheckoutService) SelectShipping(ctx context.Context, req *SelectShippingRequest) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.SelectShipping")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", req.UserID),
		attribute.Int64("address.id", req.AddressID),
		attribute.Int64("delivery.id", req.DeliveryID),
	)

	address, err := s.addressDir.FindAddress(ctx, req.AddressID, req.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	delivery, err := s.deliveryDir.FindDelivery(ctx, req.DeliveryID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	summary, err := s.cart.Summary(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(summary.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	discount, applied, err := s.promo.CommonDiscountFor(ctx, s.factFor(req.UserID, summary))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	session, err := s.sessionRepo.FindOpenByUser(ctx, req.UserID)
	if err == domain.ErrNoOpenSession {
		session = &domain.Session{
			ID:     uuid.New().String(),
			UserID: req.UserID,
			State:  domain.SessionOpen,
		}
		err = nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var discountSnapshot *domain.CommonDiscountSnapshot
	if discount != nil && applied > 0 {
		discountSnapshot = &domain.CommonDiscountSnapshot{
			DiscountID:         discount.ID,
			Percentage:         discount.Percentage,
			DiscountCeiling:    discount.DiscountCeiling,
			MinimalOrderAmount: discount.MinimalOrderAmount,
		}
	}

	session.ApplyShipping(
		domain.AddressSnapshot{
			AddressID:  address.ID,
			Province:   address.Province,
			City:       address.City,
			PostalCode: address.PostalCode,
			Detail:     address.Detail,
			Recipient:  address.Recipient,
			Mobile:     address.Mobile,
		},
		domain.DeliverySnapshot{
			DeliveryID: delivery.ID,
			Title:      delivery.Title,
			Amount:     delivery.Amount,
		},
		summary.ItemsTotal, discountSnapshot, applied,
	)

	if err := s.sessionRepo.Upsert(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upsert checkout session")
		return nil, err
	}

	span.AddEvent("Shipping selected and session amounts refreshed.")
	return sessionView(session), nil
}

// ApplyCoupon 把优惠券应用到当前 OPEN 会话。
// 校验顺序是对外承诺：先券本身（存在/有效期/归属/规则），再会话状态。
func (s *CheckoutService) ApplyCoupon(ctx context.Context, req *ApplyCouponRequest) (*SessionView, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.ApplyCoupon")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", req.UserID),
		attribute.String("coupon.code", req.Code),
	)

	summary, err := s.cart.Summary(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	coupon, err := s.promo.ValidateCoupon(ctx, req.Code, s.factFor(req.UserID, summary))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	session, err := s.sessionRepo.FindOpenByUser(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if session.HasCoupon() {
		return nil, domain.ErrCouponAlreadyApplied
	}

	// 单次券用 Redis 护栏挡校验到核销之间的并发窗口，
	// 应用结束后无论成败都放手，真正的防重复在数据库条件更新上
	guardHeld := false
	if s.redeemGuardOn && coupon.Type == promodomain.CouponSingleUse {
		ok, err := s.redeemGuard.Acquire(ctx, coupon.Code, session.ID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			return nil, promodomain.ErrCouponAlreadyUsed
		}
		guardHeld = true
	}

	discountAmount := coupon.DiscountFor(session.OrderFinalAmount)
	snapshot := domain.CouponSnapshot{
		CouponID:        coupon.ID,
		Code:            coupon.Code,
		Amount:          coupon.Amount,
		AmountType:      int(coupon.AmountType),
		DiscountCeiling: coupon.DiscountCeiling,
		SingleUse:       coupon.Type == promodomain.CouponSingleUse,
	}

	if err := session.ApplyCoupon(snapshot, discountAmount); err != nil {
		s.releaseGuard(ctx, guardHeld, coupon.Code)
		span.RecordError(err)
		return nil, err
	}

	// 单次券在应用成功的同一个事务里立即核销（状态置为已使用），
	// 会话被放弃也不会把券还回去，杜绝窗口期内的二次使用
	if snapshot.SingleUse {
		err = s.sessionRepo.UpsertConsumingCoupon(ctx, session, coupon.ID)
	} else {
		err = s.sessionRepo.Upsert(ctx, session)
	}
	s.releaseGuard(ctx, guardHeld, coupon.Code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist coupon on session")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("coupon.discount", discountAmount))
	span.AddEvent("Coupon applied to session.")
	return sessionView(session), nil
}

// SubmitPayment 在用户级分布式锁和独立超时下执行提交链路。
// 链路失败时触发补偿并原样返回错误，购物车与会话不受影响。
func (s *CheckoutService) SubmitPayment(ctx context.Context, req *SubmitPaymentRequest) (*SubmitPaymentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.SubmitPayment")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user.id", req.UserID),
		attribute.String("payment.method", req.Method),
	)

	method, err := parseMethod(req.Method)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 同一用户的提交串行化，双击下单只会成一单
	release, err := s.locker.AcquireCommitLock(req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire commit lock")
		return nil, domain.ErrCommitConflict
	}
	defer release()

	processingCtx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()

	session, err := s.sessionRepo.FindOpenByUser(processingCtx, req.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !session.ShippingSelected() {
		return nil, domain.ErrShippingNotSelected
	}

	checkoutContext := &pipeline.CheckoutContext{
		Ctx:         processingCtx,
		Tracer:      s.tracer,
		Session:     session,
		Method:      method,
		Gateway:     s.gateway,
		CommitStore: s.commitStore,
		Notifier:    s.notifier,
		CallbackURL: s.callbackURL,
	}

	chain := s.buildChain()
	if err := chain.Handle(checkoutContext); err != nil {
		logger.Ctx(processingCtx).Error().Err(err).
			Int64("user_id", req.UserID).
			Str("session_id", session.ID).
			Msg("checkout pipeline failed, triggering compensation")
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout pipeline failed")
		checkoutContext.TriggerCompensation(processingCtx)
		return nil, err
	}

	order := checkoutContext.Order
	logger.Ctx(processingCtx).Info().
		Str("order_id", order.ID).
		Str("state", string(order.State)).
		Int64("payable", order.PayableAmount).
		Msg("order committed")
	span.AddEvent("Order committed.")

	return &SubmitPaymentResponse{
		OrderID:       order.ID,
		State:         order.State,
		PayableAmount: order.PayableAmount,
		RedirectURL:   checkoutContext.GatewayRedirectURL,
	}, nil
}

// HandleGatewayCallback 处理网关回调：向网关二次确认后落支付结果。
// 确认成功订单转已支付，失败订单取消。
func (s *CheckoutService) HandleGatewayCallback(ctx context.Context, req *GatewayCallbackRequest) (*GatewayCallbackResponse, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.HandleGatewayCallback")
	defer span.End()

	span.SetAttributes(attribute.String("payment.authority", req.Authority))

	payment, err := s.paymentRepo.FindByAuthority(ctx, req.Authority)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, payment.OrderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var verifyErr error
	var refID string
	if req.Status == "OK" {
		result, err := s.gateway.VerifyPayment(ctx, payment.Amount, req.Authority)
		if err != nil {
			verifyErr = err
		} else {
			refID = result.RefID
		}
	} else {
		verifyErr = domain.ErrPaymentRejected
	}

	message := "payment confirmed"
	if verifyErr == nil {
		payment.MarkSucceeded(refID, time.Now())
		if err := order.MarkAsPaid(); err != nil {
			span.RecordError(err)
			return nil, err
		}
	} else {
		span.RecordError(verifyErr)
		payment.MarkFailed()
		if err := order.Cancel(); err != nil {
			span.RecordError(err)
			return nil, err
		}
		message = "payment failed, order cancelled"
	}

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.orderRepo.UpdateState(ctx, order.ID, order.State); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// TODO: 回调在失败路径上也清一次购物车，和成功路径一致。
	// 用户在提交后、回调前新加的商品会被顺带清掉。历史行为如此，
	// 改掉前需要先和客户端确认依赖，暂保持原样。
	if err := s.cart.ClearCart(ctx, order.UserID); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int64("user_id", order.UserID).Msg("failed to clear cart after callback")
	}

	s.publishStateChange(ctx, order, message)

	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("state", string(order.State)).
		Msg("gateway callback processed")

	return &GatewayCallbackResponse{
		OrderID: order.ID,
		State:   order.State,
		RefID:   refID,
		Message: message,
	}, nil
}

// ListOrders 返回用户的历史订单。
func (s *CheckoutService) ListOrders(ctx context.Context, userID int64) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.ListOrders")
	defer span.End()

	orders, err := s.orderRepo.FindByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return orders, nil
}

func (s *CheckoutService) buildChain() pipeline.Handler {
	chain := pipeline.NewPriceCartHandler(s.cart)
	chain.
		SetNext(pipeline.NewRepriceHandler(s.promo)).
		SetNext(new(pipeline.BuildOrderHandler)).
		SetNext(new(pipeline.GatewayHandler)).
		SetNext(new(pipeline.CommitHandler)).
		SetNext(new(pipeline.NotificationHandler))
	return chain
}

func (s *CheckoutService) factFor(userID int64, summary *cartapp.CartSummary) promodomain.Fact {
	var qty int
	for _, line := range summary.Lines {
		qty += line.Item.Qty
	}
	return promodomain.Fact{UserID: userID, ItemsTotal: summary.ItemsTotal, Quantity: qty}
}

func (s *CheckoutService) releaseGuard(ctx context.Context, held bool, code string) {
	if !held {
		return
	}
	if err := s.redeemGuard.Release(ctx, code); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("coupon_code", code).Msg("failed to release coupon redeem guard")
	}
}

func (s *CheckoutService) publishStateChange(ctx context.Context, order *domain.Order, message string) {
	event := &domain.OrderNotificationEvent{
		TraceID: trace.SpanContextFromContext(ctx).TraceID().String(),
		UserID:  order.UserID,
		OrderID: order.ID,
		State:   order.State,
		Message: message,
		At:      time.Now(),
	}
	if err := s.notifier.PublishOrderNotification(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order notification")
	}
}

func parseMethod(method string) (domain.PaymentMethod, error) {
	switch method {
	case domain.MethodKindOnline:
		return domain.OnlineMethod{}, nil
	case domain.MethodKindOffline:
		return domain.OfflineMethod{}, nil
	case domain.MethodKindCash:
		return domain.CashMethod{}, nil
	default:
		return nil, domain.ErrUnknownPaymentMethod
	}
}
