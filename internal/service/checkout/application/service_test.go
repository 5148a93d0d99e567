package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	cartapp "bazaar/internal/service/cart/application"
	cartdomain "bazaar/internal/service/cart/domain"
	catalogdomain "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
	promoapp "bazaar/internal/service/promotion/application"
	promodomain "bazaar/internal/service/promotion/domain"
)

type fakeCartRepo struct {
	items  map[int64]*cartdomain.Item
	nextID int64
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{items: make(map[int64]*cartdomain.Item), nextID: 1}
}

func (r *fakeCartRepo) FindByUser(_ context.Context, userID int64) ([]*cartdomain.Item, error) {
	var out []*cartdomain.Item
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeCartRepo) FindByID(_ context.Context, id int64) (*cartdomain.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, cartdomain.ErrItemNotFound
	}
	return item, nil
}

func (r *fakeCartRepo) FindByUserAndSelection(_ context.Context, userID, productID int64, colorID, guaranteeID *int64) (*cartdomain.Item, error) {
	for _, item := range r.items {
		if item.UserID == userID && item.ProductID == productID &&
			int64PtrEqual(item.ColorID, colorID) && int64PtrEqual(item.GuaranteeID, guaranteeID) {
			return item, nil
		}
	}
	return nil, nil
}

func (r *fakeCartRepo) Save(_ context.Context, item *cartdomain.Item) error {
	if item.ID == 0 {
		item.ID = r.nextID
		r.nextID++
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeCartRepo) Delete(_ context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

func (r *fakeCartRepo) DeleteByUser(_ context.Context, userID int64) error {
	for id, item := range r.items {
		if item.UserID == userID {
			delete(r.items, id)
		}
	}
	return nil
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeCatalogRepo struct {
	products map[int64]*catalogdomain.Product
	colors   map[int64]*catalogdomain.Color
	sales    map[int64]*catalogdomain.AmazingSale
}

func (r *fakeCatalogRepo) FindProduct(_ context.Context, id int64) (*catalogdomain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, catalogdomain.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeCatalogRepo) FindColor(_ context.Context, id int64) (*catalogdomain.Color, error) {
	c, ok := r.colors[id]
	if !ok {
		return nil, catalogdomain.ErrColorNotFound
	}
	return c, nil
}

func (r *fakeCatalogRepo) FindGuarantee(_ context.Context, id int64) (*catalogdomain.Guarantee, error) {
	return nil, catalogdomain.ErrGuaranteeNotFound
}

func (r *fakeCatalogRepo) FindActiveSale(_ context.Context, productID int64, now time.Time) (*catalogdomain.AmazingSale, error) {
	sale := r.sales[productID]
	if !sale.ActiveAt(now) {
		return nil, nil
	}
	return sale, nil
}

type fakePromoRepo struct {
	coupons  map[string]*promodomain.Coupon
	discount *promodomain.CommonDiscount
}

func (r *fakePromoRepo) FindCouponByCode(_ context.Context, code string) (*promodomain.Coupon, error) {
	c, ok := r.coupons[code]
	if !ok {
		return nil, promodomain.ErrCouponNotFound
	}
	return c, nil
}

func (r *fakePromoRepo) FindActiveCommonDiscount(_ context.Context, _ time.Time) (*promodomain.CommonDiscount, error) {
	return r.discount, nil
}

// consumeByID 模拟数据库侧的条件更新：只有 active 状态能核销成功。
func (r *fakePromoRepo) consumeByID(id int64) error {
	for _, c := range r.coupons {
		if c.ID == id {
			if c.Status != promodomain.CouponActive {
				return promodomain.ErrCouponAlreadyUsed
			}
			c.Status = promodomain.CouponConsumed
			return nil
		}
	}
	return promodomain.ErrCouponNotFound
}

type allowAllRules struct{}

func (allowAllRules) Evaluate(_ string, _ promodomain.Fact) (bool, error) { return true, nil }

type fakeSessionRepo struct {
	sessions      map[int64]*domain.Session
	upsertErr     error
	consumeCoupon func(couponID int64) error
}

func (r *fakeSessionRepo) Upsert(_ context.Context, session *domain.Session) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.sessions[session.UserID] = session
	return nil
}

func (r *fakeSessionRepo) UpsertConsumingCoupon(_ context.Context, session *domain.Session, couponID int64) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if err := r.consumeCoupon(couponID); err != nil {
		return err
	}
	r.sessions[session.UserID] = session
	return nil
}

func (r *fakeSessionRepo) FindOpenByUser(_ context.Context, userID int64) (*domain.Session, error) {
	session, ok := r.sessions[userID]
	if !ok || session.State != domain.SessionOpen {
		return nil, domain.ErrNoOpenSession
	}
	return session, nil
}

type fakeOrderRepo struct {
	orders map[string]*domain.Order
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) FindByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateState(_ context.Context, id string, state domain.OrderState) error {
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.State = state
	return nil
}

type fakePaymentRepo struct {
	payments map[string]*domain.Payment
}

func (r *fakePaymentRepo) FindByOrderID(_ context.Context, orderID string) (*domain.Payment, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakePaymentRepo) FindByAuthority(_ context.Context, authority string) (*domain.Payment, error) {
	for _, p := range r.payments {
		if m, ok := p.Method.(domain.OnlineMethod); ok && m.GatewayAuthority == authority {
			return p, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakePaymentRepo) Update(_ context.Context, payment *domain.Payment) error {
	r.payments[payment.ID] = payment
	return nil
}

type fakeAddressDir struct {
	addresses map[int64]*domain.Address
}

func (d *fakeAddressDir) FindAddress(_ context.Context, addressID, userID int64) (*domain.Address, error) {
	address, ok := d.addresses[addressID]
	if !ok || address.UserID != userID {
		return nil, domain.ErrAddressNotFound
	}
	return address, nil
}

type fakeDeliveryDir struct {
	deliveries map[int64]*domain.Delivery
}

func (d *fakeDeliveryDir) FindDelivery(_ context.Context, deliveryID int64) (*domain.Delivery, error) {
	delivery, ok := d.deliveries[deliveryID]
	if !ok || delivery.Status != 1 {
		return nil, domain.ErrDeliveryNotFound
	}
	return delivery, nil
}

type fakeGateway struct {
	authority   string
	redirectURL string
	requestErr  error
	verifyRefID string
	verifyErr   error

	requestedAmount   int64
	requestedCallback string
	reversed          []string
}

func (g *fakeGateway) RequestPayment(_ context.Context, amount int64, _, callbackURL string) (*port.PaymentInitResult, error) {
	if g.requestErr != nil {
		return nil, g.requestErr
	}
	g.requestedAmount = amount
	g.requestedCallback = callbackURL
	return &port.PaymentInitResult{Authority: g.authority, RedirectURL: g.redirectURL}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, _ int64, _ string) (*port.PaymentVerifyResult, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &port.PaymentVerifyResult{RefID: g.verifyRefID}, nil
}

func (g *fakeGateway) ReversePayment(_ context.Context, authority string) error {
	g.reversed = append(g.reversed, authority)
	return nil
}

type fakeCommitStore struct {
	commits []*port.Commit
	err     error
}

func (s *fakeCommitStore) CommitOrder(_ context.Context, commit *port.Commit) error {
	if s.err != nil {
		return s.err
	}
	s.commits = append(s.commits, commit)
	return nil
}

type fakeNotifier struct {
	events []*domain.OrderNotificationEvent
}

func (n *fakeNotifier) PublishOrderNotification(_ context.Context, event *domain.OrderNotificationEvent) error {
	n.events = append(n.events, event)
	return nil
}

type fakeLocker struct {
	err      error
	acquired int
	released int
}

func (l *fakeLocker) AcquireCommitLock(_ int64) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}

type fakeRedeemGuard struct {
	allow    bool
	held     map[string]bool
	releases []string
}

func (g *fakeRedeemGuard) Acquire(_ context.Context, code, _ string) (bool, error) {
	if !g.allow || g.held[code] {
		return false, nil
	}
	g.held[code] = true
	return true, nil
}

func (g *fakeRedeemGuard) Release(_ context.Context, code string) error {
	delete(g.held, code)
	g.releases = append(g.releases, code)
	return nil
}

// checkoutFixture 搭一套全假依赖的结算服务：
// 用户 42 的购物车里有 2 件参与 10% 限时折扣的商品（含颜色加价），
// 全场折扣 10% 上限 100,000，券 SAVE40 立减 50,000 上限 40,000。
type checkoutFixture struct {
	svc      *CheckoutService
	cartRepo *fakeCartRepo
	promo    *fakePromoRepo
	sessions *fakeSessionRepo
	orders   *fakeOrderRepo
	payments *fakePaymentRepo
	gateway  *fakeGateway
	commits  *fakeCommitStore
	notifier *fakeNotifier
	locker   *fakeLocker
	guard    *fakeRedeemGuard
}

const fixtureUserID int64 = 42

func newCheckoutFixture() *checkoutFixture {
	return newCheckoutFixtureGuard(true)
}

func newCheckoutFixtureGuard(guardOn bool) *checkoutFixture {
	tracer := noop.NewTracerProvider().Tracer("test")

	colorID := int64(3)
	cartRepo := newFakeCartRepo()
	cartRepo.items[1] = &cartdomain.Item{ID: 1, UserID: fixtureUserID, ProductID: 7, ColorID: &colorID, Qty: 2}
	cartRepo.nextID = 2

	catalogRepo := &fakeCatalogRepo{
		products: map[int64]*catalogdomain.Product{
			7: {ID: 7, Title: "phone", Price: 1_000_000, Status: catalogdomain.ProductActive},
		},
		colors: map[int64]*catalogdomain.Color{
			3: {ID: 3, ProductID: 7, Name: "black", PriceIncrease: 50_000},
		},
		sales: map[int64]*catalogdomain.AmazingSale{
			7: {
				ID:         11,
				ProductID:  7,
				Percentage: 10,
				StartDate:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:    time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
				Status:     catalogdomain.SaleActive,
			},
		},
	}

	promoRepo := &fakePromoRepo{
		coupons: map[string]*promodomain.Coupon{
			"SAVE40": {
				ID:              21,
				Code:            "SAVE40",
				Amount:          50_000,
				AmountType:      promodomain.AmountTypeFlat,
				DiscountCeiling: 40_000,
				Type:            promodomain.CouponSingleUse,
				StartDate:       time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:         time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
				Status:          promodomain.CouponActive,
			},
		},
		discount: &promodomain.CommonDiscount{
			ID:                 31,
			Percentage:         10,
			DiscountCeiling:    100_000,
			MinimalOrderAmount: 500_000,
			StartDate:          time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:            time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
			Status:             promodomain.CommonDiscountActive,
		},
	}

	f := &checkoutFixture{
		cartRepo: cartRepo,
		sessions: &fakeSessionRepo{sessions: make(map[int64]*domain.Session)},
		orders:   &fakeOrderRepo{orders: make(map[string]*domain.Order)},
		payments: &fakePaymentRepo{payments: make(map[string]*domain.Payment)},
		gateway:  &fakeGateway{authority: "A-001", redirectURL: "https://gateway.test/payment/start/A-001", verifyRefID: "REF-9"},
		commits:  &fakeCommitStore{},
		notifier: &fakeNotifier{},
		locker:   &fakeLocker{},
		guard:    &fakeRedeemGuard{allow: true, held: make(map[string]bool)},
	}
	f.promo = promoRepo
	f.sessions.consumeCoupon = promoRepo.consumeByID

	f.svc = NewCheckoutService(CheckoutServiceDeps{
		SessionRepo:     f.sessions,
		OrderRepo:       f.orders,
		PaymentRepo:     f.payments,
		AddressDir:      &fakeAddressDir{addresses: map[int64]*domain.Address{1: {ID: 1, UserID: fixtureUserID, City: "Tehran"}}},
		DeliveryDir:     &fakeDeliveryDir{deliveries: map[int64]*domain.Delivery{2: {ID: 2, Title: "express", Amount: 50_000, Status: 1}}},
		Cart:            cartapp.NewCartService(cartRepo, catalogRepo, tracer),
		Promo:           promoapp.NewPromotionService(promoRepo, allowAllRules{}, tracer),
		Gateway:         f.gateway,
		CommitStore:     f.commits,
		Notifier:        f.notifier,
		Locker:          f.locker,
		RedeemGuard:     f.guard,
		CheckoutTimeout: time.Second,
		CallbackURL:     "https://shop.test/payment/callback",
		RedeemGuardOn:   guardOn,
		Tracer:          tracer,
	})
	return f
}

func (f *checkoutFixture) selectShipping(t *testing.T) *SessionView {
	t.Helper()
	view, err := f.svc.SelectShipping(context.Background(),
		&SelectShippingRequest{UserID: fixtureUserID, AddressID: 1, DeliveryID: 2})
	require.NoError(t, err)
	return view
}

func (f *checkoutFixture) promoCoupon(code string) *promodomain.Coupon {
	return f.promo.coupons[code]
}

func (f *checkoutFixture) applyCoupon(t *testing.T) *SessionView {
	t.Helper()
	view, err := f.svc.ApplyCoupon(context.Background(),
		&ApplyCouponRequest{UserID: fixtureUserID, Code: "SAVE40"})
	require.NoError(t, err)
	return view
}

func TestSelectShipping_BuildsSessionAmounts(t *testing.T) {
	f := newCheckoutFixture()

	view := f.selectShipping(t)

	// 2 * (1,000,000 + 50,000) * 90% = 1,890,000，全场折扣封顶 100,000
	assert.Equal(t, int64(1_890_000), view.ItemsTotal)
	assert.Equal(t, int64(100_000), view.CommonDiscountAmount)
	assert.Equal(t, int64(1_790_000), view.OrderFinalAmount)
	assert.Equal(t, int64(50_000), view.DeliveryAmount)
	assert.Equal(t, int64(1_840_000), view.PayableAmount)
}

func TestSelectShipping_ReusesOpenSession(t *testing.T) {
	f := newCheckoutFixture()

	first := f.selectShipping(t)
	second := f.selectShipping(t)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Len(t, f.sessions.sessions, 1)
}

func TestSelectShipping_RejectsForeignAddress(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.SelectShipping(context.Background(),
		&SelectShippingRequest{UserID: 99, AddressID: 1, DeliveryID: 2})

	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestSelectShipping_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()
	require.NoError(t, f.cartRepo.DeleteByUser(context.Background(), fixtureUserID))

	_, err := f.svc.SelectShipping(context.Background(),
		&SelectShippingRequest{UserID: fixtureUserID, AddressID: 1, DeliveryID: 2})

	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestApplyCoupon_RecomputesAgainstOrderFinal(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)

	view := f.applyCoupon(t)

	assert.Equal(t, int64(40_000), view.CouponDiscountAmount)
	assert.Equal(t, int64(1_800_000), view.PayableAmount)
	// 护栏只覆盖校验到核销的窗口，应用完成即释放
	assert.False(t, f.guard.held["SAVE40"])
	assert.Contains(t, f.guard.releases, "SAVE40")
}

func TestApplyCoupon_SingleUseConsumedOnApply(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)

	f.applyCoupon(t)

	// 券随应用写入一并核销，其他用户立刻拿不到了
	assert.Equal(t, promodomain.CouponConsumed, f.promoCoupon("SAVE40").Status)
	_, err := f.svc.ApplyCoupon(context.Background(),
		&ApplyCouponRequest{UserID: 99, Code: "SAVE40"})
	assert.ErrorIs(t, err, promodomain.ErrCouponExpired)
}

func TestApplyCoupon_SingleUseConsumedEvenWithGuardOff(t *testing.T) {
	f := newCheckoutFixtureGuard(false)
	f.selectShipping(t)

	f.applyCoupon(t)

	// 防重复靠数据库状态，不依赖 Redis 护栏开关
	assert.Empty(t, f.guard.held)
	assert.Equal(t, promodomain.CouponConsumed, f.promoCoupon("SAVE40").Status)
	_, err := f.svc.ApplyCoupon(context.Background(),
		&ApplyCouponRequest{UserID: 99, Code: "SAVE40"})
	assert.ErrorIs(t, err, promodomain.ErrCouponExpired)
}

func TestApplyCoupon_CouponCheckedBeforeSession(t *testing.T) {
	f := newCheckoutFixture()
	// 无 OPEN 会话：未知券码仍然先报券错误，不报会话错误
	_, err := f.svc.ApplyCoupon(context.Background(),
		&ApplyCouponRequest{UserID: fixtureUserID, Code: "NOPE"})

	assert.ErrorIs(t, err, promodomain.ErrCouponNotFound)
}

func TestApplyCoupon_SecondCouponRejected(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)
	f.applyCoupon(t)

	_, err := f.svc.ApplyCoupon(context.Background(),
		&ApplyCouponRequest{UserID: fixtureUserID, Code: "SAVE40"})

	assert.ErrorIs(t, err, domain.ErrCouponAlreadyApplied)
}

func TestApplyCoupon_GuardBusy(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)
	f.guard.allow = false

	_, err := f.svc.ApplyCoupon(context.Background(),
		&ApplyCouponRequest{UserID: fixtureUserID, Code: "SAVE40"})

	assert.ErrorIs(t, err, promodomain.ErrCouponAlreadyUsed)
}

func TestApplyCoupon_GuardReleasedWhenPersistFails(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)
	f.sessions.upsertErr = errors.New("db gone")

	_, err := f.svc.ApplyCoupon(context.Background(),
		&ApplyCouponRequest{UserID: fixtureUserID, Code: "SAVE40"})

	require.Error(t, err)
	assert.False(t, f.guard.held["SAVE40"])
	assert.Contains(t, f.guard.releases, "SAVE40")
	// 事务回滚，券保持可用
	assert.Equal(t, promodomain.CouponActive, f.promoCoupon("SAVE40").Status)
}

func TestSubmitPayment_UnknownMethod(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: "BARTER"})

	assert.ErrorIs(t, err, domain.ErrUnknownPaymentMethod)
}

func TestSubmitPayment_LockContention(t *testing.T) {
	f := newCheckoutFixture()
	f.locker.err = errors.New("lock held elsewhere")

	_, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: domain.MethodKindCash})

	assert.ErrorIs(t, err, domain.ErrCommitConflict)
}

func TestSubmitPayment_NoOpenSession(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: domain.MethodKindCash})

	assert.ErrorIs(t, err, domain.ErrNoOpenSession)
}

func TestSubmitPayment_CashCommitsAtomically(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)
	f.applyCoupon(t)

	resp, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: domain.MethodKindCash})

	require.NoError(t, err)
	assert.Equal(t, domain.StatePaid, resp.State)
	assert.Equal(t, int64(1_800_000), resp.PayableAmount)
	assert.Empty(t, resp.RedirectURL)

	require.Len(t, f.commits.commits, 1)
	commit := f.commits.commits[0]
	assert.Equal(t, resp.OrderID, commit.Order.ID)
	assert.Equal(t, domain.PaymentSucceeded, commit.Payment.Status)
	assert.Equal(t, []int64{1}, commit.CartItemIDs)
	assert.Equal(t, f.sessions.sessions[fixtureUserID].ID, commit.SessionID)

	// 提交锁成对释放
	assert.Equal(t, f.locker.acquired, f.locker.released)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, domain.StatePaid, f.notifier.events[0].State)
}

func TestSubmitPayment_OnlineRequestsGateway(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)

	resp, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: domain.MethodKindOnline})

	require.NoError(t, err)
	assert.Equal(t, domain.StatePendingPayment, resp.State)
	assert.Equal(t, "https://gateway.test/payment/start/A-001", resp.RedirectURL)
	assert.Equal(t, int64(1_840_000), f.gateway.requestedAmount)
	assert.Equal(t, "https://shop.test/payment/callback", f.gateway.requestedCallback)

	require.Len(t, f.commits.commits, 1)
	method, ok := f.commits.commits[0].Payment.Method.(domain.OnlineMethod)
	require.True(t, ok)
	assert.Equal(t, "A-001", method.GatewayAuthority)
}

func TestSubmitPayment_OfflineAwaitsConfirmation(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)

	resp, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: domain.MethodKindOffline})

	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingConfirmation, resp.State)
	assert.Empty(t, resp.RedirectURL)
	require.Len(t, f.commits.commits, 1)
	assert.Equal(t, domain.PaymentPending, f.commits.commits[0].Payment.Status)
}

func TestSubmitPayment_CommitFailureKeepsCart(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)
	f.applyCoupon(t)
	f.commits.err = errors.New("deadlock")

	_, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: domain.MethodKindCash})

	require.Error(t, err)
	assert.Empty(t, f.commits.commits)
	assert.Empty(t, f.notifier.events)
	assert.Len(t, f.cartRepo.items, 1)
	assert.Equal(t, f.locker.acquired, f.locker.released)
}

func TestSubmitPayment_CommitFailureReversesGatewayPayment(t *testing.T) {
	f := newCheckoutFixture()
	f.selectShipping(t)
	f.commits.err = errors.New("deadlock")

	_, err := f.svc.SubmitPayment(context.Background(),
		&SubmitPaymentRequest{UserID: fixtureUserID, Method: domain.MethodKindOnline})

	require.Error(t, err)
	assert.Empty(t, f.commits.commits)
	// 网关之后的环节失败时回滚链路作废已发起的支付
	assert.Equal(t, []string{"A-001"}, f.gateway.reversed)
}

func (f *checkoutFixture) seedPendingOnlineOrder() *domain.Order {
	order := &domain.Order{ID: "o-1", UserID: fixtureUserID, State: domain.StatePendingPayment, PayableAmount: 1_800_000}
	f.orders.orders[order.ID] = order
	payment := domain.NewPayment("p-1", order.ID, order.PayableAmount, domain.OnlineMethod{GatewayAuthority: "A-001"})
	f.payments.payments[payment.ID] = payment
	return order
}

func TestHandleGatewayCallback_SuccessMarksPaid(t *testing.T) {
	f := newCheckoutFixture()
	f.seedPendingOnlineOrder()

	resp, err := f.svc.HandleGatewayCallback(context.Background(),
		&GatewayCallbackRequest{Authority: "A-001", Status: "OK"})

	require.NoError(t, err)
	assert.Equal(t, domain.StatePaid, resp.State)
	assert.Equal(t, "REF-9", resp.RefID)
	assert.Equal(t, domain.StatePaid, f.orders.orders["o-1"].State)
	assert.Equal(t, domain.PaymentSucceeded, f.payments.payments["p-1"].Status)
	assert.Empty(t, f.cartRepo.items)
	require.Len(t, f.notifier.events, 1)
}

func TestHandleGatewayCallback_FailureCancelsOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.seedPendingOnlineOrder()

	resp, err := f.svc.HandleGatewayCallback(context.Background(),
		&GatewayCallbackRequest{Authority: "A-001", Status: "NOK"})

	require.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, resp.State)
	assert.Empty(t, resp.RefID)
	assert.Equal(t, domain.PaymentFailed, f.payments.payments["p-1"].Status)
	// 失败路径同样清空购物车，与成功路径保持一致
	assert.Empty(t, f.cartRepo.items)
}

func TestHandleGatewayCallback_VerifyRejected(t *testing.T) {
	f := newCheckoutFixture()
	f.seedPendingOnlineOrder()
	f.gateway.verifyErr = domain.ErrPaymentRejected

	resp, err := f.svc.HandleGatewayCallback(context.Background(),
		&GatewayCallbackRequest{Authority: "A-001", Status: "OK"})

	require.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, resp.State)
}

func TestHandleGatewayCallback_UnknownAuthority(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.HandleGatewayCallback(context.Background(),
		&GatewayCallbackRequest{Authority: "A-404", Status: "OK"})

	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
