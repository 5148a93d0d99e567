package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/application"
	"bazaar/internal/service/checkout/domain"
	promodomain "bazaar/internal/service/promotion/domain"
)

var (
	ordersCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_orders_committed_total",
		Help: "Committed orders partitioned by initial state.",
	}, []string{"state"})

	checkoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_checkout_failures_total",
		Help: "Checkout requests rejected or failed, partitioned by operation.",
	}, []string{"operation"})
)

// CheckoutHandler 封装了结算服务的 HTTP 处理器
type CheckoutHandler struct {
	service *application.CheckoutService
}

// NewCheckoutHandler 创建一个新的 HTTP 处理器实例
func NewCheckoutHandler(service *application.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/checkout/select_shipping", h.handleSelectShipping)
	mux.HandleFunc("/checkout/apply_coupon", h.handleApplyCoupon)
	mux.HandleFunc("/checkout/submit_payment", h.handleSubmitPayment)
	mux.HandleFunc("/payment/callback", h.handleGatewayCallback)
	mux.HandleFunc("/orders", h.handleListOrders)
}

func (h *CheckoutHandler) handleSelectShipping(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.SelectShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.SelectShipping(ctx, &req)
	if err != nil {
		checkoutFailures.WithLabelValues("select_shipping").Inc()
		writeDomainError(w, err)
		return
	}

	writeJSON(w, resp)
}

func (h *CheckoutHandler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.ApplyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.ApplyCoupon(ctx, &req)
	if err != nil {
		checkoutFailures.WithLabelValues("apply_coupon").Inc()
		writeDomainError(w, err)
		return
	}

	writeJSON(w, resp)
}

func (h *CheckoutHandler) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.SubmitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.SubmitPayment(ctx, &req)
	if err != nil {
		checkoutFailures.WithLabelValues("submit_payment").Inc()
		writeDomainError(w, err)
		return
	}

	ordersCommitted.WithLabelValues(string(resp.State)).Inc()
	writeJSON(w, resp)
}

// handleGatewayCallback 是支付网关的回跳入口，参数在查询串里。
func (h *CheckoutHandler) handleGatewayCallback(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	req := application.GatewayCallbackRequest{
		Authority: r.URL.Query().Get("Authority"),
		Status:    r.URL.Query().Get("Status"),
	}
	if req.Authority == "" {
		http.Error(w, "missing authority", http.StatusBadRequest)
		return
	}

	resp, err := h.service.HandleGatewayCallback(ctx, &req)
	if err != nil {
		checkoutFailures.WithLabelValues("gateway_callback").Inc()
		writeDomainError(w, err)
		return
	}

	writeJSON(w, resp)
}

func (h *CheckoutHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	orders, err := h.service.ListOrders(ctx, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, orders)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeDomainError 把领域哨兵错误映射到 HTTP 状态码。
// 未识别的错误一律 500 并给一个可重试的通用提示，不泄漏内部细节。
func writeDomainError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrAddressNotFound),
		errors.Is(err, domain.ErrDeliveryNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, promodomain.ErrCouponNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, promodomain.ErrCouponExpired),
		errors.Is(err, promodomain.ErrCouponNotOwned):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrNoOpenSession),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrShippingNotSelected),
		errors.Is(err, domain.ErrCouponAlreadyApplied),
		errors.Is(err, promodomain.ErrCouponAlreadyUsed),
		errors.Is(err, promodomain.ErrCouponNotEligible):
		statusCode = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownPaymentMethod):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrCommitConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrPaymentRejected):
		statusCode = http.StatusPaymentRequired
	default:
		logger.Logger.Error().Err(err).Msg("unexpected checkout error")
		http.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
		return
	}
	http.Error(w, err.Error(), statusCode)
}
