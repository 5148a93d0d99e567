package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/cart/application"
	"bazaar/internal/service/cart/domain"
	catalogdomain "bazaar/internal/service/catalog/domain"
)

// CartHandler 封装了购物车服务的 HTTP 处理器
type CartHandler struct {
	service *application.CartService
}

// NewCartHandler 创建一个新的 HTTP 处理器实例
func NewCartHandler(service *application.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/cart/add", h.handleAddItem)
	mux.HandleFunc("/cart/remove", h.handleRemoveItem)
	mux.HandleFunc("/cart/summary", h.handleSummary)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.service.AddItem(ctx, &req)
	if err != nil {
		writeCartError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}
	itemID, err := strconv.ParseInt(r.URL.Query().Get("item_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid item_id", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveItem(ctx, userID, itemID); err != nil {
		writeCartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Summary(ctx, userID)
	if err != nil {
		writeCartError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func writeCartError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrColorNotFound),
		errors.Is(err, catalogdomain.ErrGuaranteeNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwnedByUser):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidQty):
		statusCode = http.StatusUnprocessableEntity
	default:
		// 未识别的错误不往外带内部细节
		logger.Logger.Error().Err(err).Msg("unexpected cart error")
		http.Error(w, "something went wrong, please try again", http.StatusInternalServerError)
		return
	}
	http.Error(w, err.Error(), statusCode)
}
