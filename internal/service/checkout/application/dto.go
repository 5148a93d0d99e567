// internal/service/checkout/application/dto.go
package application

import "bazaar/internal/service/checkout/domain"

// SelectShippingRequest 是选择收货地址与配送方式的入参。
type SelectShippingRequest struct {
	UserID     int64 `json:"user_id"`
	AddressID  int64 `json:"address_id"`
	DeliveryID int64 `json:"delivery_id"`
}

// SessionView 是结算会话的对外视图，金额为最小货币单位。
type SessionView struct {
	SessionID            string `json:"session_id"`
	ItemsTotal           int64  `json:"items_total"`
	CommonDiscountAmount int64  `json:"common_discount_amount"`
	OrderFinalAmount     int64  `json:"order_final_amount"`
	DeliveryAmount       int64  `json:"delivery_amount"`
	CouponDiscountAmount int64  `json:"coupon_discount_amount"`
	PayableAmount        int64  `json:"payable_amount"`
}

// ApplyCouponRequest 是应用优惠券的入参。
type ApplyCouponRequest struct {
	UserID int64  `json:"user_id"`
	Code   string `json:"code"`
}

// SubmitPaymentRequest 是提交支付的入参。
// Method 取值 ONLINE / OFFLINE / CASH。
type SubmitPaymentRequest struct {
	UserID int64  `json:"user_id"`
	Method string `json:"method"`
}

// SubmitPaymentResponse 是提交后的返回。
// 线上支付时 RedirectURL 指向网关收银台，其余方式为空。
type SubmitPaymentResponse struct {
	OrderID       string            `json:"order_id"`
	State         domain.OrderState `json:"state"`
	PayableAmount int64             `json:"payable_amount"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
}

// GatewayCallbackRequest 是支付网关回调的入参。
// Status 为 "OK" 表示用户侧支付完成，仍需向网关二次确认。
type GatewayCallbackRequest struct {
	Authority string `json:"authority"`
	Status    string `json:"status"`
}

// GatewayCallbackResponse 是回调处理结果。
type GatewayCallbackResponse struct {
	OrderID string            `json:"order_id"`
	State   domain.OrderState `json:"state"`
	RefID   string            `json:"ref_id,omitempty"`
	Message string            `json:"message"`
}

func sessionView(s *domain.Session) *SessionView {
	var delivery int64
	if s.Delivery != nil {
		delivery = s.Delivery.Amount
	}
	return &SessionView{
		SessionID:            s.ID,
		ItemsTotal:           s.ItemsTotal,
		CommonDiscountAmount: s.CommonDiscountAmount,
		OrderFinalAmount:     s.OrderFinalAmount,
		DeliveryAmount:       delivery,
		CouponDiscountAmount: s.CouponDiscountAmount,
		PayableAmount:        s.PayableAmount(),
	}
}
