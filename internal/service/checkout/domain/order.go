// internal/service/checkout/domain/order.go
package domain

import (
	"errors"
	"time"
)

// OrderState 定义了订单的生命周期状态
type OrderState string

const (
	StatePendingPayment       OrderState = "PENDING_PAYMENT"       // 线上支付已发起，等待网关回调
	StateAwaitingConfirmation OrderState = "AWAITING_CONFIRMATION" // 线下/货到付款，待人工确认
	StatePaid                 OrderState = "PAID"                  // 已支付
	StateCancelled            OrderState = "CANCELLED"             // 已取消（支付失败或用户放弃）
	StateNotApproved          OrderState = "NOT_APPROVED"          // 人工审核未通过
	StateReturned             OrderState = "RETURNED"              // 已退货
)

// OrderItem 是订单行值对象。商品与促销信息在提交时刻冻结，
// 后续目录价格变动不影响已成订单。
type OrderItem struct {
	ID             int64
	OrderID        string
	Product        ProductSnapshot
	Color          *ColorSnapshot
	Guarantee      *GuaranteeSnapshot
	Sale           *SaleSnapshot
	Qty            int64
	UnitPrice      int64 // 含颜色/质保加价
	SaleDiscount   int64 // 单件促销让利
	FinalUnitPrice int64
	FinalLineTotal int64
}

// Order 是订单聚合根。金额字段是提交时会话金额链路的定格。
type Order struct {
	ID     string // uuid
	UserID int64
	State  OrderState

	Address  AddressSnapshot
	Delivery DeliverySnapshot

	ItemsTotal           int64
	CommonDiscount       *CommonDiscountSnapshot
	CommonDiscountAmount int64
	OrderFinalAmount     int64
	Coupon               *CouponSnapshot
	CouponDiscountAmount int64
	PayableAmount        int64

	Items []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrderFromSession 工厂函数: 用提交时刻的会话与定价行生成订单。
// 初始状态由支付方式决定：线上支付进入待回调，其余进入待确认。
func NewOrderFromSession(id string, session *Session, items []OrderItem, method PaymentMethod) (*Order, error) {
	if id == "" || session == nil || len(items) == 0 {
		return nil, errors.New("cannot create order with empty required fields")
	}
	if !session.ShippingSelected() {
		return nil, ErrShippingNotSelected
	}

	var state OrderState
	switch method.(type) {
	case OnlineMethod:
		state = StatePendingPayment
	case OfflineMethod:
		state = StateAwaitingConfirmation
	case CashMethod:
		state = StatePaid
	default:
		return nil, errors.New("unknown payment method")
	}

	now := time.Now()
	return &Order{
		ID:                   id,
		UserID:               session.UserID,
		State:                state,
		Address:              *session.Address,
		Delivery:             *session.Delivery,
		ItemsTotal:           session.ItemsTotal,
		CommonDiscount:       session.CommonDiscount,
		CommonDiscountAmount: session.CommonDiscountAmount,
		OrderFinalAmount:     session.OrderFinalAmount,
		Coupon:               session.Coupon,
		CouponDiscountAmount: session.CouponDiscountAmount,
		PayableAmount:        session.PayableAmount(),
		Items:                items,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// MarkAsPaid 网关回调确认成功后流转到已支付。
// 这个方法只负责状态流转，不负责调用外部服务。
func (o *Order) MarkAsPaid() error {
	if o.State != StatePendingPayment && o.State != StateAwaitingConfirmation {
		return errors.New("order can only be paid from pending payment or awaiting confirmation state")
	}
	o.State = StatePaid
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel 取消订单。已支付的订单不能直接取消。
func (o *Order) Cancel() error {
	if o.State != StatePendingPayment && o.State != StateAwaitingConfirmation {
		return errors.New("only unpaid orders can be cancelled")
	}
	o.State = StateCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// Reject 人工审核未通过。
func (o *Order) Reject() error {
	if o.State != StateAwaitingConfirmation {
		return errors.New("only awaiting confirmation orders can be rejected")
	}
	o.State = StateNotApproved
	o.UpdatedAt = time.Now()
	return nil
}

// Return 已支付订单发起退货。
func (o *Order) Return() error {
	if o.State != StatePaid {
		return errors.New("only paid orders can be returned")
	}
	o.State = StateReturned
	o.UpdatedAt = time.Now()
	return nil
}
