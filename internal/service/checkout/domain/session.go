// internal/service/checkout/domain/session.go
package domain

import "time"

// SessionState 定义了结算会话的生命周期状态。
type SessionState string

const (
	SessionOpen      SessionState = "OPEN"      // 用户正在结算流程中
	SessionCommitted SessionState = "COMMITTED" // 已生成订单，会话关闭
)

// Session 是一次结算的显式状态对象。
// 它取代了"以 order_status=0 的订单行当草稿"的隐式写法：
// 地址、折扣、券各阶段都作用在同一个会话上，提交时一次性转成订单。
// 每个用户同一时刻至多一个 OPEN 会话（数据库唯一键保证）。
type Session struct {
	ID     string // uuid
	UserID int64
	State  SessionState

	// 配送阶段写入
	Address  *AddressSnapshot
	Delivery *DeliverySnapshot

	// 金额链路。折扣叠加顺序是对外承诺的一部分：
	// ItemsTotal 先扣全场折扣得到 OrderFinalAmount（不含运费），
	// 券让利在 OrderFinalAmount 加回运费之后再扣。
	ItemsTotal           int64
	CommonDiscount       *CommonDiscountSnapshot
	CommonDiscountAmount int64
	OrderFinalAmount     int64

	// 券阶段写入
	Coupon               *CouponSnapshot
	CouponDiscountAmount int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShippingSelected 判断配送阶段是否已完成。
func (s *Session) ShippingSelected() bool {
	return s.Address != nil && s.Delivery != nil
}

// HasCoupon 判断会话是否已经应用过券。
func (s *Session) HasCoupon() bool {
	return s.Coupon != nil
}

// ApplyShipping 写入配送选择并重算折扣金额链路。
// 重复调用会覆盖之前的选择（同一会话，不新建）。
func (s *Session) ApplyShipping(address AddressSnapshot, delivery DeliverySnapshot,
	itemsTotal int64, discount *CommonDiscountSnapshot, discountAmount int64) {
	s.Address = &address
	s.Delivery = &delivery
	s.ItemsTotal = itemsTotal
	s.CommonDiscount = discount
	s.CommonDiscountAmount = discountAmount
	s.OrderFinalAmount = itemsTotal - discountAmount
}

// ApplyCoupon 把券让利写入会话。调用方负责前置校验。
func (s *Session) ApplyCoupon(coupon CouponSnapshot, discountAmount int64) error {
	if !s.ShippingSelected() {
		return ErrShippingNotSelected
	}
	if s.HasCoupon() {
		return ErrCouponAlreadyApplied
	}
	s.Coupon = &coupon
	s.CouponDiscountAmount = discountAmount
	return nil
}

// PayableAmount 计算当前会话的应付金额。
// 运费不参与全场折扣和券的折扣基数，在这里加回。
func (s *Session) PayableAmount() int64 {
	var delivery int64
	if s.Delivery != nil {
		delivery = s.Delivery.Amount
	}
	return s.OrderFinalAmount + delivery - s.CouponDiscountAmount
}
