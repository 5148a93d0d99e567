// internal/service/checkout/domain/payment.go
package domain

import "time"

// PaymentStatus 定义了支付记录的状态
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"   // 已发起，结果未知
	PaymentSucceeded PaymentStatus = "SUCCEEDED" // 网关/人工确认到账
	PaymentFailed    PaymentStatus = "FAILED"    // 网关拒绝或验证失败
)

// PaymentMethod 是支付方式的封闭和类型。
// 线上支付携带网关字段，线下和货到付款没有多余状态，
// 用类型区分而不是用一排可空列。
type PaymentMethod interface {
	// MethodKind 返回用于持久化与路由的方式标识
	MethodKind() string
}

// OnlineMethod 线上网关支付。Authority 是发起支付时网关返回的凭据，
// RefID 是回调验证成功后网关给的交易号。
type OnlineMethod struct {
	GatewayAuthority string `json:"gateway_authority"`
	RefID            string `json:"ref_id,omitempty"`
}

// OfflineMethod 线下转账，等待人工核账。
type OfflineMethod struct {
	ReceiptNote string `json:"receipt_note,omitempty"`
}

// CashMethod 货到付款，收款时由配送员登记。
type CashMethod struct {
	RegisterNote string `json:"register_note,omitempty"`
}

const (
	MethodKindOnline  = "ONLINE"
	MethodKindOffline = "OFFLINE"
	MethodKindCash    = "CASH"
)

func (OnlineMethod) MethodKind() string  { return MethodKindOnline }
func (OfflineMethod) MethodKind() string { return MethodKindOffline }
func (CashMethod) MethodKind() string    { return MethodKindCash }

// Payment 是一笔支付记录。一个订单只有一笔有效支付。
type Payment struct {
	ID      string // uuid
	OrderID string
	Amount  int64
	Status  PaymentStatus
	Method  PaymentMethod
	PaidAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment 工厂函数: 按支付方式生成初始支付记录。
// 线上等待回调、线下等待人工核账，只有货到付款在下单时即视为收讫。
func NewPayment(id, orderID string, amount int64, method PaymentMethod) *Payment {
	now := time.Now()
	p := &Payment{
		ID:        id,
		OrderID:   orderID,
		Amount:    amount,
		Status:    PaymentPending,
		Method:    method,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, ok := method.(CashMethod); ok {
		p.Status = PaymentSucceeded
		p.PaidAt = &now
	}
	return p
}

// MarkSucceeded 记录网关回调验证成功。refID 是网关交易号。
func (p *Payment) MarkSucceeded(refID string, paidAt time.Time) {
	if m, ok := p.Method.(OnlineMethod); ok {
		m.RefID = refID
		p.Method = m
	}
	p.Status = PaymentSucceeded
	p.PaidAt = &paidAt
	p.UpdatedAt = time.Now()
}

// MarkFailed 记录支付失败。
func (p *Payment) MarkFailed() {
	p.Status = PaymentFailed
	p.UpdatedAt = time.Now()
}
