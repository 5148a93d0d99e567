package port

import "context"

// PaymentInitResult 是发起线上支付的返回。Authority 用于重定向用户到网关。
type PaymentInitResult struct {
	Authority   string
	RedirectURL string
}

// PaymentVerifyResult 是回调验证的返回。RefID 是网关交易号。
type PaymentVerifyResult struct {
	RefID string
}

// PaymentGateway 是线上支付网关的出站端口。
// 它封装了所有与外部网关通信的技术细节。
type PaymentGateway interface {
	// RequestPayment 向网关申请一笔支付，金额为最小货币单位。
	RequestPayment(ctx context.Context, amount int64, orderID, callbackURL string) (*PaymentInitResult, error)

	// VerifyPayment 回调后向网关二次确认支付结果。
	// 网关拒绝时返回 domain.ErrPaymentRejected。
	VerifyPayment(ctx context.Context, amount int64, authority string) (*PaymentVerifyResult, error)

	// ReversePayment 作废一笔已发起但不会完成的支付，
	// 用于提交链路在网关之后失败时的补偿。
	ReversePayment(ctx context.Context, authority string) error
}
