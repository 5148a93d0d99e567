// internal/service/checkout/domain/repository.go
package domain

import "context"

// Address 是用户收货地址。目录由结算服务只读访问。
type Address struct {
	ID         int64
	UserID     int64
	Province   string
	City       string
	PostalCode string
	Detail     string
	Recipient  string
	Mobile     string
}

// Delivery 是可选的配送方式。
type Delivery struct {
	ID     int64
	Title  string
	Amount int64
	Status int64 // 1 可用
}

// SessionRepository 定义了结算会话的持久化接口。
// 它位于领域层，但由基础设施层实现。
type SessionRepository interface {
	// Upsert 保存会话。同一用户的 OPEN 会话复用同一行，
	// 并发创建由唯一键兜底。
	Upsert(ctx context.Context, session *Session) error

	// UpsertConsumingCoupon 在同一个事务内保存会话并核销一张单次券。
	// 券已被占用时返回 promotion 侧的已占用错误，会话不落库。
	UpsertConsumingCoupon(ctx context.Context, session *Session, couponID int64) error

	// FindOpenByUser 查找用户当前的 OPEN 会话。
	// 不存在时返回 ErrNoOpenSession。
	FindOpenByUser(ctx context.Context, userID int64) (*Session, error)
}

// OrderRepository 定义了订单聚合的持久化接口。
type OrderRepository interface {
	// FindByID 根据 ID 查找订单聚合（含订单行）。
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByUser 查询用户的订单列表，按创建时间倒序。
	FindByUser(ctx context.Context, userID int64) ([]*Order, error)

	// UpdateState 更新订单状态。
	UpdateState(ctx context.Context, id string, state OrderState) error
}

// PaymentRepository 定义了支付记录的持久化接口。
type PaymentRepository interface {
	// FindByOrderID 查找订单对应的支付记录。
	FindByOrderID(ctx context.Context, orderID string) (*Payment, error)

	// FindByAuthority 根据网关凭据定位支付记录（回调入口用）。
	// 找不到返回 ErrOrderNotFound。
	FindByAuthority(ctx context.Context, authority string) (*Payment, error)

	// Update 更新支付记录（回调后写入结果）。
	Update(ctx context.Context, payment *Payment) error
}

// AddressDirectory 是收货地址目录的只读接口。
type AddressDirectory interface {
	// FindAddress 查找属于该用户的地址，找不到返回 ErrAddressNotFound。
	FindAddress(ctx context.Context, addressID, userID int64) (*Address, error)
}

// DeliveryDirectory 是配送方式目录的只读接口。
type DeliveryDirectory interface {
	// FindDelivery 查找可用的配送方式，找不到返回 ErrDeliveryNotFound。
	FindDelivery(ctx context.Context, deliveryID int64) (*Delivery, error)
}
