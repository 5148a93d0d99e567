// internal/service/checkout/infrastructure/models.go
package infrastructure

import "time"

// SessionModel 对应 checkout_sessions 表。
// (user_id, open_flag) 上的唯一索引保证每个用户至多一个 OPEN 会话：
// OPEN 时 open_flag=1，提交后置 NULL，让出唯一键。
type SessionModel struct {
	ID       string `gorm:"primaryKey;size:36"`
	UserID   int64  `gorm:"index;uniqueIndex:uk_user_open,priority:1"`
	OpenFlag *int8  `gorm:"uniqueIndex:uk_user_open,priority:2"`
	State    string `gorm:"size:16"`

	AddressJSON        *string `gorm:"column:address_json;type:json"`
	DeliveryJSON       *string `gorm:"column:delivery_json;type:json"`
	CommonDiscountJSON *string `gorm:"column:common_discount_json;type:json"`
	CouponJSON         *string `gorm:"column:coupon_json;type:json"`

	ItemsTotal           int64
	CommonDiscountAmount int64
	OrderFinalAmount     int64
	CouponDiscountAmount int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SessionModel) TableName() string {
	return "checkout_sessions"
}

// OrderModel 对应 orders 表。快照列是提交时刻的 JSON 定格。
type OrderModel struct {
	ID     string `gorm:"primaryKey;size:36"`
	UserID int64  `gorm:"index"`
	State  string `gorm:"size:32;index"`

	AddressJSON        string  `gorm:"column:address_json;type:json"`
	DeliveryJSON       string  `gorm:"column:delivery_json;type:json"`
	CommonDiscountJSON *string `gorm:"column:common_discount_json;type:json"`
	CouponJSON         *string `gorm:"column:coupon_json;type:json"`

	ItemsTotal           int64
	CommonDiscountAmount int64
	OrderFinalAmount     int64
	CouponDiscountAmount int64
	PayableAmount        int64

	Items []OrderItemModel `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应 order_items 表。
type OrderItemModel struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	OrderID string `gorm:"index;size:36"`

	ProductJSON   string  `gorm:"column:product_json;type:json"`
	ColorJSON     *string `gorm:"column:color_json;type:json"`
	GuaranteeJSON *string `gorm:"column:guarantee_json;type:json"`
	SaleJSON      *string `gorm:"column:sale_json;type:json"`

	Qty            int64
	UnitPrice      int64
	SaleDiscount   int64
	FinalUnitPrice int64
	FinalLineTotal int64
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// PaymentModel 对应 payments 表。
// 支付方式持久化为 kind 列加 JSON 明细，读取时还原成具体类型。
type PaymentModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	OrderID     string `gorm:"index;size:36"`
	Amount      int64
	Status      string `gorm:"size:16"`
	MethodKind  string `gorm:"size:16"`
	MethodJSON  string `gorm:"column:method_json;type:json"`

	// 线上支付的网关凭据，回调按它定位支付记录
	GatewayAuthority *string `gorm:"index;size:64"`

	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PaymentModel) TableName() string {
	return "payments"
}

// AddressModel 对应 addresses 表，结算侧只读。
type AddressModel struct {
	ID         int64 `gorm:"primaryKey"`
	UserID     int64 `gorm:"index"`
	Province   string
	City       string
	PostalCode string
	Detail     string
	Recipient  string
	Mobile     string
}

func (AddressModel) TableName() string {
	return "addresses"
}

// DeliveryModel 对应 deliveries 表，结算侧只读。
type DeliveryModel struct {
	ID     int64 `gorm:"primaryKey"`
	Title  string
	Amount int64
	Status int64
}

func (DeliveryModel) TableName() string {
	return "deliveries"
}
