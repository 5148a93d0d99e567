// internal/service/checkout/domain/snapshot.go
package domain

import "time"

// 本文件里的快照都是下单时刻冻结的值对象：
// 被引用的目录/地址/优惠实体之后怎么改，都不影响已生成的订单。

// AddressSnapshot 冻结收货地址。
type AddressSnapshot struct {
	AddressID  int64  `json:"address_id"`
	Province   string `json:"province"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Detail     string `json:"detail"`
	Recipient  string `json:"recipient"`
	Mobile     string `json:"mobile"`
}

// DeliverySnapshot 冻结配送方式及其费用。
type DeliverySnapshot struct {
	DeliveryID int64  `json:"delivery_id"`
	Title      string `json:"title"`
	Amount     int64  `json:"amount"`
}

// CommonDiscountSnapshot 冻结参与结算的全场折扣。
type CommonDiscountSnapshot struct {
	DiscountID         int64 `json:"discount_id"`
	Percentage         int64 `json:"percentage"`
	DiscountCeiling    int64 `json:"discount_ceiling"`
	MinimalOrderAmount int64 `json:"minimal_order_amount"`
}

// CouponSnapshot 冻结参与结算的优惠券。
type CouponSnapshot struct {
	CouponID        int64  `json:"coupon_id"`
	Code            string `json:"code"`
	Amount          int64  `json:"amount"`
	AmountType      int    `json:"amount_type"`
	DiscountCeiling int64  `json:"discount_ceiling"`
	SingleUse       bool   `json:"single_use"`
}

// AppliedAmount 用提交时刻的商品总额重算全场折扣让利。
// 低于门槛不享受，让利不超过上限。
func (d *CommonDiscountSnapshot) AppliedAmount(itemsTotal int64) int64 {
	if itemsTotal < d.MinimalOrderAmount {
		return 0
	}
	amount := itemsTotal * d.Percentage / 100
	if amount > d.DiscountCeiling {
		amount = d.DiscountCeiling
	}
	return amount
}

// DiscountFor 用提交时刻的基数重算券让利。上限对两种券类型都生效。
func (c *CouponSnapshot) DiscountFor(base int64) int64 {
	amount := c.Amount
	if c.AmountType == 1 {
		amount = base * c.Amount / 100
	}
	if amount > c.DiscountCeiling {
		amount = c.DiscountCeiling
	}
	return amount
}

// ProductSnapshot 冻结商品在下单时刻的状态。
type ProductSnapshot struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
}

// ColorSnapshot 冻结所选颜色及其加价。
type ColorSnapshot struct {
	ColorID       int64  `json:"color_id"`
	Name          string `json:"name"`
	PriceIncrease int64  `json:"price_increase"`
}

// GuaranteeSnapshot 冻结所选质保及其加价。
type GuaranteeSnapshot struct {
	GuaranteeID   int64  `json:"guarantee_id"`
	Name          string `json:"name"`
	PriceIncrease int64  `json:"price_increase"`
}

// SaleSnapshot 冻结参与计价的限时折扣。
type SaleSnapshot struct {
	SaleID     int64     `json:"sale_id"`
	Percentage int64     `json:"percentage"`
	EndDate    time.Time `json:"end_date"`
}
