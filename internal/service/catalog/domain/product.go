// internal/service/catalog/domain/product.go
package domain

import "time"

// ProductStatus 标识商品是否可售。
type ProductStatus int

const (
	ProductInactive ProductStatus = 0
	ProductActive   ProductStatus = 1
)

// Product 是商品目录中的可变实体。
// 价格以最小货币单位表示（int64），避免浮点误差。
type Product struct {
	ID            int64
	Title         string
	Price         int64
	MarketableQty int
	Status        ProductStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Color 是商品的可选颜色，附带一个价格增量。
type Color struct {
	ID            int64
	ProductID     int64
	Name          string
	PriceIncrease int64
}

// Guarantee 是商品的可选保修方案，附带一个价格增量。
type Guarantee struct {
	ID            int64
	Name          string
	PriceIncrease int64
}
