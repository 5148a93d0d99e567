// internal/service/cart/application/dto.go
package application

import (
	catalogdomain "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/cart/domain"
)

// AddItemRequest 是加车用例的输入数据
type AddItemRequest struct {
	UserID      int64  `json:"user_id"`
	ProductID   int64  `json:"product_id"`
	ColorID     *int64 `json:"color_id,omitempty"`
	GuaranteeID *int64 `json:"guarantee_id,omitempty"`
	Qty         int    `json:"qty"`
}

// PricedLine 是一条带实时报价的购物车记录。
type PricedLine struct {
	Item      *domain.Item
	Product   *catalogdomain.Product
	Color     *catalogdomain.Color
	Guarantee *catalogdomain.Guarantee
	Quote     catalogdomain.Quote
}

// CartSummary 聚合了购物车的所有行和总价。
type CartSummary struct {
	Lines      []PricedLine
	ItemsTotal int64
}
