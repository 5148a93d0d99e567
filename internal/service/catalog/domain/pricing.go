// internal/service/catalog/domain/pricing.go
package domain

import "time"

// Quote 是一条购物车条目在某一时刻的定价结果。
// 它是一个纯值对象：价格不落库，下单提交前随目录状态漂移。
type Quote struct {
	UnitPrice      int64 // 基础价 + 颜色增量 + 保修增量
	SaleDiscount   int64 // 生效限时折扣在单价上的让利，无折扣时为 0
	FinalUnitPrice int64 // UnitPrice - SaleDiscount
	Qty            int
	FinalLineTotal int64 // FinalUnitPrice * Qty

	AppliedSale *AmazingSale // 参与计算的折扣记录，用于下单时做快照
}

// PriceItem 计算一条购物车条目的报价。
// color、guarantee、sale 均可为 nil；sale 只有在给定时刻生效才参与计算。
func PriceItem(product *Product, color *Color, guarantee *Guarantee, sale *AmazingSale, qty int, now time.Time) Quote {
	unit := product.Price
	if color != nil {
		unit += color.PriceIncrease
	}
	if guarantee != nil {
		unit += guarantee.PriceIncrease
	}

	var discount int64
	var applied *AmazingSale
	if sale.ActiveAt(now) && sale.Percentage >= 0 && sale.Percentage <= 100 {
		discount = unit * sale.Percentage / 100
		applied = sale
	}

	finalUnit := unit - discount
	return Quote{
		UnitPrice:      unit,
		SaleDiscount:   discount,
		FinalUnitPrice: finalUnit,
		Qty:            qty,
		FinalLineTotal: finalUnit * int64(qty),
		AppliedSale:    applied,
	}
}
