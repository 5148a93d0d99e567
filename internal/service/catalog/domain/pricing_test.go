package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var priceNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func activeSale(pct int64) *AmazingSale {
	return &AmazingSale{
		ID:         7,
		ProductID:  1,
		Percentage: pct,
		StartDate:  priceNow.Add(-24 * time.Hour),
		EndDate:    priceNow.Add(24 * time.Hour),
		Status:     SaleActive,
	}
}

func TestPriceItem_WithColorAndActiveSale(t *testing.T) {
	product := &Product{ID: 1, Price: 1_000_000, Status: ProductActive}
	color := &Color{ID: 2, ProductID: 1, PriceIncrease: 50_000}

	quote := PriceItem(product, color, nil, activeSale(10), 2, priceNow)

	assert.Equal(t, int64(1_050_000), quote.UnitPrice)
	assert.Equal(t, int64(105_000), quote.SaleDiscount)
	assert.Equal(t, int64(945_000), quote.FinalUnitPrice)
	assert.Equal(t, int64(1_890_000), quote.FinalLineTotal)
	assert.NotNil(t, quote.AppliedSale)
}

func TestPriceItem_GuaranteeIncreaseAddsToUnit(t *testing.T) {
	product := &Product{ID: 1, Price: 500_000}
	guarantee := &Guarantee{ID: 3, PriceIncrease: 30_000}

	quote := PriceItem(product, nil, guarantee, nil, 1, priceNow)

	assert.Equal(t, int64(530_000), quote.UnitPrice)
	assert.Zero(t, quote.SaleDiscount)
	assert.Equal(t, int64(530_000), quote.FinalLineTotal)
	assert.Nil(t, quote.AppliedSale)
}

func TestPriceItem_NoSale(t *testing.T) {
	product := &Product{ID: 1, Price: 1_000_000}

	quote := PriceItem(product, nil, nil, nil, 3, priceNow)

	assert.Equal(t, int64(1_000_000), quote.FinalUnitPrice)
	assert.Equal(t, int64(3_000_000), quote.FinalLineTotal)
}

func TestPriceItem_InactiveSaleIgnored(t *testing.T) {
	product := &Product{ID: 1, Price: 1_000_000}
	sale := activeSale(10)
	sale.Status = SaleInactive

	quote := PriceItem(product, nil, nil, sale, 1, priceNow)

	assert.Zero(t, quote.SaleDiscount)
	assert.Nil(t, quote.AppliedSale)
}

func TestPriceItem_PercentageOutOfRangeIgnored(t *testing.T) {
	product := &Product{ID: 1, Price: 1_000_000}
	sale := activeSale(120)

	quote := PriceItem(product, nil, nil, sale, 1, priceNow)

	assert.Zero(t, quote.SaleDiscount)
	assert.Equal(t, int64(1_000_000), quote.FinalUnitPrice)
}

func TestAmazingSale_WindowEdgesAreInclusive(t *testing.T) {
	sale := &AmazingSale{
		Percentage: 10,
		StartDate:  priceNow,
		EndDate:    priceNow.Add(time.Hour),
		Status:     SaleActive,
	}

	assert.True(t, sale.ActiveAt(priceNow), "start instant is inside the window")
	assert.True(t, sale.ActiveAt(priceNow.Add(time.Hour)), "end instant is inside the window")
	assert.False(t, sale.ActiveAt(priceNow.Add(time.Hour+time.Second)))
	assert.False(t, sale.ActiveAt(priceNow.Add(-time.Second)))
}

func TestAmazingSale_NilIsNeverActive(t *testing.T) {
	var sale *AmazingSale
	assert.False(t, sale.ActiveAt(priceNow))
}
