package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() AddressSnapshot {
	return AddressSnapshot{AddressID: 1, City: "Tehran", Recipient: "A. Customer"}
}

func testDelivery() DeliverySnapshot {
	return DeliverySnapshot{DeliveryID: 2, Title: "express", Amount: 50_000}
}

func openSession() *Session {
	return &Session{ID: "s-1", UserID: 42, State: SessionOpen}
}

func TestSessionApplyShipping_ComputesOrderFinal(t *testing.T) {
	s := openSession()

	s.ApplyShipping(testAddress(), testDelivery(), 1_890_000,
		&CommonDiscountSnapshot{DiscountID: 1, Percentage: 10, DiscountCeiling: 100_000}, 100_000)

	assert.Equal(t, int64(1_890_000), s.ItemsTotal)
	assert.Equal(t, int64(100_000), s.CommonDiscountAmount)
	// 运费不参与全场折扣基数
	assert.Equal(t, int64(1_790_000), s.OrderFinalAmount)
	assert.True(t, s.ShippingSelected())
}

func TestSessionApplyShipping_OverwritesPreviousSelection(t *testing.T) {
	s := openSession()
	s.ApplyShipping(testAddress(), testDelivery(), 1_890_000, nil, 0)

	cheaper := DeliverySnapshot{DeliveryID: 3, Title: "standard", Amount: 20_000}
	s.ApplyShipping(testAddress(), cheaper, 2_000_000, nil, 0)

	assert.Equal(t, int64(3), s.Delivery.DeliveryID)
	assert.Equal(t, int64(2_000_000), s.OrderFinalAmount)
}

func TestSessionApplyCoupon_RequiresShipping(t *testing.T) {
	s := openSession()

	err := s.ApplyCoupon(CouponSnapshot{CouponID: 1}, 40_000)

	assert.ErrorIs(t, err, ErrShippingNotSelected)
}

func TestSessionApplyCoupon_OnlyOnce(t *testing.T) {
	s := openSession()
	s.ApplyShipping(testAddress(), testDelivery(), 1_890_000, nil, 0)

	require.NoError(t, s.ApplyCoupon(CouponSnapshot{CouponID: 1}, 40_000))
	err := s.ApplyCoupon(CouponSnapshot{CouponID: 2}, 10_000)

	assert.ErrorIs(t, err, ErrCouponAlreadyApplied)
	assert.Equal(t, int64(1), s.Coupon.CouponID)
}

func TestSessionPayableAmount_DeliveryAddedBackBeforeCouponSubtract(t *testing.T) {
	s := openSession()
	s.ApplyShipping(testAddress(), testDelivery(), 1_890_000,
		&CommonDiscountSnapshot{DiscountID: 1, Percentage: 10, DiscountCeiling: 100_000}, 100_000)
	require.NoError(t, s.ApplyCoupon(CouponSnapshot{CouponID: 1, Amount: 50_000, DiscountCeiling: 40_000}, 40_000))

	// (1,890,000 - 100,000) + 50,000 - 40,000
	assert.Equal(t, int64(1_800_000), s.PayableAmount())
}

func TestSessionPayableAmount_NoDeliveryNoCoupon(t *testing.T) {
	s := openSession()
	s.ItemsTotal = 1_000_000
	s.OrderFinalAmount = 1_000_000

	assert.Equal(t, int64(1_000_000), s.PayableAmount())
}

func TestCouponSnapshotDiscountFor_RecomputedAgainstNewBase(t *testing.T) {
	pct := &CouponSnapshot{Amount: 10, AmountType: 1, DiscountCeiling: 1_000_000}
	assert.Equal(t, int64(179_000), pct.DiscountFor(1_790_000))

	flat := &CouponSnapshot{Amount: 50_000, AmountType: 0, DiscountCeiling: 40_000}
	assert.Equal(t, int64(40_000), flat.DiscountFor(1_790_000))
}

func TestCommonDiscountSnapshotAppliedAmount(t *testing.T) {
	snap := &CommonDiscountSnapshot{Percentage: 10, DiscountCeiling: 100_000, MinimalOrderAmount: 500_000}

	assert.Equal(t, int64(100_000), snap.AppliedAmount(1_890_000))
	assert.Equal(t, int64(80_000), snap.AppliedAmount(800_000))
	assert.Zero(t, snap.AppliedAmount(400_000))
}
