package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWithShipping() *Session {
	s := &Session{ID: "s-1", UserID: 42, State: SessionOpen}
	s.ApplyShipping(testAddress(), testDelivery(), 1_890_000,
		&CommonDiscountSnapshot{DiscountID: 1, Percentage: 10, DiscountCeiling: 100_000}, 100_000)
	return s
}

func testItems() []OrderItem {
	return []OrderItem{{
		Product:        ProductSnapshot{ProductID: 7, Title: "phone", Price: 1_000_000},
		Qty:            2,
		UnitPrice:      1_050_000,
		SaleDiscount:   105_000,
		FinalUnitPrice: 945_000,
		FinalLineTotal: 1_890_000,
	}}
}

func TestNewOrderFromSession_StateFollowsMethod(t *testing.T) {
	tests := []struct {
		name   string
		method PaymentMethod
		state  OrderState
	}{
		{"online enters pending payment", OnlineMethod{}, StatePendingPayment},
		{"offline awaits confirmation", OfflineMethod{}, StateAwaitingConfirmation},
		{"cash is paid on creation", CashMethod{}, StatePaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrderFromSession("o-1", sessionWithShipping(), testItems(), tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.state, order.State)
		})
	}
}

func TestNewOrderFromSession_FreezesSessionAmounts(t *testing.T) {
	s := sessionWithShipping()
	require.NoError(t, s.ApplyCoupon(CouponSnapshot{CouponID: 1, Amount: 50_000, DiscountCeiling: 40_000}, 40_000))

	order, err := NewOrderFromSession("o-1", s, testItems(), OnlineMethod{})

	require.NoError(t, err)
	assert.Equal(t, int64(1_890_000), order.ItemsTotal)
	assert.Equal(t, int64(100_000), order.CommonDiscountAmount)
	assert.Equal(t, int64(1_790_000), order.OrderFinalAmount)
	assert.Equal(t, int64(40_000), order.CouponDiscountAmount)
	assert.Equal(t, int64(1_800_000), order.PayableAmount)
}

func TestNewOrderFromSession_Guards(t *testing.T) {
	_, err := NewOrderFromSession("", sessionWithShipping(), testItems(), CashMethod{})
	assert.Error(t, err)

	_, err = NewOrderFromSession("o-1", sessionWithShipping(), nil, CashMethod{})
	assert.Error(t, err)

	noShipping := &Session{ID: "s-2", UserID: 42, State: SessionOpen}
	_, err = NewOrderFromSession("o-1", noShipping, testItems(), CashMethod{})
	assert.ErrorIs(t, err, ErrShippingNotSelected)
}

func TestOrderTransitions(t *testing.T) {
	t.Run("pending payment to paid", func(t *testing.T) {
		order := &Order{State: StatePendingPayment}
		require.NoError(t, order.MarkAsPaid())
		assert.Equal(t, StatePaid, order.State)
	})

	t.Run("awaiting confirmation to paid", func(t *testing.T) {
		order := &Order{State: StateAwaitingConfirmation}
		require.NoError(t, order.MarkAsPaid())
		assert.Equal(t, StatePaid, order.State)
	})

	t.Run("paid cannot be paid again", func(t *testing.T) {
		order := &Order{State: StatePaid}
		assert.Error(t, order.MarkAsPaid())
	})

	t.Run("unpaid can be cancelled", func(t *testing.T) {
		order := &Order{State: StatePendingPayment}
		require.NoError(t, order.Cancel())
		assert.Equal(t, StateCancelled, order.State)
	})

	t.Run("paid cannot be cancelled", func(t *testing.T) {
		order := &Order{State: StatePaid}
		assert.Error(t, order.Cancel())
	})

	t.Run("reject only from awaiting confirmation", func(t *testing.T) {
		order := &Order{State: StateAwaitingConfirmation}
		require.NoError(t, order.Reject())
		assert.Equal(t, StateNotApproved, order.State)
		assert.Error(t, (&Order{State: StatePendingPayment}).Reject())
	})

	t.Run("return only from paid", func(t *testing.T) {
		order := &Order{State: StatePaid}
		require.NoError(t, order.Return())
		assert.Equal(t, StateReturned, order.State)
		assert.Error(t, (&Order{State: StateCancelled}).Return())
	})
}

func TestNewPayment_CashSettlesImmediately(t *testing.T) {
	p := NewPayment("p-1", "o-1", 1_800_000, CashMethod{})

	assert.Equal(t, PaymentSucceeded, p.Status)
	require.NotNil(t, p.PaidAt)
}

func TestNewPayment_OnlineStartsPending(t *testing.T) {
	p := NewPayment("p-1", "o-1", 1_800_000, OnlineMethod{GatewayAuthority: "A-001"})

	assert.Equal(t, PaymentPending, p.Status)
	assert.Nil(t, p.PaidAt)
}

func TestPaymentMarkSucceeded_WritesRefID(t *testing.T) {
	p := NewPayment("p-1", "o-1", 1_800_000, OnlineMethod{GatewayAuthority: "A-001"})
	paidAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	p.MarkSucceeded("REF-42", paidAt)

	assert.Equal(t, PaymentSucceeded, p.Status)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, paidAt, *p.PaidAt)
	m, ok := p.Method.(OnlineMethod)
	require.True(t, ok)
	assert.Equal(t, "REF-42", m.RefID)
	assert.Equal(t, "A-001", m.GatewayAuthority)
}

func TestPaymentMarkFailed(t *testing.T) {
	p := NewPayment("p-1", "o-1", 1_800_000, OnlineMethod{GatewayAuthority: "A-001"})

	p.MarkFailed()

	assert.Equal(t, PaymentFailed, p.Status)
	assert.Nil(t, p.PaidAt)
}
