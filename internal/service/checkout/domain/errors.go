// internal/service/checkout/domain/errors.go
package domain

import "github.com/pkg/errors"

var (
	ErrNoOpenSession        = errors.New("no open checkout session")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrAddressNotFound      = errors.New("address not found")
	ErrDeliveryNotFound     = errors.New("delivery method not found")
	ErrShippingNotSelected  = errors.New("address and delivery must be selected first")
	ErrCouponAlreadyApplied = errors.New("coupon is invalid or already used")
	ErrOrderNotFound        = errors.New("order not found")
	ErrPaymentRejected      = errors.New("payment was rejected by the gateway")
	ErrCommitConflict       = errors.New("another checkout is in progress, please try again")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)
