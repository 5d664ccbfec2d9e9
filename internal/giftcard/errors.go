package giftcard

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrOrderAlreadyCompleted   = errors.New("order is already completed")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	// ErrRedemptionNotAvailable means neither the cached metadata nor the
	// live supplier path could produce a redemption code. Callers report it
	// as-is rather than fabricating a code.
	ErrRedemptionNotAvailable = errors.New("redemption details not available")
)

// ValidationError aborts a fulfillment before any supplier call is made.
type ValidationError struct {
	Reason         string
	RequestedPrice int64
	Min            int64
	Max            int64
}

func (e *ValidationError) Error() string {
	if e.Min != 0 || e.Max != 0 {
		return fmt.Sprintf("validation: requested price %d is outside the accepted range [%d, %d]",
			e.RequestedPrice, e.Min, e.Max)
	}
	return "validation: " + e.Reason
}
