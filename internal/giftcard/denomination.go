package giftcard

import (
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/giftcard-service/internal/supplier"
)

// NormalizePrice checks a requested unit price against a product's accepted
// denominations and returns the price that will be submitted to the supplier.
//
// Fixed-list products: an exact match passes through; anything else falls
// back to the first listed denomination. The fallback is deliberately lenient
// so a stale catalog price does not block fulfillment, at the cost of
// possibly charging a different face value than requested.
//
// Ranged products: out-of-bounds prices fail with *ValidationError. Pure
// function, no side effects beyond a warn log on the lenient fallback.
func NormalizePrice(requested int64, product *supplier.Product) (int64, error) {
	if len(product.FixedDenominations) > 0 {
		for _, d := range product.FixedDenominations {
			if d == requested {
				return requested, nil
			}
		}
		fallback := product.FixedDenominations[0]
		log.Warn().
			Str("product_id", product.ProductID).
			Int64("requested_price", requested).
			Int64("fallback_price", fallback).
			Msg("validator: requested price not in denomination list, using first denomination")
		return fallback, nil
	}

	if product.MinAmount != nil && product.MaxAmount != nil {
		if requested < *product.MinAmount || requested > *product.MaxAmount {
			return 0, &ValidationError{
				Reason:         "requested price out of range",
				RequestedPrice: requested,
				Min:            *product.MinAmount,
				Max:            *product.MaxAmount,
			}
		}
	}

	return requested, nil
}
