package giftcard

import (
	"context"

	"github.com/rs/zerolog/log"
)

// genericInstructions is the last resort when neither the card payload nor
// the supplier's per-product endpoint has anything to say.
const genericInstructions = `1. Go to the retailer's gift card redemption page.
2. Sign in or create an account.
3. Enter the redemption code (and PIN, if provided).
4. The card balance is credited to your account immediately.`

type instructionFetcher interface {
	RedeemInstructions(ctx context.Context, productID string) (string, error)
}

// resolveInstructions picks redemption instructions by precedence: the card
// payload itself, then the supplier's per-product endpoint, then the generic
// template. It never fails; a missing instruction set always degrades to the
// template instead of aborting fulfillment.
func resolveInstructions(ctx context.Context, fetcher instructionFetcher, productID, fromCard string) string {
	if fromCard != "" {
		return fromCard
	}

	content, err := fetcher.RedeemInstructions(ctx, productID)
	if err != nil {
		log.Debug().
			Err(err).
			Str("product_id", productID).
			Msg("instructions: per-product lookup failed, using generic template")
		return genericInstructions
	}
	if content != "" {
		return content
	}

	return genericInstructions
}
