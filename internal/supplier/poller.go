package supplier

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/giftcard-service/internal/config"
)

// CardFetcher is the slice of the supplier client the poller needs.
type CardFetcher interface {
	GetCard(ctx context.Context, transactionID string) (*Card, error)
}

// Backoff parameterizes the poll interval: wait = min(Base * 1.5^attempt, Cap).
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// BackoffForMode returns the polling profile for a supplier environment.
// The sandbox fulfills orders much slower than production, so it gets a
// longer base interval to avoid hammering the endpoint with useless polls.
func BackoffForMode(mode string) Backoff {
	if mode == config.SupplierModeProduction {
		return Backoff{Base: time.Second, Cap: 8 * time.Second}
	}
	return Backoff{Base: 3 * time.Second, Cap: 20 * time.Second}
}

// Poller drives the supplier's asynchronous fulfillment to completion. The
// supplier offers no push notification, so polling with capped exponential
// backoff under a wall-clock deadline is the only way to bound both latency
// and request volume.
type Poller struct {
	cards    CardFetcher
	backoff  Backoff
	deadline time.Duration

	// test seams
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewPoller(cards CardFetcher, backoff Backoff, deadline time.Duration) *Poller {
	return &Poller{
		cards:    cards,
		backoff:  backoff,
		deadline: deadline,
		sleep:    sleepCtx,
		now:      time.Now,
	}
}

// Await polls until the supplier delivers a card, a non-retryable error
// occurs, or the deadline elapses. A still-processing answer is absorbed and
// retried; it only surfaces as *TimeoutError once the deadline is spent.
func (p *Poller) Await(ctx context.Context, transactionID string) (*Card, error) {
	start := p.now()

	for attempt := 0; ; attempt++ {
		card, err := p.cards.GetCard(ctx, transactionID)
		if err == nil {
			log.Info().
				Str("transaction_id", transactionID).
				Int("attempts", attempt+1).
				Dur("elapsed", p.now().Sub(start)).
				Msg("poller: card delivered")
			return card, nil
		}

		var procErr *ProcessingError
		if !errors.As(err, &procErr) {
			return nil, err
		}

		elapsed := p.now().Sub(start)
		if elapsed >= p.deadline {
			log.Warn().
				Str("transaction_id", transactionID).
				Int("attempts", attempt+1).
				Dur("elapsed", elapsed).
				Msg("poller: deadline exceeded")
			return nil, &TimeoutError{
				TransactionID: transactionID,
				Elapsed:       elapsed,
				Attempts:      attempt + 1,
			}
		}

		wait := p.waitFor(attempt)
		log.Debug().
			Str("transaction_id", transactionID).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("poller: card not ready, backing off")

		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (p *Poller) waitFor(attempt int) time.Duration {
	wait := time.Duration(float64(p.backoff.Base) * math.Pow(1.5, float64(attempt)))
	if wait > p.backoff.Cap {
		wait = p.backoff.Cap
	}
	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
