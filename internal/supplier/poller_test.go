package supplier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	card *Card
	err  error
}

type scriptedFetcher struct {
	results []fetchResult
	calls   int
}

func (f *scriptedFetcher) GetCard(_ context.Context, transactionID string) (*Card, error) {
	if f.calls >= len(f.results) {
		return nil, &ProcessingError{TransactionID: transactionID}
	}
	res := f.results[f.calls]
	f.calls++
	return res.card, res.err
}

// testClock drives the poller's time seams: sleeps advance a fake clock
// instead of blocking, and each wait is recorded for assertion.
type testClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestPoller(fetcher CardFetcher, backoff Backoff, deadline time.Duration) (*Poller, *testClock) {
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	p := NewPoller(fetcher, backoff, deadline)
	p.sleep = clock.Sleep
	p.now = clock.Now
	return p, clock
}

func TestPoller_Await_RetriesUntilDelivered(t *testing.T) {
	card := &Card{CardNumber: "4111-0000", PinCode: "1234", ProductID: "p-1"}
	fetcher := &scriptedFetcher{results: []fetchResult{
		{err: &ProcessingError{TransactionID: "tx-1"}},
		{err: &ProcessingError{TransactionID: "tx-1"}},
		{card: card},
	}}

	p, clock := newTestPoller(fetcher, Backoff{Base: time.Second, Cap: 8 * time.Second}, time.Minute)

	got, err := p.Await(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, card, got)
	assert.Equal(t, 3, fetcher.calls)

	// wait = min(base * 1.5^attempt, cap)
	assert.Equal(t, []time.Duration{
		time.Second,
		1500 * time.Millisecond,
	}, clock.sleeps)
}

func TestPoller_Await_BackoffIsCapped(t *testing.T) {
	fetcher := &scriptedFetcher{}

	p, clock := newTestPoller(fetcher, Backoff{Base: 3 * time.Second, Cap: 5 * time.Second}, 30*time.Second)

	_, err := p.Await(context.Background(), "tx-1")
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))

	// 3s, 4.5s, then clamped to the cap for every later attempt.
	require.GreaterOrEqual(t, len(clock.sleeps), 3)
	assert.Equal(t, 3*time.Second, clock.sleeps[0])
	assert.Equal(t, 4500*time.Millisecond, clock.sleeps[1])
	for _, wait := range clock.sleeps[2:] {
		assert.Equal(t, 5*time.Second, wait)
	}
}

func TestPoller_Await_DeadlineExceeded(t *testing.T) {
	fetcher := &scriptedFetcher{}

	p, _ := newTestPoller(fetcher, Backoff{Base: 2 * time.Second, Cap: 8 * time.Second}, 10*time.Second)

	_, err := p.Await(context.Background(), "tx-1")
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "tx-1", timeoutErr.TransactionID)
	assert.GreaterOrEqual(t, timeoutErr.Elapsed, 10*time.Second)
	assert.Greater(t, timeoutErr.Attempts, 1)
}

func TestPoller_Await_FatalErrorAbortsImmediately(t *testing.T) {
	supErr := &Error{Status: 500, Code: "INTERNAL", Details: "supplier exploded"}
	fetcher := &scriptedFetcher{results: []fetchResult{{err: supErr}}}

	p, clock := newTestPoller(fetcher, Backoff{Base: time.Second, Cap: 8 * time.Second}, time.Minute)

	_, err := p.Await(context.Background(), "tx-1")
	var gotErr *Error
	require.True(t, errors.As(err, &gotErr))
	assert.Equal(t, 500, gotErr.Status)
	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, clock.sleeps, "fatal errors must not trigger backoff")
}

func TestPoller_Await_ContextCancelled(t *testing.T) {
	fetcher := &scriptedFetcher{}

	p := NewPoller(fetcher, Backoff{Base: time.Hour, Cap: time.Hour}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Await(ctx, "tx-1")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBackoffForMode(t *testing.T) {
	prod := BackoffForMode("production")
	sandbox := BackoffForMode("sandbox")
	assert.Less(t, prod.Base, sandbox.Base, "production polls faster than sandbox")
	assert.Less(t, prod.Cap, sandbox.Cap)
}
