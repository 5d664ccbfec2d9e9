package supplier

import (
	"fmt"
	"time"
)

// Error is a definitive non-2xx answer from the supplier API. It carries
// enough of the response to diagnose the failure without re-fetching.
type Error struct {
	Status  int
	Code    string
	Details string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supplier: request failed with status %d (code %s): %s", e.Status, e.Code, e.Details)
	}
	return fmt.Sprintf("supplier: request failed with status %d: %s", e.Status, e.Details)
}

// ProcessingError means the supplier accepted the order but has not issued
// the card yet. Callers retry; only the poller's deadline turns it fatal.
type ProcessingError struct {
	TransactionID string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("supplier: transaction %s is still processing", e.TransactionID)
}

// TimeoutError is raised when the polling deadline elapses before the
// supplier delivers a card.
type TimeoutError struct {
	TransactionID string
	Elapsed       time.Duration
	Attempts      int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("supplier: gave up waiting for transaction %s after %s (%d attempts)",
		e.TransactionID, e.Elapsed, e.Attempts)
}
