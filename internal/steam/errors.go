package steam

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoHistory marks an item the marketplace permanently has no
// history for. Not retryable; the item is skipped for the cycle
// without burning retries.
var ErrNoHistory = errors.New("no history available for item")

// ErrMalformedResponse marks a response that could not be decoded.
// The payload is discarded and nothing is written.
var ErrMalformedResponse = errors.New("malformed marketplace response")

// ThrottledError is returned when the marketplace answers 429. The
// caller must penalize the budget and requeue rather than retry.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("throttled by marketplace, retry after %s", e.RetryAfter)
	}
	return "throttled by marketplace"
}

// BudgetDeniedError is returned when the local request budget has no
// slot for the call. Wait is the budget's hint for when to try again.
type BudgetDeniedError struct {
	Scope     string
	Operation string
	Wait      time.Duration
}

func (e *BudgetDeniedError) Error() string {
	return fmt.Sprintf("request budget exhausted for %s/%s, retry in %s", e.Scope, e.Operation, e.Wait)
}

// IsThrottled reports whether err is a marketplace throttle and
// returns the server's retry hint when present.
func IsThrottled(err error) (time.Duration, bool) {
	var te *ThrottledError
	if errors.As(err, &te) {
		return te.RetryAfter, true
	}
	return 0, false
}

// IsBudgetDenied reports whether err is a local budget denial and
// returns the wait hint.
func IsBudgetDenied(err error) (time.Duration, bool) {
	var be *BudgetDeniedError
	if errors.As(err, &be) {
		return be.Wait, true
	}
	return 0, false
}
