// Package ratelimit implements the shared request budget: sliding
// request-count windows per scope and operation, a rolling daily cap,
// and exponential throttle penalties.
package ratelimit

import (
	"time"
)

// Penalty backoff bounds. A throttle response starts at penaltyBase and
// doubles on each repeat, capped at penaltyMax. The backoff resets
// after a sustained run of clean grants.
const (
	defaultPenaltyBase = time.Minute
	defaultPenaltyMax  = 5 * time.Minute

	// Grants needed with no intervening penalty before the backoff
	// level resets to the base.
	penaltyResetStreak = 10
)

// window is a sliding-log rate window: at most maxRequests grant
// timestamps may fall inside the trailing interval. It also carries the
// throttle penalty state for its operation. Not safe for concurrent
// use; the Budget serializes access.
type window struct {
	maxRequests int
	interval    time.Duration

	stamps []time.Time

	penaltyBase  time.Duration
	penaltyMax   time.Duration
	penaltyCur   time.Duration
	penaltyUntil time.Time
	cleanGrants  int
}

func newWindow(maxRequests int, interval, penaltyBase, penaltyMax time.Duration) *window {
	if penaltyBase <= 0 {
		penaltyBase = defaultPenaltyBase
	}
	if penaltyMax <= 0 {
		penaltyMax = defaultPenaltyMax
	}
	return &window{
		maxRequests: maxRequests,
		interval:    interval,
		penaltyBase: penaltyBase,
		penaltyMax:  penaltyMax,
	}
}

// evict drops timestamps that have slid out of the trailing interval.
func (w *window) evict(now time.Time) {
	cutoff := now.Add(-w.interval)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// wouldGrant reports whether a request at now fits the window,
// without recording it. evict must have run first.
func (w *window) wouldGrant(now time.Time) bool {
	if now.Before(w.penaltyUntil) {
		return false
	}
	return len(w.stamps) < w.maxRequests
}

// record commits a granted request and advances the clean-grant streak
// used to decay the penalty level.
func (w *window) record(now time.Time) {
	w.stamps = append(w.stamps, now)
	w.cleanGrants++
	if w.cleanGrants >= penaltyResetStreak {
		w.penaltyCur = 0
		w.cleanGrants = 0
	}
}

// waitUntil returns the earliest time a request could be granted:
// the later of the penalty expiry and the oldest stamp sliding out of
// the window. Zero wait means a request would be granted now.
func (w *window) waitUntil(now time.Time) time.Time {
	at := now
	if w.penaltyUntil.After(at) {
		at = w.penaltyUntil
	}
	if len(w.stamps) >= w.maxRequests {
		freed := w.stamps[len(w.stamps)-w.maxRequests].Add(w.interval)
		if freed.After(at) {
			at = freed
		}
	}
	return at
}

// penalize applies a throttle penalty. When the server supplies a
// retry-after hint longer than the computed backoff, the hint wins.
func (w *window) penalize(now time.Time, retryAfter time.Duration) {
	if w.penaltyCur == 0 {
		w.penaltyCur = w.penaltyBase
	} else {
		w.penaltyCur *= 2
		if w.penaltyCur > w.penaltyMax {
			w.penaltyCur = w.penaltyMax
		}
	}
	w.cleanGrants = 0

	d := w.penaltyCur
	if retryAfter > d {
		d = retryAfter
	}
	until := now.Add(d)
	if until.After(w.penaltyUntil) {
		w.penaltyUntil = until
	}
}

// used returns the number of grants currently inside the window.
// evict must have run first.
func (w *window) used() int {
	return len(w.stamps)
}

// penalized reports whether the window is under an active penalty.
func (w *window) penalized(now time.Time) bool {
	return now.Before(w.penaltyUntil)
}
