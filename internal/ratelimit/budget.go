package ratelimit

import (
	"sync"
	"time"

	"github.com/catalogwatch/collector/internal/metrics"
	domain "github.com/catalogwatch/collector/pkg/types"
)

// Operations a budget scope distinguishes.
const (
	OpCatalog = "catalog"
	OpHistory = "history"
)

// Scope name for windows shared across all collections.
const globalScope = "global"

// Limits configures a Budget.
type Limits struct {
	Window           time.Duration
	OverallPerWindow int
	HistoryPerWindow int
	CatalogPerWindow int
	DailyLimit       int
	PenaltyBase      time.Duration
	PenaltyMax       time.Duration
}

// DefaultLimits returns the budget shipped by default: 8 requests per
// minute per collection overall, 7 of them history, 1 catalog, and
// 12000 per rolling day across everything.
func DefaultLimits() Limits {
	return Limits{
		Window:           time.Minute,
		OverallPerWindow: 8,
		HistoryPerWindow: 7,
		CatalogPerWindow: 1,
		DailyLimit:       12000,
		PenaltyBase:      defaultPenaltyBase,
		PenaltyMax:       defaultPenaltyMax,
	}
}

// scopeWindows holds the per-operation and overall windows of one
// collection scope.
type scopeWindows struct {
	overall *window
	byOp    map[string]*window
}

// Budget is the shared request budget consulted before every
// marketplace call. A grant must satisfy the operation window, the
// scope's overall window, and the global daily window; the check and
// the recording happen atomically under one lock so concurrent callers
// cannot interleave between them.
type Budget struct {
	mu     sync.Mutex
	limits Limits
	scopes map[string]*scopeWindows
	daily  *window

	nowFunc func() time.Time
}

// BudgetOption configures the Budget.
type BudgetOption func(*Budget)

// WithBudgetNowFunc overrides the time function for testing.
func WithBudgetNowFunc(f func() time.Time) BudgetOption {
	return func(b *Budget) {
		b.nowFunc = f
	}
}

// NewBudget creates a Budget with the given limits. Scope windows are
// created lazily on first use.
func NewBudget(limits Limits, opts ...BudgetOption) *Budget {
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	b := &Budget{
		limits:  limits,
		scopes:  make(map[string]*scopeWindows),
		daily:   newWindow(limits.DailyLimit, 24*time.Hour, limits.PenaltyBase, limits.PenaltyMax),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Budget) scope(name string) *scopeWindows {
	sw, ok := b.scopes[name]
	if !ok {
		sw = &scopeWindows{
			overall: newWindow(b.limits.OverallPerWindow, b.limits.Window, b.limits.PenaltyBase, b.limits.PenaltyMax),
			byOp: map[string]*window{
				OpCatalog: newWindow(b.limits.CatalogPerWindow, b.limits.Window, b.limits.PenaltyBase, b.limits.PenaltyMax),
				OpHistory: newWindow(b.limits.HistoryPerWindow, b.limits.Window, b.limits.PenaltyBase, b.limits.PenaltyMax),
			},
		}
		b.scopes[name] = sw
	}
	return sw
}

// TryAcquire attempts to reserve one request for the operation in the
// scope. It never blocks. On a grant the request is recorded in every
// applicable window before the lock is released. On denial it returns
// a wait hint: the earliest duration after which a retry could
// succeed, which is positive whenever the denial came from window
// occupancy or an active penalty.
func (b *Budget) TryAcquire(scope, operation string) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	sw := b.scope(scope)
	op, ok := sw.byOp[operation]
	if !ok {
		op = sw.overall
	}

	op.evict(now)
	sw.overall.evict(now)
	b.daily.evict(now)

	if op.wouldGrant(now) && sw.overall.wouldGrant(now) && b.daily.wouldGrant(now) {
		op.record(now)
		if op != sw.overall {
			sw.overall.record(now)
		}
		b.daily.record(now)
		metrics.BudgetDailyUsage.Set(float64(b.daily.used()))
		return true, 0
	}

	// Denied: the hint must clear every violated window, so take the
	// latest of their earliest-free times.
	at := op.waitUntil(now)
	if t := sw.overall.waitUntil(now); t.After(at) {
		at = t
	}
	if t := b.daily.waitUntil(now); t.After(at) {
		at = t
		metrics.BudgetDailyLimitHits.Inc()
	}
	metrics.BudgetDenialsTotal.WithLabelValues(scope, operation).Inc()

	wait := at.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return false, wait
}

// Penalize applies a throttle penalty to the operation window and the
// scope's overall window. retryAfter is the server's hint; zero means
// none was provided and the exponential backoff alone applies.
func (b *Budget) Penalize(scope, operation string, retryAfter time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	sw := b.scope(scope)
	if op, ok := sw.byOp[operation]; ok {
		op.penalize(now, retryAfter)
	}
	sw.overall.penalize(now, retryAfter)
	metrics.BudgetPenaltiesTotal.WithLabelValues(scope, operation).Inc()
}

// Remaining returns how many history requests the scope could still
// make in the current window. Workers use it to pace their sleeps.
func (b *Budget) Remaining(scope, operation string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	sw := b.scope(scope)
	op, ok := sw.byOp[operation]
	if !ok {
		op = sw.overall
	}
	op.evict(now)
	sw.overall.evict(now)

	rem := op.maxRequests - op.used()
	if orem := sw.overall.maxRequests - sw.overall.used(); orem < rem {
		rem = orem
	}
	if rem < 0 {
		rem = 0
	}
	return rem
}

// Window returns the configured sliding window length.
func (b *Budget) Window() time.Duration {
	return b.limits.Window
}

// DailyExhausted reports whether the rolling daily cap is spent.
func (b *Budget) DailyExhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	b.daily.evict(now)
	return b.daily.used() >= b.daily.maxRequests
}

// Usage reports current consumption of every tracked window for the
// state endpoint.
func (b *Budget) Usage() []domain.BudgetUsage {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	b.daily.evict(now)
	usage := []domain.BudgetUsage{{
		Scope:     globalScope,
		Operation: "daily",
		Used:      b.daily.used(),
		Limit:     b.daily.maxRequests,
		Penalized: b.daily.penalized(now),
	}}

	for name, sw := range b.scopes {
		sw.overall.evict(now)
		usage = append(usage, domain.BudgetUsage{
			Scope:     name,
			Operation: "overall",
			Used:      sw.overall.used(),
			Limit:     sw.overall.maxRequests,
			Penalized: sw.overall.penalized(now),
		})
		for opName, op := range sw.byOp {
			op.evict(now)
			usage = append(usage, domain.BudgetUsage{
				Scope:     name,
				Operation: opName,
				Used:      op.used(),
				Limit:     op.maxRequests,
				Penalized: op.penalized(now),
			})
		}
	}
	return usage
}
