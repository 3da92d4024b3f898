package collector

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/catalogwatch/collector/internal/control"
	"github.com/catalogwatch/collector/internal/metrics"
	"github.com/catalogwatch/collector/internal/queue"
	"github.com/catalogwatch/collector/internal/ratelimit"
	"github.com/catalogwatch/collector/internal/steam"
	"github.com/catalogwatch/collector/internal/store"
	domain "github.com/catalogwatch/collector/pkg/types"
)

const (
	pausePollInterval = time.Second
	minRest           = 500 * time.Millisecond

	defaultMaxRetries = 3
	defaultRetryDelay = time.Minute
)

// Worker pulls items off the queue, fetches their history, and writes
// it to the store. Pause and stop are observed only between items and
// during sleeps; an item already being processed runs to completion.
type Worker struct {
	id     string
	queue  *queue.Queue
	index  *queue.FreshnessIndex
	store  store.Store
	market steam.MarketClient
	budget *ratelimit.Budget
	plane  *control.Plane
	log    *slog.Logger

	freshnessWindow time.Duration
	maxRetries      int
	retryDelay      time.Duration
	poolSize        int

	// onThrottle is called for every marketplace throttle so the
	// supervisor can alert on streaks.
	onThrottle func()

	state atomic.Int32
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithFreshnessWindow sets how recently an item must have been updated
// to be skipped. Non-positive disables the skip.
func WithFreshnessWindow(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.freshnessWindow = d
	}
}

// WithRetryPolicy sets the transient-failure retry count and delay.
func WithRetryPolicy(maxRetries int, delay time.Duration) WorkerOption {
	return func(w *Worker) {
		if maxRetries > 0 {
			w.maxRetries = maxRetries
		}
		if delay > 0 {
			w.retryDelay = delay
		}
	}
}

// WithPoolSize tells the worker how many siblings share the budget, so
// its pacing sleeps divide the window between them.
func WithPoolSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.poolSize = n
		}
	}
}

// WithWorkerLogger sets a custom logger.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.log = log
	}
}

// WithThrottleHook sets a callback invoked on every marketplace
// throttle.
func WithThrottleHook(f func()) WorkerOption {
	return func(w *Worker) {
		w.onThrottle = f
	}
}

// NewWorker creates a worker bound to the shared queue and budget.
func NewWorker(
	id string,
	q *queue.Queue,
	index *queue.FreshnessIndex,
	s store.Store,
	market steam.MarketClient,
	budget *ratelimit.Budget,
	plane *control.Plane,
	opts ...WorkerOption,
) *Worker {
	w := &Worker{
		id:         id,
		queue:      q,
		index:      index,
		store:      s,
		market:     market,
		budget:     budget,
		plane:      plane,
		log:        slog.Default(),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		poolSize:   1,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With("worker", id)
	return w
}

// ID returns the worker's identifier.
func (w *Worker) ID() string {
	return w.id
}

// State returns the worker's current state.
func (w *Worker) State() domain.WorkerState {
	return domain.WorkerState(w.state.Load())
}

func (w *Worker) setState(s domain.WorkerState) {
	w.state.Store(int32(s))
}

// Run processes queue items until the queue is closed and drained or a
// stop is requested. It is the worker goroutine's body.
func (w *Worker) Run(ctx context.Context) {
	defer w.setState(domain.WorkerStopped)
	w.log.Info("worker started")

	for {
		w.setState(domain.WorkerIdle)

		if w.plane.ShouldStop() || ctx.Err() != nil {
			w.log.Info("worker stopping")
			return
		}
		if w.plane.IsPaused() {
			if !w.sleep(ctx, pausePollInterval) {
				return
			}
			continue
		}

		item, ok := w.queue.Dequeue()
		if !ok {
			w.log.Info("work queue closed, worker stopping")
			return
		}

		w.process(ctx, item)

		if !w.sleep(ctx, w.restDuration(item.Key.CollectionID)) {
			return
		}
	}
}

// process runs one item through the fetch-write pipeline.
func (w *Worker) process(ctx context.Context, item domain.WorkItem) {
	w.setState(domain.WorkerFetching)
	key := item.Key

	if w.freshnessWindow > 0 {
		fresh, err := w.store.IsFresh(ctx, key, w.freshnessWindow)
		if err != nil {
			w.log.Error("freshness check failed", "key", key.String(), "error", err)
		} else if fresh {
			metrics.FreshSkipsTotal.Inc()
			w.index.MarkSeen(key)
			w.log.Debug("skipping fresh item", "key", key.String())
			return
		}
	}

	raw, ok := w.fetch(ctx, item)
	if !ok {
		return
	}

	w.setState(domain.WorkerWriting)

	itemID, err := w.store.UpsertItem(ctx, key)
	if err != nil {
		w.log.Error("item upsert failed", "key", key.String(), "error", err)
		return
	}

	obs := make([]domain.PriceObservation, len(raw))
	for i, r := range raw {
		obs[i] = r.Observation()
	}

	res, err := w.store.WriteObservations(ctx, itemID, obs)
	if err != nil {
		w.log.Error("observation write failed", "key", key.String(), "error", err)
		return
	}

	w.index.MarkSeen(key)
	w.log.Info("item collected",
		"key", key.String(),
		"priority", item.Priority.String(),
		"written", res.Written,
		"invalid", res.Invalid,
	)
}

// fetch retrieves the item's history, waiting out budget denials and
// retrying transient failures. Returns false when the item yielded
// nothing to write.
func (w *Worker) fetch(ctx context.Context, item domain.WorkItem) ([]steam.RawObservation, bool) {
	key := item.Key
	attempts := 0

	for {
		if ctx.Err() != nil {
			return nil, false
		}

		raw, err := w.market.FetchHistory(ctx, key)
		if err == nil {
			return raw, true
		}

		// A denial is the budget doing its job, not a failure.
		if wait, denied := steam.IsBudgetDenied(err); denied {
			w.log.Debug("history budget exhausted, waiting",
				"key", key.String(),
				"wait", wait,
			)
			if !w.sleep(ctx, wait) {
				return nil, false
			}
			continue
		}

		if retryAfter, throttled := steam.IsThrottled(err); throttled {
			if w.onThrottle != nil {
				w.onThrottle()
			}
			w.log.Warn("throttled by marketplace, requeueing item",
				"key", key.String(),
				"retry_after", retryAfter,
			)
			w.queue.Enqueue(domain.WorkItem{
				Key:        key,
				Priority:   domain.PriorityOld,
				EnqueuedAt: time.Now(),
			})
			return nil, false
		}

		if errors.Is(err, steam.ErrNoHistory) {
			// The item exists but has no market activity. Record it so
			// the next walk classifies it as old.
			if _, upErr := w.store.UpsertItem(ctx, key); upErr != nil {
				w.log.Error("item upsert failed", "key", key.String(), "error", upErr)
			}
			w.index.MarkSeen(key)
			w.log.Debug("no history for item", "key", key.String())
			return nil, false
		}

		if errors.Is(err, steam.ErrMalformedResponse) {
			metrics.ItemsDroppedTotal.Inc()
			w.log.Error("malformed response, dropping item for cycle",
				"key", key.String(),
				"error", err,
			)
			return nil, false
		}

		attempts++
		if attempts >= w.maxRetries {
			metrics.ItemsDroppedTotal.Inc()
			w.log.Error("retries exhausted, dropping item for cycle",
				"key", key.String(),
				"attempts", attempts,
				"error", err,
			)
			return nil, false
		}

		metrics.FetchRetriesTotal.Inc()
		w.log.Warn("history fetch failed, retrying",
			"key", key.String(),
			"attempt", attempts,
			"error", err,
		)
		if !w.sleep(ctx, w.retryDelay) {
			return nil, false
		}
	}
}

// restDuration spreads the scope's remaining window budget across the
// pool so workers do not burst and then starve.
func (w *Worker) restDuration(scope string) time.Duration {
	win := w.budget.Window()
	rem := w.budget.Remaining(scope, ratelimit.OpHistory)

	var d time.Duration
	if rem <= 0 {
		d = win / 2
	} else {
		d = win / time.Duration(rem*w.poolSize)
	}
	if d < minRest {
		d = minRest
	}
	if d > win {
		d = win
	}

	// Up to 20% jitter keeps workers from synchronizing.
	return d + rand.N(d/5+1)
}

// sleep waits for the duration in the Sleeping state, returning false
// if the context ended or a stop was requested first.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	w.setState(domain.WorkerSleeping)
	select {
	case <-ctx.Done():
		return false
	case <-w.plane.Stopping():
		return false
	case <-time.After(d):
		return true
	}
}
