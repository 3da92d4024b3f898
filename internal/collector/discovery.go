// Package collector orchestrates discovery walks and the history
// worker pool around the shared request budget.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/catalogwatch/collector/internal/control"
	"github.com/catalogwatch/collector/internal/metrics"
	"github.com/catalogwatch/collector/internal/queue"
	"github.com/catalogwatch/collector/internal/steam"
	domain "github.com/catalogwatch/collector/pkg/types"
)

const defaultMaxCatalogPages = 50

// Discoverer walks the catalog listings of each configured collection
// and enqueues every item it sees. Walks always restart from page one
// so items that moved between pages are not missed.
type Discoverer struct {
	market steam.MarketClient
	index  *queue.FreshnessIndex
	queue  *queue.Queue
	plane  *control.Plane
	log    *slog.Logger

	collections []string
	maxPages    int

	running atomic.Bool
	nowFunc func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// DiscovererOption configures the Discoverer.
type DiscovererOption func(*Discoverer)

// WithMaxCatalogPages caps how many pages a single walk visits per
// collection.
func WithMaxCatalogPages(n int) DiscovererOption {
	return func(d *Discoverer) {
		if n > 0 {
			d.maxPages = n
		}
	}
}

// WithDiscovererLogger sets a custom logger.
func WithDiscovererLogger(log *slog.Logger) DiscovererOption {
	return func(d *Discoverer) {
		d.log = log
	}
}

// WithDiscovererNowFunc overrides the time function for testing.
func WithDiscovererNowFunc(f func() time.Time) DiscovererOption {
	return func(d *Discoverer) {
		d.nowFunc = f
	}
}

// NewDiscoverer creates a Discoverer over the given collections.
func NewDiscoverer(
	market steam.MarketClient,
	index *queue.FreshnessIndex,
	q *queue.Queue,
	plane *control.Plane,
	collections []string,
	opts ...DiscovererOption,
) *Discoverer {
	d := &Discoverer{
		market:      market,
		index:       index,
		queue:       q,
		plane:       plane,
		collections: collections,
		maxPages:    defaultMaxCatalogPages,
		log:         slog.Default(),
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one discovery walk over all collections. Overlapping
// runs are coalesced: if a walk is still in progress the new trigger
// returns immediately.
func (d *Discoverer) Run(ctx context.Context) {
	if !d.running.CompareAndSwap(false, true) {
		d.log.Warn("discovery already running, skipping trigger")
		return
	}
	defer d.running.Store(false)

	start := d.nowFunc()
	defer func() {
		metrics.DiscoveryDuration.Observe(time.Since(start).Seconds())
	}()

	for _, collectionID := range d.collections {
		if d.plane.ShouldStop() || ctx.Err() != nil {
			return
		}
		d.walkCollection(ctx, collectionID)
	}

	d.mu.Lock()
	d.lastRun = d.nowFunc()
	d.mu.Unlock()
}

// LastRun returns when the last complete walk finished, or a zero time
// if none has.
func (d *Discoverer) LastRun() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRun
}

func (d *Discoverer) walkCollection(ctx context.Context, collectionID string) {
	var enqueued, seen int

	for page := 1; page <= d.maxPages; page++ {
		if d.plane.ShouldStop() || ctx.Err() != nil {
			return
		}
		if !d.awaitUnpaused(ctx) {
			return
		}

		result, err := d.fetchPage(ctx, collectionID, page)
		if err != nil {
			d.log.Error("discovery walk aborted",
				"collection", collectionID,
				"page", page,
				"error", err,
			)
			return
		}
		if result == nil {
			return
		}

		now := d.nowFunc()
		for _, e := range result.Entries {
			seen++
			metrics.ItemsDiscoveredTotal.Inc()

			key := domain.CatalogKey{CollectionID: collectionID, ItemName: e.Name}
			item := domain.WorkItem{
				Key:        key,
				Priority:   d.index.Classify(key),
				EnqueuedAt: now,
			}
			if d.queue.Enqueue(item) {
				enqueued++
			}
		}

		if !result.HasMore() {
			break
		}
	}

	d.log.Info("discovery walk complete",
		"collection", collectionID,
		"items_seen", seen,
		"items_enqueued", enqueued,
	)
}

// fetchPage fetches one catalog page, waiting out budget denials. A
// throttle or any other fetch error aborts the walk; the next
// scheduled run starts over from page one.
func (d *Discoverer) fetchPage(
	ctx context.Context,
	collectionID string,
	page int,
) (*steam.CatalogPage, error) {
	for {
		result, err := d.market.ListCatalogPage(ctx, collectionID, page)
		if err == nil {
			return result, nil
		}

		if wait, denied := steam.IsBudgetDenied(err); denied {
			d.log.Debug("catalog budget exhausted, waiting",
				"collection", collectionID,
				"page", page,
				"wait", wait,
			)
			if !d.wait(ctx, wait) {
				return nil, nil
			}
			continue
		}

		return nil, err
	}
}

// awaitUnpaused blocks while the control plane is paused. Returns
// false when shutdown was requested while waiting.
func (d *Discoverer) awaitUnpaused(ctx context.Context) bool {
	for d.plane.IsPaused() {
		if !d.wait(ctx, pausePollInterval) {
			return false
		}
	}
	return true
}

// wait sleeps for the given duration, returning false if the context
// ended or a stop was requested first.
func (d *Discoverer) wait(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		dur = time.Second
	}
	select {
	case <-ctx.Done():
		return false
	case <-d.plane.Stopping():
		return false
	case <-time.After(dur):
		return true
	}
}
