package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/catalogwatch/collector/internal/control"
	"github.com/catalogwatch/collector/internal/metrics"
	"github.com/catalogwatch/collector/internal/notify"
	"github.com/catalogwatch/collector/internal/queue"
	"github.com/catalogwatch/collector/internal/ratelimit"
	"github.com/catalogwatch/collector/internal/steam"
	"github.com/catalogwatch/collector/internal/store"
	domain "github.com/catalogwatch/collector/pkg/types"
)

const (
	defaultWorkerCount       = 3
	defaultDiscoveryInterval = time.Hour
	defaultStopTimeout       = 30 * time.Second

	monitorInterval        = time.Minute
	throttleStreakMinCount = 3
)

// Collector supervises the discoverer, the worker pool, and the
// operator alert loop. Start seeds the freshness index from the store
// and launches everything; Stop tears it down within a bounded wait.
type Collector struct {
	store    store.Store
	market   steam.MarketClient
	budget   *ratelimit.Budget
	queue    *queue.Queue
	plane    *control.Plane
	notifier notify.Notifier
	log      *slog.Logger

	collections       []string
	workerCount       int
	freshnessWindow   time.Duration
	discoveryInterval time.Duration
	maxCatalogPages   int
	maxRetries        int
	retryDelay        time.Duration
	stopTimeout       time.Duration

	index      *queue.FreshnessIndex
	discoverer *Discoverer
	cron       *cron.Cron
	workers    []*Worker
	wg         sync.WaitGroup

	throttles     atomic.Int64
	dailyNotified atomic.Bool
	monitorDone   chan struct{}
	stopOnce      sync.Once
}

// Option configures the Collector.
type Option func(*Collector)

// WithWorkerCount sets the worker pool size.
func WithWorkerCount(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithCollectorFreshnessWindow sets the worker-side freshness skip
// window.
func WithCollectorFreshnessWindow(d time.Duration) Option {
	return func(c *Collector) {
		c.freshnessWindow = d
	}
}

// WithDiscoveryInterval sets the cadence of scheduled discovery walks.
func WithDiscoveryInterval(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.discoveryInterval = d
		}
	}
}

// WithCollectorMaxCatalogPages caps pages per collection per walk.
func WithCollectorMaxCatalogPages(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxCatalogPages = n
		}
	}
}

// WithCollectorRetryPolicy sets the workers' retry count and delay.
func WithCollectorRetryPolicy(maxRetries int, delay time.Duration) Option {
	return func(c *Collector) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// WithStopTimeout bounds how long Stop waits for workers to finish.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}

// WithCollectorLogger sets a custom logger.
func WithCollectorLogger(log *slog.Logger) Option {
	return func(c *Collector) {
		c.log = log
	}
}

// New creates a Collector. Nothing runs until Start.
func New(
	s store.Store,
	market steam.MarketClient,
	budget *ratelimit.Budget,
	q *queue.Queue,
	plane *control.Plane,
	notifier notify.Notifier,
	collections []string,
	opts ...Option,
) *Collector {
	c := &Collector{
		store:             s,
		market:            market,
		budget:            budget,
		queue:             q,
		plane:             plane,
		notifier:          notifier,
		collections:       collections,
		log:               slog.Default(),
		workerCount:       defaultWorkerCount,
		discoveryInterval: defaultDiscoveryInterval,
		maxCatalogPages:   defaultMaxCatalogPages,
		maxRetries:        defaultMaxRetries,
		retryDelay:        defaultRetryDelay,
		stopTimeout:       defaultStopTimeout,
		monitorDone:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start seeds the freshness index from the store, schedules discovery,
// and launches the worker pool. A store failure here is fatal: running
// without the seed would reclassify the whole catalog as new.
func (c *Collector) Start(ctx context.Context) error {
	keys, err := c.store.ListItemKeys(ctx)
	if err != nil {
		return fmt.Errorf("seeding freshness index: %w", err)
	}
	c.index = queue.NewFreshnessIndex(keys)
	c.log.Info("freshness index seeded", "known_items", len(keys))

	c.discoverer = NewDiscoverer(
		c.market, c.index, c.queue, c.plane, c.collections,
		WithMaxCatalogPages(c.maxCatalogPages),
		WithDiscovererLogger(c.log),
	)

	c.cron = cron.New()
	if _, err := c.cron.AddFunc(
		"@every "+c.discoveryInterval.String(),
		func() { c.discoverer.Run(context.Background()) },
	); err != nil {
		return fmt.Errorf("scheduling discovery: %w", err)
	}
	c.cron.Start()

	// First walk runs immediately rather than one interval from now.
	go c.discoverer.Run(context.Background())

	for i := 0; i < c.workerCount; i++ {
		w := NewWorker(
			uuid.NewString()[:8],
			c.queue, c.index, c.store, c.market, c.budget, c.plane,
			WithFreshnessWindow(c.freshnessWindow),
			WithRetryPolicy(c.maxRetries, c.retryDelay),
			WithPoolSize(c.workerCount),
			WithWorkerLogger(c.log),
			WithThrottleHook(func() { c.throttles.Add(1) }),
		)
		c.workers = append(c.workers, w)

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			w.Run(ctx)
		}()
	}

	go c.monitor()

	c.log.Info("collector started",
		"collections", c.collections,
		"workers", c.workerCount,
		"discovery_interval", c.discoveryInterval,
	)
	return nil
}

// Stop requests shutdown and waits for workers to drain, up to the
// configured stop timeout. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(c.stop)
}

func (c *Collector) stop() {
	c.log.Info("collector stopping")
	c.plane.RequestStop()
	cronCtx := c.cron.Stop()
	c.queue.Close()
	close(c.monitorDone)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		<-cronCtx.Done()
		close(done)
	}()

	select {
	case <-done:
		c.log.Info("collector stopped")
	case <-time.After(c.stopTimeout):
		c.log.Warn("stop timeout elapsed, abandoning stragglers",
			"timeout", c.stopTimeout,
		)
	}
}

// TriggerDiscovery runs a discovery walk outside the schedule.
func (c *Collector) TriggerDiscovery(ctx context.Context) {
	go c.discoverer.Run(ctx)
}

// monitor watches for conditions worth an operator notification.
func (c *Collector) monitor() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.monitorDone:
			return
		case <-ticker.C:
		}

		if c.budget.DailyExhausted() && c.dailyNotified.CompareAndSwap(false, true) {
			c.sendEvent(notify.Event{
				Kind:   notify.EventDailyLimitReached,
				Detail: "daily request budget exhausted, collection idles until the window rolls",
			})
		}
		if !c.budget.DailyExhausted() {
			c.dailyNotified.Store(false)
		}

		if n := c.throttles.Swap(0); n >= throttleStreakMinCount {
			c.sendEvent(notify.Event{
				Kind:   notify.EventThrottleStreak,
				Detail: "marketplace throttled repeated requests within a minute",
				Count:  int(n),
			})
		}
	}
}

func (c *Collector) sendEvent(ev notify.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.notifier.SendEvent(ctx, ev); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		c.log.Error("notification failed", "kind", string(ev.Kind), "error", err)
	}
}

// SystemState snapshots the collector for the state endpoint.
func (c *Collector) SystemState(ctx context.Context) (*domain.SystemState, error) {
	items, err := c.store.CountItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	obs, err := c.store.CountObservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting observations: %w", err)
	}

	workers := make([]string, len(c.workers))
	for i, w := range c.workers {
		workers[i] = fmt.Sprintf("%s:%s", w.ID(), w.State().String())
	}

	state := &domain.SystemState{
		Paused:            c.plane.IsPaused(),
		Stopping:          c.plane.ShouldStop(),
		QueueDepth:        c.queue.Len(),
		QueueDropped:      c.queue.Dropped(),
		Workers:           workers,
		ItemsTotal:        items,
		ObservationsTotal: obs,
		Budgets:           c.budget.Usage(),
	}
	if c.discoverer != nil {
		if last := c.discoverer.LastRun(); !last.IsZero() {
			state.LastDiscoveryAt = &last
		}
	}
	return state, nil
}
