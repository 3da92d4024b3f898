package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogwatch/collector/internal/control"
	"github.com/catalogwatch/collector/internal/queue"
	"github.com/catalogwatch/collector/internal/ratelimit"
	"github.com/catalogwatch/collector/internal/steam"
	domain "github.com/catalogwatch/collector/pkg/types"
)

// pagedMarket serves a fixed catalog split into pages of two.
func pagedMarket(names ...string) *fakeMarket {
	const pageSize = 2
	return &fakeMarket{
		listFunc: func(_ context.Context, _ string, page int) (*steam.CatalogPage, error) {
			start := (page - 1) * pageSize
			if start >= len(names) {
				return &steam.CatalogPage{Start: start, TotalCount: len(names)}, nil
			}
			end := start + pageSize
			if end > len(names) {
				end = len(names)
			}
			entries := make([]steam.CatalogEntry, 0, end-start)
			for _, n := range names[start:end] {
				entries = append(entries, steam.CatalogEntry{Name: n})
			}
			return &steam.CatalogPage{
				Entries:    entries,
				Start:      start,
				TotalCount: len(names),
			}, nil
		},
	}
}

func TestDiscoverer_EnqueuesAllPages(t *testing.T) {
	t.Parallel()

	market := pagedMarket("a", "b", "c", "d", "e")
	q := queue.New(queue.WithQueueLogger(testLogger()))
	index := queue.NewFreshnessIndex(nil)

	d := NewDiscoverer(market, index, q, control.NewPlane(), []string{"730"},
		WithDiscovererLogger(testLogger()),
	)
	d.Run(context.Background())

	assert.Equal(t, 5, q.Len())
	assert.False(t, d.LastRun().IsZero())
}

func TestDiscoverer_ClassifiesByFreshnessIndex(t *testing.T) {
	t.Parallel()

	market := pagedMarket("known", "fresh-face")
	q := queue.New(queue.WithQueueLogger(testLogger()))
	index := queue.NewFreshnessIndex([]domain.CatalogKey{testKey("known")})

	d := NewDiscoverer(market, index, q, control.NewPlane(), []string{"730"},
		WithDiscovererLogger(testLogger()),
	)
	d.Run(context.Background())

	// The never-seen item dequeues first despite enqueue order.
	first, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "fresh-face", first.Key.ItemName)
	assert.Equal(t, domain.PriorityNew, first.Priority)

	second, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "known", second.Key.ItemName)
	assert.Equal(t, domain.PriorityOld, second.Priority)
}

func TestDiscoverer_RespectsPageCeiling(t *testing.T) {
	t.Parallel()

	market := pagedMarket("a", "b", "c", "d", "e", "f", "g", "h")
	q := queue.New(queue.WithQueueLogger(testLogger()))

	d := NewDiscoverer(market, queue.NewFreshnessIndex(nil), q, control.NewPlane(), []string{"730"},
		WithMaxCatalogPages(2),
		WithDiscovererLogger(testLogger()),
	)
	d.Run(context.Background())

	assert.Equal(t, 4, q.Len(), "two pages of two items each")
}

func TestDiscoverer_RerunDeduplicatesQueuedKeys(t *testing.T) {
	t.Parallel()

	market := pagedMarket("a", "b")
	q := queue.New(queue.WithQueueLogger(testLogger()))

	d := NewDiscoverer(market, queue.NewFreshnessIndex(nil), q, control.NewPlane(), []string{"730"},
		WithDiscovererLogger(testLogger()),
	)
	d.Run(context.Background())
	d.Run(context.Background())

	assert.Equal(t, 2, q.Len(), "still-queued keys are not enqueued twice")
}

func TestDiscoverer_AbortsWalkOnFetchError(t *testing.T) {
	t.Parallel()

	calls := 0
	market := &fakeMarket{
		listFunc: func(_ context.Context, _ string, _ int) (*steam.CatalogPage, error) {
			calls++
			if calls == 1 {
				return &steam.CatalogPage{
					Entries:    []steam.CatalogEntry{{Name: "a"}},
					TotalCount: 10,
				}, nil
			}
			return nil, errors.New("upstream gone")
		},
	}
	q := queue.New(queue.WithQueueLogger(testLogger()))

	d := NewDiscoverer(market, queue.NewFreshnessIndex(nil), q, control.NewPlane(), []string{"730"},
		WithDiscovererLogger(testLogger()),
	)
	d.Run(context.Background())

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, q.Len(), "items from completed pages stay queued")
}

func TestDiscoverer_WaitsOutBudgetDenial(t *testing.T) {
	t.Parallel()

	calls := 0
	market := &fakeMarket{
		listFunc: func(_ context.Context, _ string, _ int) (*steam.CatalogPage, error) {
			calls++
			if calls == 1 {
				return nil, &steam.BudgetDeniedError{
					Scope:     "730",
					Operation: ratelimit.OpCatalog,
					Wait:      time.Millisecond,
				}
			}
			return &steam.CatalogPage{
				Entries:    []steam.CatalogEntry{{Name: "a"}},
				TotalCount: 1,
			}, nil
		},
	}
	q := queue.New(queue.WithQueueLogger(testLogger()))

	d := NewDiscoverer(market, queue.NewFreshnessIndex(nil), q, control.NewPlane(), []string{"730"},
		WithDiscovererLogger(testLogger()),
	)
	d.Run(context.Background())

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, q.Len())
}

func TestDiscoverer_StopAbortsWalk(t *testing.T) {
	t.Parallel()

	plane := control.NewPlane()
	calls := 0
	market := &fakeMarket{
		listFunc: func(_ context.Context, _ string, _ int) (*steam.CatalogPage, error) {
			calls++
			plane.RequestStop()
			return &steam.CatalogPage{
				Entries:    []steam.CatalogEntry{{Name: "a"}},
				TotalCount: 100,
			}, nil
		},
	}
	q := queue.New(queue.WithQueueLogger(testLogger()))

	d := NewDiscoverer(market, queue.NewFreshnessIndex(nil), q, plane, []string{"730"},
		WithDiscovererLogger(testLogger()),
	)
	d.Run(context.Background())

	assert.Equal(t, 1, calls, "stop observed before the next page")
}

func TestDiscoverer_OverlappingRunsCoalesce(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	market := &fakeMarket{
		listFunc: func(_ context.Context, _ string, _ int) (*steam.CatalogPage, error) {
			close(entered)
			<-release
			return &steam.CatalogPage{TotalCount: 0}, nil
		},
	}
	q := queue.New(queue.WithQueueLogger(testLogger()))

	d := NewDiscoverer(market, queue.NewFreshnessIndex(nil), q, control.NewPlane(), []string{"730"},
		WithDiscovererLogger(testLogger()),
	)

	go d.Run(context.Background())
	<-entered

	// Second trigger returns immediately while the first is blocked.
	done := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("overlapping run did not coalesce")
	}
	close(release)
}
