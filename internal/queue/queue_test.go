package queue_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogwatch/collector/internal/queue"
	domain "github.com/catalogwatch/collector/pkg/types"
)

func key(name string) domain.CatalogKey {
	return domain.CatalogKey{CollectionID: "730", ItemName: name}
}

func item(name string, p domain.Priority) domain.WorkItem {
	return domain.WorkItem{Key: key(name), Priority: p, EnqueuedAt: time.Now()}
}

func TestQueue_PriorityOrder(t *testing.T) {
	t.Parallel()

	q := queue.New()

	// NEW, OLD, NEW: both NEW items come out before the OLD one, in
	// enqueue order.
	require.True(t, q.Enqueue(item("a", domain.PriorityNew)))
	require.True(t, q.Enqueue(item("b", domain.PriorityOld)))
	require.True(t, q.Enqueue(item("c", domain.PriorityNew)))

	got := make([]string, 0, 3)
	for range 3 {
		it, ok := q.Dequeue()
		require.True(t, ok)
		got = append(got, it.Key.ItemName)
	}
	assert.Equal(t, []string{"a", "c", "b"}, got)
}

func TestQueue_FIFOWithinTier(t *testing.T) {
	t.Parallel()

	q := queue.New()
	for _, name := range []string{"a", "b", "c", "d"} {
		require.True(t, q.Enqueue(item(name, domain.PriorityOld)))
	}

	for _, want := range []string{"a", "b", "c", "d"} {
		it, ok := q.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, it.Key.ItemName)
	}
}

func TestQueue_DuplicateRejected(t *testing.T) {
	t.Parallel()

	q := queue.New()

	require.True(t, q.Enqueue(item("a", domain.PriorityOld)))
	assert.False(t, q.Enqueue(item("a", domain.PriorityNew)), "queued key must not be enqueued twice")
	assert.Equal(t, 1, q.Len())

	// Membership is released on dequeue, so the key may be requeued
	// while a worker still holds the dequeued item.
	_, ok := q.Dequeue()
	require.True(t, ok)
	assert.True(t, q.Enqueue(item("a", domain.PriorityOld)))
}

func TestQueue_CapacityTailDrop(t *testing.T) {
	t.Parallel()

	q := queue.New(queue.WithCapacity(2))

	require.True(t, q.Enqueue(item("old1", domain.PriorityOld)))
	require.True(t, q.Enqueue(item("old2", domain.PriorityOld)))

	// A NEW item displaces the newest OLD entry.
	assert.True(t, q.Enqueue(item("new1", domain.PriorityNew)))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, int64(1), q.Dropped())

	it, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "new1", it.Key.ItemName)
	it, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "old1", it.Key.ItemName)
}

func TestQueue_CapacityRejectsWorstIncoming(t *testing.T) {
	t.Parallel()

	q := queue.New(queue.WithCapacity(2))

	require.True(t, q.Enqueue(item("new1", domain.PriorityNew)))
	require.True(t, q.Enqueue(item("new2", domain.PriorityNew)))

	// An OLD item arriving at a queue full of NEW work is the worst
	// candidate and is rejected outright.
	assert.False(t, q.Enqueue(item("old1", domain.PriorityOld)))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, int64(1), q.Dropped())
}

func TestQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	t.Parallel()

	q := queue.New()

	got := make(chan domain.WorkItem, 1)
	go func() {
		it, ok := q.Dequeue()
		if ok {
			got <- it
		}
	}()

	// Give the consumer time to block.
	time.Sleep(50 * time.Millisecond)
	require.True(t, q.Enqueue(item("a", domain.PriorityNew)))

	select {
	case it := <-got:
		assert.Equal(t, "a", it.Key.ItemName)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not wake after enqueue")
	}
}

func TestQueue_CloseWakesConsumers(t *testing.T) {
	t.Parallel()

	q := queue.New()

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Dequeue()
			assert.False(t, ok)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	q.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumers did not wake on close")
	}
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	t.Parallel()

	q := queue.New()
	q.Close()
	assert.False(t, q.Enqueue(item("a", domain.PriorityNew)))
}

func TestFreshnessIndex(t *testing.T) {
	t.Parallel()

	idx := queue.NewFreshnessIndex([]domain.CatalogKey{key("seeded")})

	assert.Equal(t, domain.PriorityOld, idx.Classify(key("seeded")))
	assert.Equal(t, domain.PriorityNew, idx.Classify(key("fresh")))

	idx.MarkSeen(key("fresh"))
	assert.Equal(t, domain.PriorityOld, idx.Classify(key("fresh")))

	// Idempotent.
	idx.MarkSeen(key("fresh"))
	assert.Equal(t, 2, idx.Len())
}
