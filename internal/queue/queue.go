// Package queue implements the two-tier priority work queue feeding
// the worker pool, and the freshness index that decides which tier an
// item lands in.
package queue

import (
	"container/heap"
	"log/slog"
	"sync"

	"github.com/catalogwatch/collector/internal/metrics"
	domain "github.com/catalogwatch/collector/pkg/types"
)

// DefaultCapacity bounds the queue when no capacity option is given.
const DefaultCapacity = 10000

// entry is a queued work item plus the sequence number that keeps
// dequeue order FIFO within a priority tier.
type entry struct {
	item domain.WorkItem
	seq  uint64
}

// entryHeap orders by (priority, seq). heap.Interface implementation.
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].item.Priority != h[j].item.Priority {
		return h[i].item.Priority < h[j].item.Priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Queue is a bounded priority queue of work items. A key may appear at
// most once: membership is tracked from enqueue until dequeue, so an
// item being worked on can be requeued. Dequeue blocks until an item
// is available or the queue is closed.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond

	heap     entryHeap
	queued   map[domain.CatalogKey]struct{}
	capacity int
	seq      uint64
	dropped  int64
	closed   bool

	log *slog.Logger
}

// QueueOption configures the Queue.
type QueueOption func(*Queue)

// WithCapacity overrides the default queue bound.
func WithCapacity(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithQueueLogger sets the logger used for capacity warnings.
func WithQueueLogger(log *slog.Logger) QueueOption {
	return func(q *Queue) {
		q.log = log
	}
}

// New creates an empty queue.
func New(opts ...QueueOption) *Queue {
	q := &Queue{
		queued:   make(map[domain.CatalogKey]struct{}),
		capacity: DefaultCapacity,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds the item unless its key is already queued. It returns
// true when the item was accepted. At capacity the lowest-priority
// entry is dropped to make room; when the incoming item itself ranks
// worst it is the one rejected.
func (q *Queue) Enqueue(item domain.WorkItem) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if _, dup := q.queued[item.Key]; dup {
		metrics.QueueDuplicatesTotal.Inc()
		return false
	}

	if len(q.heap) >= q.capacity {
		if !q.evictWorst(item) {
			return false
		}
	}

	q.seq++
	heap.Push(&q.heap, entry{item: item, seq: q.seq})
	q.queued[item.Key] = struct{}{}
	metrics.QueueEnqueuedTotal.WithLabelValues(item.Priority.String()).Inc()
	metrics.QueueDepth.Set(float64(len(q.heap)))
	q.notEmpty.Signal()
	return true
}

// evictWorst removes the entry that sorts last, comparing the incoming
// item too. Returns false when the incoming item is the worst and
// should be rejected instead.
func (q *Queue) evictWorst(incoming domain.WorkItem) bool {
	worst := -1
	for i := range q.heap {
		if worst < 0 || lessEntry(q.heap[worst], q.heap[i]) {
			worst = i
		}
	}

	q.dropped++
	metrics.QueueDroppedTotal.Inc()

	// The incoming item is the newest in its tier, so it loses any
	// priority tie with the worst queued entry.
	if worst < 0 || q.heap[worst].item.Priority <= incoming.Priority {
		q.log.Warn("work queue at capacity, rejecting item",
			"key", incoming.Key.String(),
			"priority", incoming.Priority.String(),
			"capacity", q.capacity,
		)
		return false
	}

	evicted := q.heap[worst].item
	heap.Remove(&q.heap, worst)
	delete(q.queued, evicted.Key)
	q.log.Warn("work queue at capacity, dropping tail item",
		"key", evicted.Key.String(),
		"priority", evicted.Priority.String(),
		"capacity", q.capacity,
	)
	return true
}

// lessEntry reports whether a sorts before b.
func lessEntry(a, b entry) bool {
	if a.item.Priority != b.item.Priority {
		return a.item.Priority < b.item.Priority
	}
	return a.seq < b.seq
}

// Dequeue blocks until an item is available or the queue is closed.
// The key's membership is released here, not on completion, so a
// worker holding the item may requeue it.
func (q *Queue) Dequeue() (domain.WorkItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.heap) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.heap) == 0 {
		return domain.WorkItem{}, false
	}

	e := heap.Pop(&q.heap).(entry)
	delete(q.queued, e.item.Key)
	metrics.QueueDepth.Set(float64(len(q.heap)))
	return e.item, true
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Dropped returns the count of items dropped at capacity.
func (q *Queue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close wakes all blocked consumers. Pending items may still be
// dequeued; once drained, Dequeue returns false.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
}
