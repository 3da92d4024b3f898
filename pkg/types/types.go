// Package domain defines the core business types for the market
// history collector.
package domain

import (
	"fmt"
	"time"
)

// CatalogKey uniquely identifies an item within a collection. It is the
// unit of scheduling: the work queue, the freshness index, and the
// store all key on it.
type CatalogKey struct {
	CollectionID string `json:"collection_id" db:"collection_id"`
	ItemName     string `json:"item_name"     db:"item_name"`
}

// String renders the key in collection/name form for logs.
func (k CatalogKey) String() string {
	return fmt.Sprintf("%s/%s", k.CollectionID, k.ItemName)
}

// Item is a catalog entry whose history is tracked. LastUpdated is the
// time of the most recent successful history write, not the time of
// the newest observation.
type Item struct {
	ID           int64     `json:"id"            db:"id"`
	CollectionID string    `json:"collection_id" db:"collection_id"`
	ItemName     string    `json:"item_name"     db:"item_name"`
	LastUpdated  time.Time `json:"last_updated"  db:"last_updated"`
}

// Key returns the item's catalog key.
func (i *Item) Key() CatalogKey {
	return CatalogKey{CollectionID: i.CollectionID, ItemName: i.ItemName}
}

// PriceObservation is a single point of market history for an item.
type PriceObservation struct {
	ID         int64     `json:"id"          db:"id"`
	ItemID     int64     `json:"item_id"     db:"item_id"`
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
	Value      float64   `json:"value"       db:"value"`
	Volume     int64     `json:"volume"      db:"volume"`
}

// Valid reports whether the observation passes row-level checks.
// Invalid rows are dropped before persistence, never written.
func (o PriceObservation) Valid() bool {
	return o.Value >= 0 && o.Volume >= 0 && !o.ObservedAt.IsZero()
}

// Priority orders work items. Lower values dequeue first.
type Priority int

// Priority tiers. Never-seen items preempt refresh work.
const (
	PriorityNew Priority = 0
	PriorityOld Priority = 1
)

// String returns the tier name for logs and metrics labels.
func (p Priority) String() string {
	switch p {
	case PriorityNew:
		return "new"
	case PriorityOld:
		return "old"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// WorkItem is the single unit both producers put on the work queue:
// the discovery walk enqueues at PriorityNew or PriorityOld depending
// on the freshness index, and workers requeue throttled items at
// PriorityOld.
type WorkItem struct {
	Key        CatalogKey `json:"key"`
	Priority   Priority   `json:"priority"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}

// WorkerState tracks where a worker is in its cycle. Cancellation and
// pause are honored only at Idle and Sleeping.
type WorkerState int32

// Worker states.
const (
	WorkerIdle WorkerState = iota
	WorkerFetching
	WorkerWriting
	WorkerSleeping
	WorkerStopped
)

// String returns the state name for logs and the state endpoint.
func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerFetching:
		return "fetching"
	case WorkerWriting:
		return "writing"
	case WorkerSleeping:
		return "sleeping"
	case WorkerStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// BudgetUsage reports consumption of one rate window.
type BudgetUsage struct {
	Scope     string `json:"scope"`
	Operation string `json:"operation"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Penalized bool   `json:"penalized"`
}

// SystemState holds a snapshot of aggregate collector state served by
// the state endpoint.
type SystemState struct {
	Paused            bool          `json:"paused"`
	Stopping          bool          `json:"stopping"`
	QueueDepth        int           `json:"queue_depth"`
	QueueDropped      int64         `json:"queue_dropped"`
	Workers           []string      `json:"workers"`
	ItemsTotal        int           `json:"items_total"`
	ObservationsTotal int           `json:"observations_total"`
	Budgets           []BudgetUsage `json:"budgets"`
	LastDiscoveryAt   *time.Time    `json:"last_discovery_at,omitempty"`
}
