// Package store defines the datastore abstraction for the market
// history collector. All business logic depends on the Store
// interface, never on concrete implementations, so the collector can
// be tested without a running database.
package store

import (
	"context"
	"time"

	domain "github.com/catalogwatch/collector/pkg/types"
)

// ItemQuery defines optional filters for item listing queries.
type ItemQuery struct {
	CollectionID *string
	NamePrefix   *string
	Limit        int // default 50
	Offset       int
	OrderBy      string // "last_updated", "item_name"
}

// WriteResult reports the outcome of an observation batch write.
type WriteResult struct {
	Written int
	Invalid int
}

// Store defines all data access operations for the collector.
type Store interface {
	// Items
	UpsertItem(ctx context.Context, key domain.CatalogKey) (int64, error)
	GetItem(ctx context.Context, key domain.CatalogKey) (*domain.Item, error)
	ListItems(ctx context.Context, opts *ItemQuery) ([]domain.Item, int, error)
	ListItemKeys(ctx context.Context) ([]domain.CatalogKey, error)
	IsFresh(ctx context.Context, key domain.CatalogKey, window time.Duration) (bool, error)

	// Observations
	WriteObservations(ctx context.Context, itemID int64, obs []domain.PriceObservation) (WriteResult, error)
	QueryHistory(ctx context.Context, itemID int64, since time.Time) ([]domain.PriceObservation, error)

	// Counts
	CountItems(ctx context.Context) (int, error)
	CountObservations(ctx context.Context) (int, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
