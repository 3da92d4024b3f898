// Package steam provides a Steam Community Market client abstracted
// behind interfaces for testability.
package steam

import (
	"context"
	"time"

	domain "github.com/catalogwatch/collector/pkg/types"
)

// CatalogEntry is one item from a catalog listing page.
type CatalogEntry struct {
	Name string `json:"hash_name"`
}

// CatalogPage holds one page of a catalog listing walk.
type CatalogPage struct {
	Entries    []CatalogEntry
	Start      int
	TotalCount int
}

// HasMore reports whether pages remain past this one.
func (p *CatalogPage) HasMore() bool {
	return p.Start+len(p.Entries) < p.TotalCount
}

// RawObservation is a single history point as returned by the API,
// before row-level validation.
type RawObservation struct {
	ObservedAt time.Time
	Value      float64
	Volume     int64
}

// Observation converts the raw point to the domain type.
func (r RawObservation) Observation() domain.PriceObservation {
	return domain.PriceObservation{
		ObservedAt: r.ObservedAt,
		Value:      r.Value,
		Volume:     r.Volume,
	}
}

// MarketClient defines the interface for the marketplace API.
type MarketClient interface {
	// ListCatalogPage fetches one page of the collection's catalog.
	ListCatalogPage(ctx context.Context, collectionID string, page int) (*CatalogPage, error)

	// FetchHistory fetches the full price history of one item.
	// Rows that fail to parse are dropped; the caller validates the
	// rest before persisting.
	FetchHistory(ctx context.Context, key domain.CatalogKey) ([]RawObservation, error)
}
