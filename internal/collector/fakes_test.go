package collector

import (
	"context"
	"sync"
	"time"

	"github.com/catalogwatch/collector/internal/steam"
	"github.com/catalogwatch/collector/internal/store"
	domain "github.com/catalogwatch/collector/pkg/types"
)

// fakeMarket implements steam.MarketClient with injectable behavior.
type fakeMarket struct {
	mu sync.Mutex

	listFunc  func(ctx context.Context, collectionID string, page int) (*steam.CatalogPage, error)
	fetchFunc func(ctx context.Context, key domain.CatalogKey) ([]steam.RawObservation, error)

	fetchCalls []domain.CatalogKey
}

func (f *fakeMarket) ListCatalogPage(ctx context.Context, collectionID string, page int) (*steam.CatalogPage, error) {
	return f.listFunc(ctx, collectionID, page)
}

func (f *fakeMarket) FetchHistory(ctx context.Context, key domain.CatalogKey) ([]steam.RawObservation, error) {
	f.mu.Lock()
	f.fetchCalls = append(f.fetchCalls, key)
	f.mu.Unlock()
	return f.fetchFunc(ctx, key)
}

func (f *fakeMarket) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetchCalls)
}

// fakeStore implements store.Store in memory. Only the behavior the
// collector exercises is modeled.
type fakeStore struct {
	mu sync.Mutex

	items   map[domain.CatalogKey]*domain.Item
	obs     map[int64][]domain.PriceObservation
	nextID  int64
	fresh   map[domain.CatalogKey]bool
	keysErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items: make(map[domain.CatalogKey]*domain.Item),
		obs:   make(map[int64][]domain.PriceObservation),
		fresh: make(map[domain.CatalogKey]bool),
	}
}

func (f *fakeStore) UpsertItem(_ context.Context, key domain.CatalogKey) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it, ok := f.items[key]; ok {
		it.LastUpdated = time.Now()
		return it.ID, nil
	}
	f.nextID++
	f.items[key] = &domain.Item{
		ID:           f.nextID,
		CollectionID: key.CollectionID,
		ItemName:     key.ItemName,
		LastUpdated:  time.Now(),
	}
	return f.nextID, nil
}

func (f *fakeStore) GetItem(_ context.Context, key domain.CatalogKey) (*domain.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[key]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeStore) ListItems(_ context.Context, _ *store.ItemQuery) ([]domain.Item, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Item, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, *it)
	}
	return out, len(out), nil
}

func (f *fakeStore) ListItemKeys(_ context.Context) ([]domain.CatalogKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	keys := make([]domain.CatalogKey, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeStore) IsFresh(_ context.Context, key domain.CatalogKey, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if window <= 0 {
		return false, nil
	}
	return f.fresh[key], nil
}

func (f *fakeStore) WriteObservations(_ context.Context, itemID int64, obs []domain.PriceObservation) (store.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res store.WriteResult
	for _, o := range obs {
		if !o.Valid() {
			res.Invalid++
			continue
		}
		f.obs[itemID] = append(f.obs[itemID], o)
		res.Written++
	}
	return res, nil
}

func (f *fakeStore) QueryHistory(_ context.Context, itemID int64, _ time.Time) ([]domain.PriceObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.obs[itemID], nil
}

func (f *fakeStore) CountItems(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items), nil
}

func (f *fakeStore) CountObservations(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.obs {
		n += len(o)
	}
	return n, nil
}

func (f *fakeStore) Migrate(_ context.Context) error { return nil }

func (f *fakeStore) Ping(_ context.Context) error { return nil }

func (f *fakeStore) observationCount(itemID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.obs[itemID])
}

func (f *fakeStore) hasItem(key domain.CatalogKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[key]
	return ok
}

var (
	_ steam.MarketClient = (*fakeMarket)(nil)
	_ store.Store        = (*fakeStore)(nil)
)
