package queue

import (
	"sync"

	domain "github.com/catalogwatch/collector/pkg/types"
)

// FreshnessIndex remembers which catalog keys have been seen before.
// It only influences scheduling priority; whether an item is actually
// fetched is decided elsewhere. Seeded from the store at startup so a
// restart does not reclassify the whole catalog as new.
type FreshnessIndex struct {
	mu   sync.RWMutex
	seen map[domain.CatalogKey]struct{}
}

// NewFreshnessIndex creates an index pre-populated with keys, typically
// every key already present in the store.
func NewFreshnessIndex(keys []domain.CatalogKey) *FreshnessIndex {
	seen := make(map[domain.CatalogKey]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	return &FreshnessIndex{seen: seen}
}

// Classify returns PriorityNew for never-seen keys and PriorityOld
// otherwise.
func (f *FreshnessIndex) Classify(key domain.CatalogKey) domain.Priority {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.seen[key]; ok {
		return domain.PriorityOld
	}
	return domain.PriorityNew
}

// MarkSeen records the key. Idempotent.
func (f *FreshnessIndex) MarkSeen(key domain.CatalogKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[key] = struct{}{}
}

// Len returns the number of known keys.
func (f *FreshnessIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.seen)
}
