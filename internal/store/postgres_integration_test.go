//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/catalogwatch/collector/internal/store"
	domain "github.com/catalogwatch/collector/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("mhc_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func testItemKey(name string) domain.CatalogKey {
	return domain.CatalogKey{CollectionID: "730", ItemName: name}
}

func testObservations() []domain.PriceObservation {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []domain.PriceObservation{
		{ObservedAt: base, Value: 10.5, Volume: 100},
		{ObservedAt: base.Add(time.Hour), Value: 10.7, Volume: 80},
		{ObservedAt: base.Add(2 * time.Hour), Value: 10.6, Volume: 95},
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_UpsertItem(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	t.Run("insert new item", func(t *testing.T) {
		id, err := s.UpsertItem(ctx, testItemKey("AK-47 | Redline"))
		require.NoError(t, err)
		assert.Positive(t, id)
	})

	t.Run("upsert returns same id and refreshes last_updated", func(t *testing.T) {
		key := testItemKey("AWP | Asiimov")
		id1, err := s.UpsertItem(ctx, key)
		require.NoError(t, err)

		first, err := s.GetItem(ctx, key)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		id2, err := s.UpsertItem(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, id1, id2)

		second, err := s.GetItem(ctx, key)
		require.NoError(t, err)
		assert.True(t, second.LastUpdated.After(first.LastUpdated))
	})

	t.Run("same name in another collection is a distinct item", func(t *testing.T) {
		id1, err := s.UpsertItem(ctx, domain.CatalogKey{CollectionID: "730", ItemName: "Shared"})
		require.NoError(t, err)
		id2, err := s.UpsertItem(ctx, domain.CatalogKey{CollectionID: "2700", ItemName: "Shared"})
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)
	})
}

func TestPostgresStore_GetItem_NotFound(t *testing.T) {
	s := setupPostgres(t)

	_, err := s.GetItem(context.Background(), testItemKey("nonexistent"))
	require.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestPostgresStore_WriteObservations(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	t.Run("writes a batch", func(t *testing.T) {
		id, err := s.UpsertItem(ctx, testItemKey("batch-1"))
		require.NoError(t, err)

		res, err := s.WriteObservations(ctx, id, testObservations())
		require.NoError(t, err)
		assert.Equal(t, 3, res.Written)
		assert.Zero(t, res.Invalid)
	})

	t.Run("replay writes nothing new", func(t *testing.T) {
		id, err := s.UpsertItem(ctx, testItemKey("batch-2"))
		require.NoError(t, err)

		obs := testObservations()
		res, err := s.WriteObservations(ctx, id, obs)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Written)

		res, err = s.WriteObservations(ctx, id, obs)
		require.NoError(t, err)
		assert.Zero(t, res.Written, "duplicate rows must be ignored")

		count, err := s.CountObservations(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 3)
	})

	t.Run("invalid rows dropped and counted", func(t *testing.T) {
		id, err := s.UpsertItem(ctx, testItemKey("batch-3"))
		require.NoError(t, err)

		obs := testObservations()
		obs = append(obs,
			domain.PriceObservation{ObservedAt: time.Now(), Value: -1, Volume: 10},
			domain.PriceObservation{ObservedAt: time.Now(), Value: 1, Volume: -5},
			domain.PriceObservation{Value: 1, Volume: 5},
		)

		res, err := s.WriteObservations(ctx, id, obs)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Written)
		assert.Equal(t, 3, res.Invalid)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		id, err := s.UpsertItem(ctx, testItemKey("batch-4"))
		require.NoError(t, err)

		res, err := s.WriteObservations(ctx, id, nil)
		require.NoError(t, err)
		assert.Zero(t, res.Written)
	})
}

func TestPostgresStore_QueryHistory(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	id, err := s.UpsertItem(ctx, testItemKey("history-1"))
	require.NoError(t, err)

	obs := testObservations()
	_, err = s.WriteObservations(ctx, id, obs)
	require.NoError(t, err)

	t.Run("all history", func(t *testing.T) {
		got, err := s.QueryHistory(ctx, id, time.Time{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		// Oldest first.
		assert.True(t, got[0].ObservedAt.Before(got[1].ObservedAt))
	})

	t.Run("since filter", func(t *testing.T) {
		got, err := s.QueryHistory(ctx, id, obs[1].ObservedAt)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestPostgresStore_IsFresh(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	key := testItemKey("fresh-1")
	_, err := s.UpsertItem(ctx, key)
	require.NoError(t, err)

	fresh, err := s.IsFresh(ctx, key, 12*time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh, "just-updated item is fresh")

	fresh, err = s.IsFresh(ctx, key, time.Nanosecond)
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = s.IsFresh(ctx, testItemKey("never-seen"), 12*time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh, "unknown item is never fresh")

	fresh, err = s.IsFresh(ctx, key, 0)
	require.NoError(t, err)
	assert.False(t, fresh, "non-positive window disables the check")
}

func TestPostgresStore_ListItems(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	names := []string{"AK-47 | Case", "AK-47 | Redline", "AWP | Dragon"}
	for _, n := range names {
		_, err := s.UpsertItem(ctx, testItemKey(n))
		require.NoError(t, err)
	}
	_, err := s.UpsertItem(ctx, domain.CatalogKey{CollectionID: "2700", ItemName: "Other"})
	require.NoError(t, err)

	t.Run("no filters", func(t *testing.T) {
		items, total, err := s.ListItems(ctx, &store.ItemQuery{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Len(t, items, 4)
	})

	t.Run("collection filter", func(t *testing.T) {
		cid := "730"
		items, total, err := s.ListItems(ctx, &store.ItemQuery{CollectionID: &cid, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, items, 3)
	})

	t.Run("prefix filter with paging", func(t *testing.T) {
		prefix := "AK-47"
		items, total, err := s.ListItems(ctx, &store.ItemQuery{
			NamePrefix: &prefix,
			OrderBy:    "item_name",
			Limit:      1,
		})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, items, 1)
		assert.Equal(t, "AK-47 | Case", items[0].ItemName)
	})
}

func TestPostgresStore_ListItemKeys(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	_, err := s.UpsertItem(ctx, testItemKey("key-1"))
	require.NoError(t, err)
	_, err = s.UpsertItem(ctx, testItemKey("key-2"))
	require.NoError(t, err)

	keys, err := s.ListItemKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestPostgresStore_Counts(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	id, err := s.UpsertItem(ctx, testItemKey("count-1"))
	require.NoError(t, err)
	_, err = s.WriteObservations(ctx, id, testObservations())
	require.NoError(t, err)

	items, err := s.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, items)

	obs, err := s.CountObservations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, obs)
}
