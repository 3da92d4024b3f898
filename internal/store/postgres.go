package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/catalogwatch/collector/internal/metrics"
	domain "github.com/catalogwatch/collector/pkg/types"
)

const defaultPoolSize = 10

// ErrItemNotFound is returned when a catalog key has no items row.
var ErrItemNotFound = errors.New("item not found")

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// UpsertItem inserts the item or refreshes its last_updated, returning
// the item id either way.
func (s *PostgresStore) UpsertItem(ctx context.Context, key domain.CatalogKey) (int64, error) {
	args := pgx.NamedArgs{
		"collection_id": key.CollectionID,
		"item_name":     key.ItemName,
	}

	var id int64
	if err := s.pool.QueryRow(ctx, queryUpsertItem, args).Scan(&id); err != nil {
		return 0, fmt.Errorf("upserting item %s: %w", key, err)
	}
	return id, nil
}

// GetItem retrieves an item by its catalog key.
func (s *PostgresStore) GetItem(ctx context.Context, key domain.CatalogKey) (*domain.Item, error) {
	i := &domain.Item{}
	err := s.pool.QueryRow(ctx, queryGetItem, key.CollectionID, key.ItemName).Scan(
		&i.ID, &i.CollectionID, &i.ItemName, &i.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("getting item %s: %w", key, ErrItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", key, err)
	}
	return i, nil
}

// ListItems queries items with optional filters, returning results and
// the total count matching the filters.
func (s *PostgresStore) ListItems(
	ctx context.Context,
	opts *ItemQuery,
) ([]domain.Item, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}

	rows, err := s.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var i domain.Item
		if err := rows.Scan(&i.ID, &i.CollectionID, &i.ItemName, &i.LastUpdated); err != nil {
			return nil, 0, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating items: %w", err)
	}

	return items, total, nil
}

// ListItemKeys returns every catalog key in the store. Used to seed
// the freshness index at startup.
func (s *PostgresStore) ListItemKeys(ctx context.Context) ([]domain.CatalogKey, error) {
	rows, err := s.pool.Query(ctx, queryListItemKeys)
	if err != nil {
		return nil, fmt.Errorf("querying item keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.CatalogKey
	for rows.Next() {
		var k domain.CatalogKey
		if err := rows.Scan(&k.CollectionID, &k.ItemName); err != nil {
			return nil, fmt.Errorf("scanning item key: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, rows.Err()
}

// IsFresh reports whether the item's last successful update is within
// the window. Unknown items are never fresh. A non-positive window
// disables the check.
func (s *PostgresStore) IsFresh(
	ctx context.Context,
	key domain.CatalogKey,
	window time.Duration,
) (bool, error) {
	if window <= 0 {
		return false, nil
	}

	cutoff := time.Now().Add(-window)
	var fresh bool
	err := s.pool.QueryRow(ctx, queryIsFresh, key.CollectionID, key.ItemName, cutoff).Scan(&fresh)
	if err != nil {
		return false, fmt.Errorf("checking freshness of %s: %w", key, err)
	}
	return fresh, nil
}

// WriteObservations writes a batch of observations for the item in a
// single transaction. Rows failing validation are dropped and counted,
// never written. Duplicate rows are ignored by the unique constraint,
// so replaying a fetch is harmless. Either the whole batch commits or
// none of it does.
func (s *PostgresStore) WriteObservations(
	ctx context.Context,
	itemID int64,
	obs []domain.PriceObservation,
) (WriteResult, error) {
	var res WriteResult

	valid := make([]domain.PriceObservation, 0, len(obs))
	for _, o := range obs {
		if !o.Valid() {
			res.Invalid++
			continue
		}
		valid = append(valid, o)
	}
	metrics.ObservationsInvalidTotal.Add(float64(res.Invalid))

	if len(valid) == 0 {
		return res, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("beginning observation batch: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	batch := &pgx.Batch{}
	for _, o := range valid {
		batch.Queue(queryInsertObservation, pgx.NamedArgs{
			"item_id":     itemID,
			"observed_at": o.ObservedAt,
			"value":       o.Value,
			"volume":      o.Volume,
		})
	}

	br := tx.SendBatch(ctx, batch)
	for range valid {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return WriteResult{Invalid: res.Invalid}, fmt.Errorf("writing observation batch: %w", err)
		}
		res.Written += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return WriteResult{Invalid: res.Invalid}, fmt.Errorf("closing observation batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return WriteResult{Invalid: res.Invalid}, fmt.Errorf("committing observation batch: %w", err)
	}

	metrics.ObservationsWrittenTotal.Add(float64(res.Written))
	return res, nil
}

// QueryHistory returns the item's observations at or after since,
// oldest first.
func (s *PostgresStore) QueryHistory(
	ctx context.Context,
	itemID int64,
	since time.Time,
) ([]domain.PriceObservation, error) {
	rows, err := s.pool.Query(ctx, queryHistorySince, itemID, since)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var obs []domain.PriceObservation
	for rows.Next() {
		var o domain.PriceObservation
		if err := rows.Scan(&o.ID, &o.ItemID, &o.ObservedAt, &o.Value, &o.Volume); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		obs = append(obs, o)
	}

	return obs, rows.Err()
}

// CountItems returns the total number of items.
func (s *PostgresStore) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, queryCountItems).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// CountObservations returns the total number of observations.
func (s *PostgresStore) CountObservations(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, queryCountObservations).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting observations: %w", err)
	}
	return count, nil
}
