package store

// SQL query constants organized by entity.
// All SQL lives here — PostgresStore methods reference these constants.

// Item queries.
const (
	queryUpsertItem = `
		INSERT INTO items (collection_id, item_name, last_updated)
		VALUES (@collection_id, @item_name, now())
		ON CONFLICT (collection_id, item_name) DO UPDATE SET
			last_updated = now()
		RETURNING id`

	queryGetItem = `
		SELECT id, collection_id, item_name, last_updated
		FROM items
		WHERE collection_id = $1 AND item_name = $2`

	queryListItemKeys = `
		SELECT collection_id, item_name
		FROM items`

	queryIsFresh = `
		SELECT EXISTS(
			SELECT 1 FROM items
			WHERE collection_id = $1 AND item_name = $2 AND last_updated > $3
		)`

	queryCountItems = `SELECT COUNT(*) FROM items`
)

// Observation queries.
const (
	queryInsertObservation = `
		INSERT INTO observations (item_id, observed_at, value, volume)
		VALUES (@item_id, @observed_at, @value, @volume)
		ON CONFLICT (item_id, observed_at, value, volume) DO NOTHING`

	queryHistorySince = `
		SELECT id, item_id, observed_at, value, volume
		FROM observations
		WHERE item_id = $1 AND observed_at >= $2
		ORDER BY observed_at ASC`

	queryCountObservations = `SELECT COUNT(*) FROM observations`
)
