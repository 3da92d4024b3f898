package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByLastUpdated = "last_updated"
	orderByItemName    = "item_name"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByLastUpdated: "last_updated DESC",
	orderByItemName:    "item_name ASC",
}

const defaultOrderBy = "last_updated DESC"

const baseItemsSelect = `SELECT id, collection_id, item_name, last_updated
FROM items`

const countItemsSelect = "SELECT COUNT(*) FROM items"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for an
// item query. It returns two SQL strings (one for the data query, one
// for the count query) and the positional parameters.
func (q *ItemQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.CollectionID != nil {
		conditions = append(conditions, fmt.Sprintf("collection_id = $%d", paramIdx))
		args = append(args, *q.CollectionID)
		paramIdx++
	}

	if q.NamePrefix != nil {
		conditions = append(conditions, fmt.Sprintf("item_name LIKE $%d", paramIdx))
		args = append(args, *q.NamePrefix+"%")
		paramIdx++ //nolint:ineffassign,wasted-assign // keeps the pattern when filters grow
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderClause := defaultOrderBy
	if q.OrderBy != "" {
		if col, ok := validOrderBy[q.OrderBy]; ok {
			orderClause = col
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseItemsSelect, whereClause, orderClause, limit, offset,
	)

	countSQL = countItemsSelect + whereClause

	return dataSQL, countSQL, args
}
