package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	domain "github.com/catalogwatch/collector/pkg/types"
)

// ItemsResponse wraps a paginated items response.
type ItemsResponse struct {
	Items []domain.Item `json:"items"`
	Total int           `json:"total"`
}

// HistoryResponse wraps an item's stored price history.
type HistoryResponse struct {
	Item         domain.Item               `json:"item"`
	Observations []domain.PriceObservation `json:"observations"`
}

// ListItemsParams defines query parameters for item queries.
type ListItemsParams struct {
	Collection string
	Prefix     string
	Limit      int
	Offset     int
	OrderBy    string
}

// ListItems returns tracked items matching the given parameters.
func (c *Client) ListItems(
	ctx context.Context,
	params *ListItemsParams,
) (*ItemsResponse, error) {
	q := url.Values{}
	if params.Collection != "" {
		q.Set("collection", params.Collection)
	}
	if params.Prefix != "" {
		q.Set("prefix", params.Prefix)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
	}

	path := "/api/v1/items"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ItemsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func itemPath(collection, name string) string {
	return fmt.Sprintf("/api/v1/items/%s/%s",
		url.PathEscape(collection), url.PathEscape(name))
}

// GetItem returns a single tracked item.
func (c *Client) GetItem(ctx context.Context, collection, name string) (*domain.Item, error) {
	var item domain.Item
	if err := c.get(ctx, itemPath(collection, name), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetHistory returns an item's stored price history, oldest first.
// A zero since fetches everything.
func (c *Client) GetHistory(
	ctx context.Context,
	collection, name string,
	since time.Time,
) (*HistoryResponse, error) {
	path := itemPath(collection, name) + "/history"
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.Format(time.RFC3339))
	}

	var resp HistoryResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
