package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/catalogwatch/collector/internal/store"
	domain "github.com/catalogwatch/collector/pkg/types"
)

// ItemsHandler handles item and history query endpoints.
type ItemsHandler struct {
	store store.Store
}

// NewItemsHandler creates a new ItemsHandler.
func NewItemsHandler(s store.Store) *ItemsHandler {
	return &ItemsHandler{store: s}
}

// --- Input/Output types ---

// ListItemsInput is the input for listing tracked items.
type ListItemsInput struct {
	Collection string `query:"collection" doc:"Filter by collection ID"`
	Prefix     string `query:"prefix"     doc:"Filter by item name prefix"`
	Limit      int    `query:"limit"      doc:"Number of results (default 50)" minimum:"1" maximum:"500"`
	Offset     int    `query:"offset"     doc:"Pagination offset"              minimum:"0"`
	OrderBy    string `query:"order_by"   doc:"Sort field"                     enum:"last_updated,item_name,"`
}

// ListItemsOutput is the response for listing tracked items.
type ListItemsOutput struct {
	Body struct {
		Items  []domain.Item `json:"items"`
		Total  int           `json:"total"`
		Limit  int           `json:"limit"`
		Offset int           `json:"offset"`
	}
}

// GetItemInput identifies one item by collection and name.
type GetItemInput struct {
	Collection string `path:"collection" doc:"Collection ID"`
	Name       string `path:"name"       doc:"Item name"`
}

// GetItemOutput is the response for getting a single item.
type GetItemOutput struct {
	Body domain.Item
}

// GetHistoryInput is the input for an item's price history.
type GetHistoryInput struct {
	Collection string `path:"collection" doc:"Collection ID"`
	Name       string `path:"name"       doc:"Item name"`
	Since      string `query:"since"     doc:"Only observations at or after this RFC 3339 time"`
}

// GetHistoryOutput is the response for an item's price history,
// oldest observation first.
type GetHistoryOutput struct {
	Body struct {
		Item         domain.Item               `json:"item"`
		Observations []domain.PriceObservation `json:"observations"`
	}
}

// --- Handlers ---

// ListItems returns tracked items with optional collection and name
// prefix filters.
func (h *ItemsHandler) ListItems(
	ctx context.Context,
	input *ListItemsInput,
) (*ListItemsOutput, error) {
	q := &store.ItemQuery{
		Offset:  input.Offset,
		OrderBy: input.OrderBy,
	}

	if input.Collection != "" {
		q.CollectionID = &input.Collection
	}

	if input.Prefix != "" {
		q.NamePrefix = &input.Prefix
	}

	if input.Limit != 0 {
		q.Limit = input.Limit
	}

	items, total, err := h.store.ListItems(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("item query failed: " + err.Error())
	}

	resp := &ListItemsOutput{}
	resp.Body.Items = items
	resp.Body.Total = total
	resp.Body.Limit = q.Limit
	resp.Body.Offset = q.Offset

	return resp, nil
}

// GetItem returns a single item by collection and name.
func (h *ItemsHandler) GetItem(
	ctx context.Context,
	input *GetItemInput,
) (*GetItemOutput, error) {
	key := domain.CatalogKey{CollectionID: input.Collection, ItemName: input.Name}

	item, err := h.store.GetItem(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, huma.Error404NotFound("item not found")
		}
		return nil, huma.Error500InternalServerError("item lookup failed: " + err.Error())
	}

	return &GetItemOutput{Body: *item}, nil
}

// GetHistory returns the stored price history of one item, oldest
// first, optionally bounded by a since time.
func (h *ItemsHandler) GetHistory(
	ctx context.Context,
	input *GetHistoryInput,
) (*GetHistoryOutput, error) {
	key := domain.CatalogKey{CollectionID: input.Collection, ItemName: input.Name}

	item, err := h.store.GetItem(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, huma.Error404NotFound("item not found")
		}
		return nil, huma.Error500InternalServerError("item lookup failed: " + err.Error())
	}

	var since time.Time
	if input.Since != "" {
		since, err = time.Parse(time.RFC3339, input.Since)
		if err != nil {
			return nil, huma.Error400BadRequest("since must be RFC 3339: " + err.Error())
		}
	}

	obs, err := h.store.QueryHistory(ctx, item.ID, since)
	if err != nil {
		return nil, huma.Error500InternalServerError("history query failed: " + err.Error())
	}

	resp := &GetHistoryOutput{}
	resp.Body.Item = *item
	resp.Body.Observations = obs

	return resp, nil
}

// RegisterItemRoutes registers item endpoints with the Huma API.
func RegisterItemRoutes(api huma.API, h *ItemsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-items",
		Method:      http.MethodGet,
		Path:        "/api/v1/items",
		Summary:     "List tracked items",
		Description: "Returns tracked items with optional collection and name prefix filters.",
		Tags:        []string{"items"},
	}, h.ListItems)

	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{collection}/{name}",
		Summary:     "Get an item",
		Description: "Returns a single tracked item by collection and name.",
		Tags:        []string{"items"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetItem)

	huma.Register(api, huma.Operation{
		OperationID: "get-item-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{collection}/{name}/history",
		Summary:     "Get an item's price history",
		Description: "Returns stored price observations for one item, oldest first.",
		Tags:        []string{"items"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, h.GetHistory)
}
