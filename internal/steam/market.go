package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/catalogwatch/collector/internal/metrics"
	"github.com/catalogwatch/collector/internal/ratelimit"
	domain "github.com/catalogwatch/collector/pkg/types"
)

const (
	defaultBaseURL  = "https://steamcommunity.com/market"
	defaultPageSize = 100

	// Sent so responses match what the marketplace serves to browsers;
	// some endpoints reject clients without it.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Client implements MarketClient against the Steam Community Market
// endpoints. Every request is gated by the shared budget and paced by
// a minimum inter-request delay.
type Client struct {
	baseURL    string
	sessionID  string
	loginToken string
	pageSize   int
	client     *http.Client
	budget     *ratelimit.Budget
	pacer      *rate.Limiter
	log        *slog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the default marketplace endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithPageSize overrides the catalog page size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMinRequestDelay sets the pacing floor between requests,
// independent of the windowed budget.
func WithMinRequestDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.pacer = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a marketplace client. The session cookies
// authenticate history requests; the budget is consulted before every
// call and is shared with the rest of the collector.
func NewClient(sessionID, loginToken string, budget *ratelimit.Budget, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		sessionID:  sessionID,
		loginToken: loginToken,
		pageSize:   defaultPageSize,
		client:     &http.Client{Timeout: 10 * time.Second},
		budget:     budget,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type catalogAPIResponse struct {
	Success    bool `json:"success"`
	TotalCount int  `json:"total_count"`
	Results    []struct {
		HashName string `json:"hash_name"`
		Name     string `json:"name"`
	} `json:"results"`
}

// ListCatalogPage fetches one page of the collection's catalog
// listing. Pages are numbered from 1.
func (c *Client) ListCatalogPage(
	ctx context.Context,
	collectionID string,
	page int,
) (*CatalogPage, error) {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * c.pageSize

	params := url.Values{}
	params.Set("appid", collectionID)
	params.Set("start", strconv.Itoa(start))
	params.Set("count", strconv.Itoa(c.pageSize))
	params.Set("norender", "1")
	u := c.baseURL + "/search/render/?" + params.Encode()

	body, err := c.get(ctx, u, collectionID, ratelimit.OpCatalog)
	if err != nil {
		return nil, err
	}

	var apiResp catalogAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: parsing catalog page: %v", ErrMalformedResponse, err)
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("%w: catalog page reported failure", ErrMalformedResponse)
	}

	entries := make([]CatalogEntry, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		name := r.HashName
		if name == "" {
			name = r.Name
		}
		if name == "" {
			continue
		}
		entries = append(entries, CatalogEntry{Name: name})
	}

	return &CatalogPage{
		Entries:    entries,
		Start:      start,
		TotalCount: apiResp.TotalCount,
	}, nil
}

// historyAPIResponse rows arrive as [timestamp, price, volume] where
// volume is a string.
type historyAPIResponse struct {
	Success bool              `json:"success"`
	Prices  []json.RawMessage `json:"prices"`
}

// FetchHistory fetches the full price history of one item. Rows whose
// timestamp or volume fail to parse are dropped and logged; a 400 with
// an empty body list means the item permanently has no history.
func (c *Client) FetchHistory(
	ctx context.Context,
	key domain.CatalogKey,
) ([]RawObservation, error) {
	params := url.Values{}
	params.Set("appid", key.CollectionID)
	params.Set("market_hash_name", key.ItemName)
	u := c.baseURL + "/pricehistory/?" + params.Encode()

	body, err := c.get(ctx, u, key.CollectionID, ratelimit.OpHistory)
	if err != nil {
		return nil, err
	}

	var apiResp historyAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: parsing history for %s: %v", ErrMalformedResponse, key, err)
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("%w: history for %s reported failure", ErrMalformedResponse, key)
	}

	obs := make([]RawObservation, 0, len(apiResp.Prices))
	for _, raw := range apiResp.Prices {
		var row [3]json.RawMessage
		if err := json.Unmarshal(raw, &row); err != nil {
			c.log.Debug("dropping unparseable history row", "key", key.String(), "err", err)
			continue
		}

		var ts string
		var value float64
		var volumeStr string
		if err := json.Unmarshal(row[0], &ts); err != nil {
			continue
		}
		if err := json.Unmarshal(row[1], &value); err != nil {
			continue
		}
		if err := json.Unmarshal(row[2], &volumeStr); err != nil {
			continue
		}

		observedAt, err := ParseMarketTime(ts)
		if err != nil {
			c.log.Debug("dropping history row with bad timestamp",
				"key", key.String(), "timestamp", ts)
			continue
		}
		volume, err := strconv.ParseInt(volumeStr, 10, 64)
		if err != nil {
			c.log.Debug("dropping history row with bad volume",
				"key", key.String(), "volume", volumeStr)
			continue
		}

		obs = append(obs, RawObservation{
			ObservedAt: observedAt,
			Value:      value,
			Volume:     volume,
		})
	}

	return obs, nil
}

// get performs a budget-gated, paced GET and classifies error
// responses. operation selects which budget window the call consumes.
func (c *Client) get(ctx context.Context, u, scope, operation string) ([]byte, error) {
	granted, wait := c.budget.TryAcquire(scope, operation)
	if !granted {
		return nil, &BudgetDeniedError{Scope: scope, Operation: operation, Wait: wait}
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pacing wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if operation == ratelimit.OpHistory {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: c.sessionID})
		req.AddCookie(&http.Cookie{Name: "steamLoginSecure", Value: c.loginToken})
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.MarketRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("executing marketplace request: %w", err)
	}
	defer resp.Body.Close()
	metrics.MarketRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.MarketRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		metrics.MarketRequestsTotal.WithLabelValues(operation, "ok").Inc()
		return body, nil

	case http.StatusTooManyRequests:
		metrics.MarketRequestsTotal.WithLabelValues(operation, "throttled").Inc()
		metrics.ThrottleResponsesTotal.Inc()
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.budget.Penalize(scope, operation, retryAfter)
		return nil, &ThrottledError{RetryAfter: retryAfter}

	case http.StatusBadRequest:
		// The API answers 400 with an empty list for items that have
		// never traded. That is a permanent condition, not an error to
		// retry.
		if isEmptyListBody(body) {
			metrics.MarketRequestsTotal.WithLabelValues(operation, "no_data").Inc()
			return nil, fmt.Errorf("fetching %s: %w", u, ErrNoHistory)
		}
		metrics.MarketRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("marketplace error (status %d): %s", resp.StatusCode, string(body))

	default:
		metrics.MarketRequestsTotal.WithLabelValues(operation, "error").Inc()
		return nil, fmt.Errorf("marketplace error (status %d): %s", resp.StatusCode, string(body))
	}
}

// parseRetryAfter reads a Retry-After header in seconds form. Missing
// or invalid values return zero, leaving backoff to the budget.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// isEmptyListBody reports whether the body is an empty JSON array,
// ignoring whitespace.
func isEmptyListBody(body []byte) bool {
	var v []json.RawMessage
	if err := json.Unmarshal(body, &v); err != nil {
		return false
	}
	return len(v) == 0
}
