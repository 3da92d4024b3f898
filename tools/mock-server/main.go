// Package main implements a mock marketplace API server for local development.
// It serves the catalog search and price history endpoints from a JSON fixture
// so the collector can run without touching the real marketplace, and can
// optionally simulate throttling to exercise the backoff path.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

// catalogFixture maps collection IDs to the item names they contain.
type catalogFixture struct {
	Collections map[string][]string `json:"collections"`
}

type catalogResponse struct {
	Success    bool           `json:"success"`
	TotalCount int            `json:"total_count"`
	Results    []catalogEntry `json:"results"`
}

type catalogEntry struct {
	HashName string `json:"hash_name"`
	Name     string `json:"name"`
}

type historyResponse struct {
	Success bool    `json:"success"`
	Prices  [][]any `json:"prices"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/catalog.json", "path to catalog fixture")
	throttleEvery := flag.Int("throttle-every", 0, "answer every Nth request with 429 (0 disables)")
	historyDays := flag.Int("history-days", 30, "days of generated history per item")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	total := 0
	for _, names := range fixture.Collections {
		total += len(names)
	}
	logger.Info("loaded fixture", "collections", len(fixture.Collections), "items", total)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /market/search/render/", catalogHandler(logger, fixture))
	mux.HandleFunc("GET /market/pricehistory/", historyHandler(logger, fixture, *historyDays))

	handler := requestLogger(logger, mux)
	if *throttleEvery > 0 {
		handler = throttler(logger, handler, *throttleEvery)
	}

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*catalogFixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fixture catalogFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	if len(fixture.Collections) == 0 {
		return nil, fmt.Errorf("fixture has no collections")
	}
	return &fixture, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// throttler answers every Nth request with a 429 and a Retry-After
// header so the collector's penalty handling can be exercised locally.
func throttler(logger *slog.Logger, next http.Handler, every int) http.Handler {
	var count atomic.Int64
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if count.Add(1)%int64(every) == 0 {
			logger.Info("throttling request", "path", r.URL.Path)
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func catalogHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collectionID := r.URL.Query().Get("appid")
		names, ok := fixture.Collections[collectionID]
		if !ok {
			http.Error(w, "unknown appid", http.StatusNotFound)
			return
		}

		start := 0
		if v, err := strconv.Atoi(r.URL.Query().Get("start")); err == nil && v >= 0 {
			start = v
		}
		count := 100
		if v, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && v > 0 {
			count = v
		}

		var page []string
		if start < len(names) {
			end := min(start+count, len(names))
			page = names[start:end]
		}

		results := make([]catalogEntry, 0, len(page))
		for _, name := range page {
			results = append(results, catalogEntry{HashName: name, Name: name})
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(catalogResponse{
			Success:    true,
			TotalCount: len(names),
			Results:    results,
		})
		logger.Info("catalog page", "collection", collectionID,
			"start", start, "returned", len(results), "total", len(names))
	}
}

func historyHandler(logger *slog.Logger, fixture *catalogFixture, days int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// History requires the session cookies a browser would carry.
		if !hasCookie(r, "sessionid") || !hasCookie(r, "steamLoginSecure") {
			logger.Warn("history request missing session cookies")
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}

		collectionID := r.URL.Query().Get("appid")
		name := r.URL.Query().Get("market_hash_name")

		if !containsItem(fixture, collectionID, name) {
			// The real endpoint answers 400 with an empty list for items
			// that have never traded.
			logger.Info("no history", "collection", collectionID, "item", name)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			w.Write([]byte("[]"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(historyResponse{
			Success: true,
			Prices:  generateHistory(collectionID, name, days),
		})
		logger.Info("history", "collection", collectionID, "item", name, "days", days)
	}
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

func containsItem(fixture *catalogFixture, collectionID, name string) bool {
	for _, n := range fixture.Collections[collectionID] {
		if n == name {
			return true
		}
	}
	return false
}

// generateHistory produces one deterministic daily price point per day,
// seeded from the item name so repeated fetches agree. Rows use the
// marketplace wire format: ["Jan 02 2006 15: +0", price, "volume"].
func generateHistory(collectionID, name string, days int) [][]any {
	h := fnv.New64a()
	//nolint:errcheck,gosec // hash writes never fail
	h.Write([]byte(collectionID + "/" + name))
	seed := h.Sum64()

	base := float64(seed%9000)/100 + 1 // 1.00 to 90.99
	now := time.Now().UTC().Truncate(24 * time.Hour)

	rows := make([][]any, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		// A small deterministic wobble around the base price.
		wobble := float64((seed>>uint(i%32))%200)/100 - 1
		price := base + wobble
		if price < 0.01 {
			price = 0.01
		}
		volume := int64(seed%50 + uint64(i)%17 + 1)

		rows = append(rows, []any{
			day.Format("Jan 02 2006 15:") + " +0",
			price,
			strconv.FormatInt(volume, 10),
		})
	}
	return rows
}
