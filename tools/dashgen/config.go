package main

import "errors"

// KnownMetrics is the set of metric names exported by the collector
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"mhc_http_request_duration_seconds": true,
	"mhc_http_requests_total":           true,

	// Health metrics.
	"mhc_healthz_up": true,
	"mhc_readyz_up":  true,

	// Marketplace API metrics.
	"mhc_market_requests_total":           true,
	"mhc_market_request_duration_seconds": true,
	"mhc_throttle_responses_total":        true,

	// Rate budget metrics.
	"mhc_budget_denials_total":          true,
	"mhc_budget_penalties_total":        true,
	"mhc_budget_daily_usage":            true,
	"mhc_budget_daily_limit_hits_total": true,

	// Work queue metrics.
	"mhc_queue_depth":            true,
	"mhc_queue_enqueued_total":   true,
	"mhc_queue_dropped_total":    true,
	"mhc_queue_duplicates_total": true,

	// Collection metrics.
	"mhc_items_discovered_total":     true,
	"mhc_observations_written_total": true,
	"mhc_observations_invalid_total": true,
	"mhc_fresh_skips_total":          true,
	"mhc_fetch_retries_total":        true,
	"mhc_items_dropped_total":        true,
	"mhc_discovery_duration_seconds": true,

	// Notification metrics.
	"mhc_notification_failures_total": true,

	// Recording rules.
	"mhc:http_requests:rate5m":        true,
	"mhc:http_errors:rate5m":          true,
	"mhc:market_requests:rate5m":      true,
	"mhc:throttle_responses:rate5m":   true,
	"mhc:items_discovered:rate5m":     true,
	"mhc:observations_written:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
