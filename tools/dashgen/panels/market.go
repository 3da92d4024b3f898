package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// MarketRequestRate returns a timeseries panel showing marketplace API
// requests per second by operation.
func MarketRequestRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Marketplace Requests").
		Description("Marketplace API requests per second by operation").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`mhc:market_requests:rate5m`, "{{operation}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// MarketLatency returns a timeseries panel showing the p95 marketplace
// request latency by operation.
func MarketLatency() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Marketplace Latency (p95)").
		Description("95th percentile marketplace API request duration by operation").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(mhc_market_request_duration_seconds_bucket{job="collector"}[5m])) by (le, operation))`,
			"{{operation}}",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ThrottleRate returns a timeseries panel showing throttle responses
// per minute.
func ThrottleRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Throttles / min").
		Description("Rate of 429 responses from the marketplace per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`mhc:throttle_responses:rate5m * 60`, "throttles/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}
