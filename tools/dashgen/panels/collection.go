package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// DiscoveryRate returns a timeseries panel showing items seen by the
// discovery walk per minute.
func DiscoveryRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Items Discovered / min").
		Description("Rate of items seen by the discovery walk per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`mhc:items_discovered:rate5m * 60`, "items/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// ObservationsRate returns a timeseries panel showing observation rows
// written per second.
func ObservationsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Observations Written").
		Description("Observation rows written to the store per second").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`mhc:observations_written:rate5m`, "rows/s", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// FetchOutcomes returns a timeseries panel showing retry, drop, skip,
// and invalid-row rates per minute.
func FetchOutcomes() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Fetch Outcomes / min").
		Description("Retries, drops, fresh skips, and invalid rows per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`rate(mhc_fetch_retries_total{job="collector"}[5m]) * 60`,
			"retries", "A",
		)).
		WithTarget(PromQuery(
			`rate(mhc_items_dropped_total{job="collector"}[5m]) * 60`,
			"dropped", "B",
		)).
		WithTarget(PromQuery(
			`rate(mhc_fresh_skips_total{job="collector"}[5m]) * 60`,
			"fresh skips", "C",
		)).
		WithTarget(PromQuery(
			`rate(mhc_observations_invalid_total{job="collector"}[5m]) * 60`,
			"invalid rows", "D",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// DiscoveryDurationPanel returns a timeseries panel showing the p95
// discovery walk duration.
func DiscoveryDurationPanel() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Discovery Duration (p95)").
		Description("95th percentile discovery walk duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(FullWidth).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(mhc_discovery_duration_seconds_bucket{job="collector"}[30m])) by (le))`,
			"p95",
			"A",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
