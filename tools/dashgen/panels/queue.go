package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// QueueDepthPanel returns a timeseries panel showing the number of
// items waiting in the work queue.
func QueueDepthPanel() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Queue Depth").
		Description("Items waiting in the work queue").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`mhc_queue_depth{job="collector"}`, "depth", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// QueueInflow returns a timeseries panel showing enqueue rates per
// minute by priority tier.
func QueueInflow() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Enqueued / min").
		Description("Items enqueued per minute by priority tier").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(mhc_queue_enqueued_total{job="collector"}[5m])) by (priority) * 60`,
			"{{priority}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// QueueRejections returns a timeseries panel showing capacity drops and
// duplicate rejections per hour.
func QueueRejections() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Rejections (1h)").
		Description("Capacity drops and duplicate rejections over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`increase(mhc_queue_dropped_total{job="collector"}[1h])`,
			"dropped", "A",
		)).
		WithTarget(PromQuery(
			`increase(mhc_queue_duplicates_total{job="collector"}[1h])`,
			"duplicates", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
