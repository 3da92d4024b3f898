// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/catalogwatch/collector/tools/dashgen/panels"
)

// BuildOverview constructs the Collector Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Collector Overview").
		Uid("mhc-overview").
		Tags([]string{"mhc", "collector"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.DailyBudgetGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Marketplace API.
	b.WithRow(dashboard.NewRowBuilder("Marketplace API").
		WithPanel(panels.MarketRequestRate()).
		WithPanel(panels.MarketLatency()).
		WithPanel(panels.ThrottleRate()))

	// Row 4: Rate Budget.
	b.WithRow(dashboard.NewRowBuilder("Rate Budget").
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.BudgetDenials()).
		WithPanel(panels.BudgetPenalties()).
		WithPanel(panels.LimitHits()))

	// Row 5: Work Queue.
	b.WithRow(dashboard.NewRowBuilder("Work Queue").
		WithPanel(panels.QueueDepthPanel()).
		WithPanel(panels.QueueInflow()).
		WithPanel(panels.QueueRejections()))

	// Row 6: Collection.
	b.WithRow(dashboard.NewRowBuilder("Collection").
		WithPanel(panels.DiscoveryRate()).
		WithPanel(panels.ObservationsRate()).
		WithPanel(panels.FetchOutcomes()).
		WithPanel(panels.DiscoveryDurationPanel()))

	// Row 7: Notifications.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationFailures()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
