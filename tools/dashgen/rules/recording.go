package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "mhc-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "mhc-recording",
					Rules: []Rule{
						{
							Record: "mhc:http_requests:rate5m",
							Expr:   `sum(rate(mhc_http_requests_total[5m]))`,
						},
						{
							Record: "mhc:http_errors:rate5m",
							Expr:   `sum(rate(mhc_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "mhc:market_requests:rate5m",
							Expr:   `sum(rate(mhc_market_requests_total[5m])) by (operation)`,
						},
						{
							Record: "mhc:throttle_responses:rate5m",
							Expr:   `rate(mhc_throttle_responses_total[5m])`,
						},
						{
							Record: "mhc:items_discovered:rate5m",
							Expr:   `rate(mhc_items_discovered_total[5m])`,
						},
						{
							Record: "mhc:observations_written:rate5m",
							Expr:   `rate(mhc_observations_written_total[5m])`,
						},
					},
				},
			},
		},
	}
}
