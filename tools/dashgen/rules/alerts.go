package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// collector operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "mhc-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "mhc-alerts",
					Rules: []Rule{
						{
							Alert: "CollectorDown",
							Expr:  `absent(up{job="collector"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Market history collector is down",
								"description": "The collector job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "CollectorReadinessDown",
							Expr:  `mhc_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Collector readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "CollectorHighErrorRate",
							Expr:  `mhc:http_errors:rate5m / mhc:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on the collector API",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "CollectorThrottleStreak",
							Expr:  `increase(mhc_throttle_responses_total[1m]) >= 3`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Marketplace is throttling the collector",
								"description": "Three or more 429 responses were received within one minute.",
							},
						},
						{
							Alert: "CollectorDailyBudgetHigh",
							Expr:  `mhc_budget_daily_usage > 10000`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Daily request budget is above 80% of the limit",
								"description": "Rolling 24h marketplace request usage has exceeded 10000 calls (limit is 12000).",
							},
						},
						{
							Alert: "CollectorDailyLimitReached",
							Expr:  `increase(mhc_budget_daily_limit_hits_total[5m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Daily request limit has been reached",
								"description": "The rolling 24h request budget has been exhausted. Collection is stalled until the window slides.",
							},
						},
						{
							Alert: "CollectorQueueSaturated",
							Expr:  `increase(mhc_queue_dropped_total[10m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Work queue is dropping items",
								"description": "The work queue has been evicting items at capacity within the last 10 minutes.",
							},
						},
						{
							Alert: "CollectorNotificationFailures",
							Expr:  `increase(mhc_notification_failures_total[5m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more event notifications (Discord webhooks) have failed to send.",
							},
						},
					},
				},
			},
		},
	}
}
