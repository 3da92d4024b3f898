// Package validate checks generated dashboards and rules against the
// set of metrics the collector actually exports. Queries that fail to
// parse or reference unknown metrics are caught before deployment.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"
)

// Result collects validation findings. Errors fail validation;
// Warnings do not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation passed.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Dashboard validates every PromQL expression found in a built
// dashboard. The dashboard is inspected through its JSON form so the
// walk does not depend on SDK struct layout.
func Dashboard(dash any, known map[string]bool) Result {
	var result Result

	data, err := json.Marshal(dash)
	if err != nil {
		result.errorf("marshaling dashboard: %v", err)
		return result
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		result.errorf("parsing dashboard JSON: %v", err)
		return result
	}

	for _, expr := range collectExprs(tree) {
		checkExpr(&result, expr, known)
	}
	return result
}

// Exprs validates a flat list of PromQL expressions, as used for
// recording and alert rules.
func Exprs(exprs []string, known map[string]bool) Result {
	var result Result
	for _, expr := range exprs {
		checkExpr(&result, expr, known)
	}
	return result
}

// collectExprs walks decoded JSON and gathers the value of every
// "expr" key.
func collectExprs(node any) []string {
	var exprs []string
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if key == "expr" {
				if s, ok := child.(string); ok && s != "" {
					exprs = append(exprs, s)
				}
				continue
			}
			exprs = append(exprs, collectExprs(child)...)
		}
	case []any:
		for _, child := range v {
			exprs = append(exprs, collectExprs(child)...)
		}
	}
	return exprs
}

func checkExpr(result *Result, expr string, known map[string]bool) {
	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		result.errorf("invalid PromQL %q: %v", expr, err)
		return
	}

	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !known[baseMetric(vs.Name)] {
			result.errorf("unknown metric %q in %q", vs.Name, expr)
		}
		return nil
	})
}

// baseMetric strips the series suffixes Prometheus appends to
// histogram and summary metrics.
func baseMetric(name string) string {
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok {
			return trimmed
		}
	}
	return name
}
