package http

import (
	"strings"

	"crimedash/internal/modkit/swaggerkit"
)

// documented lists the dashboard operations for the served OpenAPI document
var documented = []struct {
	method, path, summary string
}{
	{"post", "/dashboard/datasets", "Load a dataset from a file, URL, inline CSV or database table"},
	{"get", "/dashboard/datasets/{id}", "Overview of a loaded dataset"},
	{"delete", "/dashboard/datasets/{id}", "Drop a dataset session"},
	{"post", "/dashboard/aggregate", "Zero filled monthly series per key"},
	{"post", "/dashboard/forecast", "Trend and seasonal forecast per key"},
	{"post", "/dashboard/outlook", "Ranked next period outlook for one unit"},
	{"post", "/dashboard/totals", "Totals and shares per crime type or unit"},
	{"post", "/dashboard/yearly", "Year by crime type totals"},
	{"post", "/dashboard/heatmap", "Unit by year totals for one crime type"},
	{"post", "/dashboard/correlation", "Pearson correlation between crime types"},
	{"post", "/dashboard/units/compare", "Unit by crime type totals"},
}

func init() { swaggerkit.Register(describe) }

// describe adds the dashboard operations the document does not already carry
func describe(spec map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		paths = map[string]any{}
		spec["paths"] = paths
	}
	for _, op := range documented {
		item, ok := paths[op.path].(map[string]any)
		if !ok {
			item = map[string]any{}
			paths[op.path] = item
		}
		if _, ok := item[op.method]; ok {
			continue
		}
		item[op.method] = map[string]any{
			"tags":        []any{"Dashboard"},
			"summary":     op.summary,
			"operationId": operationID(op.method, op.path),
			"responses":   map[string]any{"200": map[string]any{"description": "ok"}},
		}
	}
}

// operationID turns post /dashboard/units/compare into dashboardPostUnitsCompare
func operationID(method, path string) string {
	var b strings.Builder
	b.WriteString("dashboard")
	b.WriteString(strings.ToUpper(method[:1]) + method[1:])
	for _, part := range strings.Split(strings.TrimPrefix(path, "/dashboard"), "/") {
		part = strings.Trim(part, "{}")
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}
