// Package insights turns a filtered table into an analysis: it builds the
// generation prompt, validates the model's reply and produces the
// deterministic fallback when the reply cannot be used.
package insights

import (
	"regexp"
	"strings"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
)

const (
	MetricTotalRows    = "total_rows"
	MetricTotalColumns = "total_columns"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// KeyMetrics returns the deterministic metrics for a table: row and column
// counts plus the sum of every numeric column whose header names a metric.
func KeyMetrics(t *dataset.Table, c dataset.Classification) map[string]float64 {
	out := map[string]float64{
		MetricTotalRows:    float64(len(t.Rows)),
		MetricTotalColumns: float64(len(t.Headers)),
	}
	for _, h := range c.Numerics {
		if !dataset.IsMetricColumn(h) {
			continue
		}
		out["total_"+Snake(h)] = roundTo2(sumColumn(t, h))
	}
	return out
}

// MergeKeyMetrics overlays generated metrics on the deterministic ones.
func MergeKeyMetrics(base, generated map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(generated))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range generated {
		out[k] = v
	}
	return out
}

// Snake converts a header into a lower_snake_case metric key.
func Snake(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

func sumColumn(t *dataset.Table, header string) float64 {
	var total float64
	for _, v := range numbers(t, header) {
		total += v
	}
	return total
}

func numbers(t *dataset.Table, header string) []float64 {
	values := t.Column(header)
	out := make([]float64, 0, len(values))
	for _, s := range values {
		if v, ok := dataset.ParseNumber(s); ok {
			out = append(out, v)
		}
	}
	return out
}
