// Package charts derives chart descriptors from a classified table.
package charts

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
)

type Type string

const (
	TypeLine Type = "line"
	TypeBar  Type = "bar"
	TypePie  Type = "pie"
	TypeArea Type = "area"
)

const (
	maxLineCharts      = 3
	maxBarPoints       = 10
	maxPiePoints       = 8
	maxComparedMetrics = 5
	barLabelMax        = 20
	pieLabelMax        = 15
	unknownLabel       = "Unknown"
)

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

type Point struct {
	Label    string  `json:"label" firestore:"label"`
	Value    float64 `json:"value" firestore:"value"`
	Date     string  `json:"date,omitempty" firestore:"date,omitempty"`
	Category string  `json:"category,omitempty" firestore:"category,omitempty"`
}

type Descriptor struct {
	Type       Type     `json:"type" firestore:"type"`
	Title      string   `json:"title" firestore:"title"`
	Series     []Point  `json:"series" firestore:"series"`
	XAxisLabel string   `json:"xAxisLabel" firestore:"xAxisLabel"`
	YAxisLabel string   `json:"yAxisLabel" firestore:"yAxisLabel"`
	Colors     []string `json:"colors" firestore:"colors"`
}

// Build returns the charts that can be drawn from rows. Output is deterministic
// for identical input and charts with fewer than two points are omitted. The
// report type hint only affects titles.
func Build(headers []string, rows [][]string, c dataset.Classification, hint string) []Descriptor {
	t := &dataset.Table{Headers: headers, Rows: rows}
	prefix := titlePrefix(hint)

	var out []Descriptor
	out = append(out, lineCharts(t, c, prefix)...)
	if d, ok := barChart(t, c, prefix); ok {
		out = append(out, d)
	}
	if d, ok := pieChart(t, c, prefix); ok {
		out = append(out, d)
	}
	if d, ok := comparisonChart(t, c, prefix); ok {
		out = append(out, d)
	}
	return out
}

func lineCharts(t *dataset.Table, c dataset.Classification, prefix string) []Descriptor {
	dateCol, ok := c.FirstDate()
	if !ok {
		return nil
	}
	di := t.Index(dateCol)

	var out []Descriptor
	for i, metric := range c.Numerics[:min(maxLineCharts, len(c.Numerics))] {
		mi := t.Index(metric)

		type dated struct {
			at    time.Time
			point Point
		}
		var pts []dated
		for _, row := range t.Rows {
			at, ok := dataset.ParseDate(row[di])
			if !ok {
				continue
			}
			v, ok := dataset.ParseNumber(row[mi])
			if !ok {
				continue
			}
			day := at.Format(time.DateOnly)
			pts = append(pts, dated{at: at, point: Point{Label: day, Value: roundTo2(v), Date: day}})
		}
		if len(pts) < 2 {
			continue
		}
		slices.SortStableFunc(pts, func(a, b dated) int { return a.at.Compare(b.at) })

		series := make([]Point, len(pts))
		for j, p := range pts {
			series[j] = p.point
		}
		out = append(out, Descriptor{
			Type:       TypeLine,
			Title:      prefix + metric + " over time",
			Series:     series,
			XAxisLabel: dateCol,
			YAxisLabel: metric,
			Colors:     []string{defaultColors[i%len(defaultColors)]},
		})
	}
	return out
}

func barChart(t *dataset.Table, c dataset.Classification, prefix string) (Descriptor, bool) {
	metric, ok := c.FirstNumeric()
	if !ok {
		return Descriptor{}, false
	}
	group, ok := c.FirstCategorical()
	if !ok {
		if group, ok = firstPlainColumn(t.Headers, c); !ok {
			return Descriptor{}, false
		}
	}

	series := topGroups(t, group, metric, maxBarPoints, barLabelMax)
	if len(series) < 2 {
		return Descriptor{}, false
	}
	return Descriptor{
		Type:       TypeBar,
		Title:      prefix + metric + " by " + group,
		Series:     series,
		XAxisLabel: group,
		YAxisLabel: metric,
		Colors:     assignColors(len(series)),
	}, true
}

func pieChart(t *dataset.Table, c dataset.Classification, prefix string) (Descriptor, bool) {
	metric, ok := c.FirstNumeric()
	if !ok {
		return Descriptor{}, false
	}
	group, ok := c.FirstCategorical()
	if !ok {
		return Descriptor{}, false
	}

	series := topGroups(t, group, metric, maxPiePoints, pieLabelMax)
	if len(series) < 2 {
		return Descriptor{}, false
	}
	return Descriptor{
		Type:       TypePie,
		Title:      prefix + metric + " share by " + group,
		Series:     series,
		XAxisLabel: group,
		YAxisLabel: metric,
		Colors:     assignColors(len(series)),
	}, true
}

func comparisonChart(t *dataset.Table, c dataset.Classification, prefix string) (Descriptor, bool) {
	if len(c.Numerics) < 2 {
		return Descriptor{}, false
	}
	metrics := c.Numerics[:min(maxComparedMetrics, len(c.Numerics))]

	series := make([]Point, 0, len(metrics))
	for _, m := range metrics {
		series = append(series, Point{Label: m, Value: roundTo2(sum(t.Column(m)))})
	}
	return Descriptor{
		Type:       TypeBar,
		Title:      prefix + "Metric comparison",
		Series:     series,
		XAxisLabel: "Metric",
		YAxisLabel: "Total",
		Colors:     assignColors(len(series)),
	}, true
}

// topGroups sums metric per distinct value of group, orders by total
// descending then label, and keeps the first limit groups.
func topGroups(t *dataset.Table, group, metric string, limit, labelMax int) []Point {
	gi, mi := t.Index(group), t.Index(metric)

	totals := make(map[string]float64)
	for _, row := range t.Rows {
		label := row[gi]
		if label == "" {
			label = unknownLabel
		}
		v, _ := dataset.ParseNumber(row[mi])
		totals[label] += v
	}

	series := make([]Point, 0, len(totals))
	for label, v := range totals {
		series = append(series, Point{Label: label, Value: v, Category: label})
	}
	slices.SortFunc(series, func(a, b Point) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})

	series = series[:min(limit, len(series))]
	for i := range series {
		series[i].Label = truncate(series[i].Label, labelMax)
		series[i].Value = roundTo2(series[i].Value)
	}
	return series
}

func firstPlainColumn(headers []string, c dataset.Classification) (string, bool) {
	for _, h := range headers {
		switch c.Roles[h] {
		case dataset.RoleNumeric, dataset.RoleDate:
			continue
		}
		return h, true
	}
	return "", false
}

func sum(values []string) float64 {
	var total float64
	for _, s := range values {
		if v, ok := dataset.ParseNumber(s); ok {
			total += v
		}
	}
	return total
}

func truncate(label string, max int) string {
	r := []rune(label)
	if len(r) <= max {
		return label
	}
	return string(r[:max]) + "..."
}

func titlePrefix(hint string) string {
	if hint == "" || hint == "general" {
		return ""
	}
	words := strings.Split(hint, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ") + ": "
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := range count {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
