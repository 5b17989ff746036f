package insights

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

const (
	maxColumnInsights   = 5
	volatileCoefficient = 1.0
	dominantShare       = 0.5
	significantChange   = 0.2
)

// Result is an analysis before it is stored.
type Result struct {
	Summary         string
	Insights        []models.Insight
	Recommendations []models.Recommendation
	KeyMetrics      map[string]float64
	Source          models.ResultSource
}

// Result merges a validated generation with the deterministic key metrics.
func (g *Generation) Result(base map[string]float64) Result {
	return Result{
		Summary:         g.Summary,
		Insights:        g.Insights,
		Recommendations: g.Recommendations,
		KeyMetrics:      MergeKeyMetrics(base, g.KeyMetrics),
		Source:          models.SourceGenerated,
	}
}

// ColumnSummary holds descriptive statistics for one numeric column.
type ColumnSummary struct {
	Header string  `json:"header"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes descriptive statistics over the parseable values of a
// column. It reports false when the column has no numeric values.
func Describe(t *dataset.Table, header string) (ColumnSummary, bool) {
	data := stats.Float64Data(numbers(t, header))
	if data.Len() == 0 {
		return ColumnSummary{}, false
	}

	sum, _ := data.Sum()
	mean, _ := data.Mean()
	median, _ := data.Median()
	stdDev, _ := data.StandardDeviation()
	minimum, _ := data.Min()
	maximum, _ := data.Max()

	return ColumnSummary{
		Header: header,
		Count:  data.Len(),
		Sum:    roundTo2(sum),
		Mean:   roundTo2(mean),
		Median: roundTo2(median),
		StdDev: roundTo2(stdDev),
		Min:    minimum,
		Max:    maximum,
	}, true
}

// Fallback builds an analysis from column statistics alone. It always has a
// summary and the total_rows and total_columns key metrics.
func Fallback(t *dataset.Table, c dataset.Classification, reportType models.ReportType) Result {
	var summaries []ColumnSummary
	for _, h := range c.Numerics {
		if s, ok := Describe(t, h); ok {
			summaries = append(summaries, s)
		}
	}

	var found []models.Insight
	for _, s := range summaries[:min(maxColumnInsights, len(summaries))] {
		found = append(found, columnInsight(s))
	}
	if s, ok := first(summaries); ok {
		if in, ok := trendInsight(t, c, s.Header); ok {
			found = append(found, in)
		}
		if in, ok := leaderInsight(t, c, s.Header); ok {
			found = append(found, in)
		}
	}
	if len(found) == 0 {
		found = append(found, models.Insight{
			Title:       "Dataset overview",
			Description: fmt.Sprintf("The dataset has %d rows and %d columns but no numeric columns to measure.", len(t.Rows), len(t.Headers)),
			Impact:      models.LevelLow,
		})
	}

	return Result{
		Summary:         fallbackSummary(t, c, reportType, summaries),
		Insights:        found,
		Recommendations: recommendationsFor(reportType),
		KeyMetrics:      KeyMetrics(t, c),
		Source:          models.SourceFallback,
	}
}

func fallbackSummary(t *dataset.Table, c dataset.Classification, reportType models.ReportType, summaries []ColumnSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %d rows across %d columns for a %s report.", len(t.Rows), len(t.Headers), ReportLabel(reportType))
	if s, ok := first(summaries); ok {
		fmt.Fprintf(&b, " %s totals %s with an average of %s per row.", s.Header, formatNumber(s.Sum), formatNumber(s.Mean))
	}
	if from, to, ok := dateSpan(t, c); ok {
		fmt.Fprintf(&b, " The data covers %s to %s.", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return b.String()
}

func columnInsight(s ColumnSummary) models.Insight {
	in := models.Insight{
		Title: s.Header + " overview",
		Description: fmt.Sprintf("%s totals %s across %d values (mean %s, median %s, range %s to %s).",
			s.Header, formatNumber(s.Sum), s.Count, formatNumber(s.Mean), formatNumber(s.Median),
			formatNumber(s.Min), formatNumber(s.Max)),
		Impact: models.LevelMedium,
		Metric: s.Header,
	}
	if s.Mean != 0 && math.Abs(s.StdDev/s.Mean) > volatileCoefficient {
		in.Title = s.Header + " is highly variable"
		in.Description += " Values swing widely between rows, so a few rows drive most of the total."
		in.Impact = models.LevelHigh
	}
	return in
}

// trendInsight compares the first and second half of the rows in date order.
func trendInsight(t *dataset.Table, c dataset.Classification, metric string) (models.Insight, bool) {
	dateCol, ok := c.FirstDate()
	if !ok {
		return models.Insight{}, false
	}
	di, mi := t.Index(dateCol), t.Index(metric)

	type point struct {
		at    time.Time
		value float64
	}
	var pts []point
	for _, row := range t.Rows {
		at, ok := dataset.ParseDate(row[di])
		if !ok {
			continue
		}
		v, ok := dataset.ParseNumber(row[mi])
		if !ok {
			continue
		}
		pts = append(pts, point{at, v})
	}
	if len(pts) < 4 {
		return models.Insight{}, false
	}
	slices.SortStableFunc(pts, func(a, b point) int { return a.at.Compare(b.at) })

	var early, late float64
	half := len(pts) / 2
	for i, p := range pts {
		if i < half {
			early += p.value
		} else {
			late += p.value
		}
	}
	if early == 0 {
		return models.Insight{}, false
	}
	change := (late - early) / math.Abs(early)

	direction := "increased"
	if change < 0 {
		direction = "decreased"
	}
	impact := models.LevelMedium
	if math.Abs(change) > significantChange {
		impact = models.LevelHigh
	}
	return models.Insight{
		Title:       fmt.Sprintf("%s %s over the period", metric, direction),
		Description: fmt.Sprintf("%s %s by %.1f%% between the first and second half of the period.", metric, direction, math.Abs(change)*100),
		Impact:      impact,
		Metric:      metric,
	}, true
}

// leaderInsight reports the category contributing the most to metric.
func leaderInsight(t *dataset.Table, c dataset.Classification, metric string) (models.Insight, bool) {
	group, ok := c.FirstCategorical()
	if !ok {
		return models.Insight{}, false
	}
	gi, mi := t.Index(group), t.Index(metric)

	totals := map[string]float64{}
	var grand float64
	for _, row := range t.Rows {
		v, ok := dataset.ParseNumber(row[mi])
		if !ok || row[gi] == "" {
			continue
		}
		totals[row[gi]] += v
		grand += v
	}
	if len(totals) < 2 || grand <= 0 {
		return models.Insight{}, false
	}

	labels := make([]string, 0, len(totals))
	for l := range totals {
		labels = append(labels, l)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if c := cmp.Compare(totals[b], totals[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	leader := labels[0]
	share := totals[leader] / grand
	impact := models.LevelMedium
	if share > dominantShare {
		impact = models.LevelHigh
	}
	return models.Insight{
		Title:       fmt.Sprintf("%s leads %s", leader, metric),
		Description: fmt.Sprintf("%s %s accounts for %.1f%% of total %s across %d %s values.", group, leader, share*100, metric, len(totals), group),
		Impact:      impact,
		Metric:      metric,
	}, true
}

func dateSpan(t *dataset.Table, c dataset.Classification) (time.Time, time.Time, bool) {
	dateCol, ok := c.FirstDate()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	var from, to time.Time
	for _, s := range t.Column(dateCol) {
		d, ok := dataset.ParseDate(s)
		if !ok {
			continue
		}
		if from.IsZero() || d.Before(from) {
			from = d
		}
		if to.IsZero() || d.After(to) {
			to = d
		}
	}
	return from, to, !from.IsZero()
}

var reportRecommendations = map[models.ReportType][]models.Recommendation{
	models.ReportCampaignPerformance: {
		{Title: "Shift budget toward top campaigns", Description: "Move spend from the weakest campaigns to the ones with the highest totals and review results after a week."},
		{Title: "Refresh underperforming creatives", Description: "Campaigns well below the average are candidates for new creative or tighter targeting."},
	},
	models.ReportTrafficAnalysis: {
		{Title: "Invest in the strongest channels", Description: "Prioritize the traffic sources that contribute the most sessions and monitor their quality."},
		{Title: "Investigate traffic dips", Description: "Check tracking and campaign calendars for the periods where traffic falls."},
	},
	models.ReportConversionAnalysis: {
		{Title: "Optimize the highest-volume funnel step", Description: "Improvements on the step with the most traffic have the largest effect on total conversions."},
		{Title: "Test landing page variants", Description: "Run A/B tests on pages with high traffic and below-average conversion."},
	},
	models.ReportSocialMedia: {
		{Title: "Post more of the best-performing content", Description: "Repeat the formats and topics with the highest engagement."},
		{Title: "Review posting cadence", Description: "Compare engagement across days and adjust the publishing schedule."},
	},
	models.ReportEmailMarketing: {
		{Title: "Segment the audience", Description: "Send targeted variants to the segments with the strongest response."},
		{Title: "Test subject lines", Description: "A/B test subject lines on the campaigns with the lowest open rates."},
	},
	models.ReportGeneral: {
		{Title: "Track the leading metrics weekly", Description: "Re-run this analysis on a schedule to spot changes early."},
		{Title: "Add more dimensions", Description: "Include channel, campaign or device columns to get more specific insights."},
	},
}

func recommendationsFor(reportType models.ReportType) []models.Recommendation {
	recs, ok := reportRecommendations[reportType]
	if !ok {
		recs = reportRecommendations[models.ReportGeneral]
	}
	out := make([]models.Recommendation, len(recs))
	for i, r := range recs {
		r.Priority = models.LevelMedium
		r.Effort = models.LevelMedium
		out[i] = r
	}
	return out
}

// ReportLabel returns a human-readable name for a report type.
func ReportLabel(r models.ReportType) string {
	return strings.ReplaceAll(string(r), "_", " ")
}

func first(s []ColumnSummary) (ColumnSummary, bool) {
	if len(s) == 0 {
		return ColumnSummary{}, false
	}
	return s[0], true
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
