package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

const (
	performanceGap  = 0.5
	staleAfter      = 7 * 24 * time.Hour
	flatSlopePerDay = 0.01
)

type metricUSStore interface {
	ListSources(ctx context.Context, uid string) ([]*models.MetricSource, error)
	ListRows(ctx context.Context, uid, sourceID, start, end string) ([]models.MetricRow, error)
	SaveSnapshot(ctx context.Context, uid string, snap *models.UnifiedSnapshot) error
	LatestSnapshot(ctx context.Context, uid string) (*models.UnifiedSnapshot, error)
}

type unifiedService struct {
	metrics  metricUSStore
	clockNow func() time.Time
	newID    func() string
}

func NewUnifiedService(metrics metricUSStore) *unifiedService {
	return &unifiedService{
		metrics:  metrics,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

// Generate aggregates every recorded source over the window and stores the
// snapshot.
func (s *unifiedService) Generate(ctx context.Context, uid string, req dto.UnifiedMetricsRequest) (*models.UnifiedSnapshot, error) {
	now := s.clockNow().UTC()
	end := dataset.Day(now)
	start := end.AddDate(0, 0, -defaultFetchDays)
	start, end, err := resolveRange(req.StartDate, req.EndDate, start, end)
	if err != nil {
		return nil, err
	}
	from, to := start.Format(time.DateOnly), end.Format(time.DateOnly)

	sources, err := s.metrics.ListSources(ctx, uid)
	if err != nil {
		return nil, err
	}

	var rows []models.MetricRow
	for _, src := range sources {
		srcRows, err := s.metrics.ListRows(ctx, uid, src.SourceID, from, to)
		if err != nil {
			return nil, err
		}
		rows = append(rows, srcRows...)
	}

	metrics, insights := Aggregate(rows, sources, now)
	snap := &models.UnifiedSnapshot{
		SnapshotID:  s.newID(),
		UID:         uid,
		StartDate:   from,
		EndDate:     to,
		Platforms:   platformsOf(sources),
		Metrics:     metrics,
		Insights:    insights,
		GeneratedAt: now,
	}
	if err := s.metrics.SaveSnapshot(ctx, uid, snap); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("unified metrics generated", "snapshot_id", snap.SnapshotID, "sources", len(sources), "metrics", len(metrics))
	return snap, nil
}

func (s *unifiedService) Latest(ctx context.Context, uid string) (*models.UnifiedSnapshot, error) {
	return s.metrics.LatestSnapshot(ctx, uid)
}

func (s *unifiedService) Sources(ctx context.Context, uid string) ([]*models.MetricSource, error) {
	return s.metrics.ListSources(ctx, uid)
}

// Aggregate groups rows by metric name and compares sources. Sources are
// visited in the order given, which also breaks best-source ties. Metrics are
// ordered by total, largest first.
func Aggregate(rows []models.MetricRow, sources []*models.MetricSource, now time.Time) ([]models.UnifiedMetric, []models.Insight) {
	order := make(map[string]int, len(sources))
	names := make(map[string]*models.MetricSource, len(sources))
	for i, src := range sources {
		order[src.SourceID] = i
		names[src.SourceID] = src
	}

	type acc struct {
		totals map[string]float64
		seen   []string
		daily  map[string]float64
	}
	byMetric := map[string]*acc{}
	var metricNames []string
	for _, r := range rows {
		a, ok := byMetric[r.Name]
		if !ok {
			a = &acc{totals: map[string]float64{}, daily: map[string]float64{}}
			byMetric[r.Name] = a
			metricNames = append(metricNames, r.Name)
		}
		if _, ok := a.totals[r.SourceID]; !ok {
			a.seen = append(a.seen, r.SourceID)
		}
		a.totals[r.SourceID] += r.Value
		a.daily[r.Date] += r.Value
	}

	out := make([]models.UnifiedMetric, 0, len(metricNames))
	for _, name := range metricNames {
		a := byMetric[name]
		ids := slices.Clone(a.seen)
		slices.SortStableFunc(ids, func(x, y string) int { return rank(order, x) - rank(order, y) })

		m := models.UnifiedMetric{Name: name}
		var totals stats.Float64Data
		for _, id := range ids {
			v := a.totals[id]
			st := models.SourceTotal{SourceID: id, Name: id, Total: roundTo2(v)}
			if src, ok := names[id]; ok {
				st.Name = src.Name
				st.Platform = src.Platform
			}
			m.Sources = append(m.Sources, st)
			if m.BestSource == "" || v > a.totals[m.BestSource] {
				m.BestSource = id
			}
			totals = append(totals, v)
			m.Total += v
		}
		m.Average = roundTo2(m.Total / float64(len(ids)))
		if median, err := totals.Median(); err == nil {
			m.Median = roundTo2(median)
		}
		m.Total = roundTo2(m.Total)
		m.Trend, m.Slope = trend(a.daily)
		out = append(out, m)
	}

	slices.SortStableFunc(out, func(x, y models.UnifiedMetric) int {
		switch {
		case x.Total > y.Total:
			return -1
		case x.Total < y.Total:
			return 1
		}
		return strings.Compare(x.Name, y.Name)
	})

	return out, unifiedInsights(out, sources, now)
}

func rank(order map[string]int, id string) int {
	if i, ok := order[id]; ok {
		return i
	}
	return len(order)
}

// trend fits a line through the daily totals; a slope under 1% of the mean
// per day is flat.
func trend(daily map[string]float64) (models.Trend, float64) {
	if len(daily) < 2 {
		return models.TrendFlat, 0
	}

	days := make([]string, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	slices.Sort(days)

	first, err := time.Parse(time.DateOnly, days[0])
	if err != nil {
		return models.TrendFlat, 0
	}
	xs := make([]float64, 0, len(days))
	ys := make([]float64, 0, len(days))
	for _, d := range days {
		at, err := time.Parse(time.DateOnly, d)
		if err != nil {
			continue
		}
		xs = append(xs, at.Sub(first).Hours()/24)
		ys = append(ys, daily[d])
	}
	if len(xs) < 2 {
		return models.TrendFlat, 0
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	mean := stat.Mean(ys, nil)
	if math.IsNaN(slope) || mean == 0 || math.Abs(slope/mean) < flatSlopePerDay {
		return models.TrendFlat, roundTo2(zeroNaN(slope))
	}
	if slope > 0 {
		return models.TrendUp, roundTo2(slope)
	}
	return models.TrendDown, roundTo2(slope)
}

func unifiedInsights(metrics []models.UnifiedMetric, sources []*models.MetricSource, now time.Time) []models.Insight {
	var out []models.Insight

	if len(metrics) > 0 && len(metrics[0].Sources) > 1 {
		top := metrics[0]
		best, worst := top.Sources[0], top.Sources[0]
		for _, st := range top.Sources {
			if st.Total > best.Total {
				best = st
			}
			if st.Total < worst.Total {
				worst = st
			}
		}
		if best.Total > 0 && (best.Total-worst.Total)/best.Total > performanceGap {
			out = append(out, models.Insight{
				Title: "Large performance gap on " + top.Name,
				Description: fmt.Sprintf("%s reports %s %s versus %s from %s. Review what drives the difference.",
					best.Name, formatAmount(best.Total), top.Name, formatAmount(worst.Total), worst.Name),
				Impact: models.LevelHigh,
				Metric: top.Name,
			})
		}
	}

	if platforms := platformsOf(sources); len(platforms) == 1 {
		out = append(out, models.Insight{
			Title:       "Diversification opportunity",
			Description: fmt.Sprintf("All data comes from %s. Connecting another channel would allow cross-platform comparison.", platforms[0]),
			Impact:      models.LevelMedium,
		})
	}

	var stale []string
	for _, src := range sources {
		if now.Sub(src.LastAnalyzedAt) > staleAfter {
			stale = append(stale, src.Name)
		}
	}
	if len(stale) > 0 {
		out = append(out, models.Insight{
			Title:       "Stale data sources",
			Description: fmt.Sprintf("%s not analyzed in the last 7 days: %s.", pluralSources(len(stale)), strings.Join(stale, ", ")),
			Impact:      models.LevelMedium,
		})
	}
	return out
}

func platformsOf(sources []*models.MetricSource) []models.Platform {
	var out []models.Platform
	for _, src := range sources {
		if !slices.Contains(out, src.Platform) {
			out = append(out, src.Platform)
		}
	}
	return out
}

func pluralSources(n int) string {
	if n == 1 {
		return "1 source was"
	}
	return fmt.Sprintf("%d sources were", n)
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
