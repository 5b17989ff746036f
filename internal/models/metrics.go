package models

import "time"

// MetricSource groups the metric rows produced by one upload, integration or
// scheduled job.
type MetricSource struct {
	SourceID       string    `firestore:"sourceId" json:"sourceId"`
	UID            string    `firestore:"uid" json:"-"`
	Platform       Platform  `firestore:"platform" json:"platform"`
	Name           string    `firestore:"name" json:"name"`
	Input          InputKind `firestore:"input" json:"input"`
	InputRef       string    `firestore:"inputRef,omitempty" json:"inputRef,omitempty"`
	RowCount       int       `firestore:"rowCount" json:"rowCount"`
	LastAnalyzedAt time.Time `firestore:"lastAnalyzedAt" json:"lastAnalyzedAt"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// MetricRow is one numeric observation. Date is YYYY-MM-DD and may be empty
// when the source table had no date column.
type MetricRow struct {
	SourceID string   `firestore:"sourceId" json:"sourceId"`
	Platform Platform `firestore:"platform" json:"platform"`
	Date     string   `firestore:"date" json:"date"`
	Name     string   `firestore:"name" json:"name"`
	Value    float64  `firestore:"value" json:"value"`
	Category string   `firestore:"category,omitempty" json:"category,omitempty"`
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

type SourceTotal struct {
	SourceID string   `firestore:"sourceId" json:"sourceId"`
	Name     string   `firestore:"name" json:"name"`
	Platform Platform `firestore:"platform" json:"platform"`
	Total    float64  `firestore:"total" json:"total"`
}

// UnifiedMetric compares one metric across every source that reported it.
// Sources are listed in aggregation order.
type UnifiedMetric struct {
	Name       string        `firestore:"name" json:"name"`
	Total      float64       `firestore:"total" json:"total"`
	Average    float64       `firestore:"average" json:"average"`
	Median     float64       `firestore:"median" json:"median"`
	Sources    []SourceTotal `firestore:"sources" json:"sources"`
	BestSource string        `firestore:"bestSource" json:"bestSource"`
	Trend      Trend         `firestore:"trend" json:"trend"`
	Slope      float64       `firestore:"slope" json:"slope"`
}

type UnifiedSnapshot struct {
	SnapshotID  string          `firestore:"snapshotId" json:"snapshotId"`
	UID         string          `firestore:"uid" json:"-"`
	StartDate   string          `firestore:"startDate" json:"startDate"`
	EndDate     string          `firestore:"endDate" json:"endDate"`
	Platforms   []Platform      `firestore:"platforms" json:"platforms"`
	Metrics     []UnifiedMetric `firestore:"metrics" json:"metrics"`
	Insights    []Insight       `firestore:"insights" json:"insights"`
	GeneratedAt time.Time       `firestore:"generatedAt" json:"generatedAt"`
}
