package models

import (
	"time"

	"github.com/GregMSThompson/insights-backend/internal/charts"
	"github.com/GregMSThompson/insights-backend/internal/dataset"
)

type ReportType string

const (
	ReportCampaignPerformance ReportType = "campaign_performance"
	ReportTrafficAnalysis     ReportType = "traffic_analysis"
	ReportConversionAnalysis  ReportType = "conversion_analysis"
	ReportSocialMedia         ReportType = "social_media"
	ReportEmailMarketing      ReportType = "email_marketing"
	ReportGeneral             ReportType = "general"
)

func (r ReportType) Valid() bool {
	switch r {
	case ReportCampaignPerformance, ReportTrafficAnalysis, ReportConversionAnalysis,
		ReportSocialMedia, ReportEmailMarketing, ReportGeneral:
		return true
	}
	return false
}

type AnalysisType string

const (
	AnalysisSummary         AnalysisType = "summary"
	AnalysisTrends          AnalysisType = "trends"
	AnalysisRecommendations AnalysisType = "recommendations"
	AnalysisComprehensive   AnalysisType = "comprehensive"
)

func (a AnalysisType) Valid() bool {
	switch a {
	case AnalysisSummary, AnalysisTrends, AnalysisRecommendations, AnalysisComprehensive:
		return true
	}
	return false
}

// Level is the shared low/medium/high scale for impact, priority and effort.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ResultSource records whether an analysis came from the model or from the
// deterministic fallback.
type ResultSource string

const (
	SourceGenerated ResultSource = "generated"
	SourceFallback  ResultSource = "fallback"
)

type InputKind string

const (
	InputUpload      InputKind = "upload"
	InputInline      InputKind = "inline"
	InputIntegration InputKind = "integration"
	InputSchedule    InputKind = "schedule"
)

type Insight struct {
	Title       string `firestore:"title" json:"title"`
	Description string `firestore:"description" json:"description"`
	Impact      Level  `firestore:"impact" json:"impact"`
	Metric      string `firestore:"metric,omitempty" json:"metric,omitempty"`
}

type Recommendation struct {
	Title          string `firestore:"title" json:"title"`
	Description    string `firestore:"description" json:"description"`
	Priority       Level  `firestore:"priority" json:"priority"`
	Effort         Level  `firestore:"effort" json:"effort"`
	ExpectedImpact string `firestore:"expectedImpact,omitempty" json:"expectedImpact,omitempty"`
}

// Analysis is a stored analysis result. Firestore cannot hold nested arrays,
// so the filtered table is persisted as CSV text in TableCSV and exposed to
// API callers as Table.
type Analysis struct {
	AnalysisID      string              `firestore:"analysisId" json:"analysisId"`
	UID             string              `firestore:"uid" json:"-"`
	ReportType      ReportType          `firestore:"reportType" json:"reportType"`
	AnalysisType    AnalysisType        `firestore:"analysisType" json:"analysisType"`
	Source          ResultSource        `firestore:"source" json:"source"`
	Input           InputKind           `firestore:"input" json:"input"`
	InputRef        string              `firestore:"inputRef,omitempty" json:"inputRef,omitempty"`
	Platform        Platform            `firestore:"platform,omitempty" json:"platform,omitempty"`
	Summary         string              `firestore:"summary" json:"summary"`
	Insights        []Insight           `firestore:"insights" json:"insights"`
	Recommendations []Recommendation    `firestore:"recommendations" json:"recommendations"`
	KeyMetrics      map[string]float64  `firestore:"keyMetrics" json:"keyMetrics"`
	Charts          []charts.Descriptor `firestore:"charts" json:"charts"`
	Filters         dataset.FilterSpec  `firestore:"filters" json:"filters"`
	Table           *dataset.Table      `firestore:"-" json:"table,omitempty"`
	TableCSV        string              `firestore:"table" json:"-"`
	RowCount        int                 `firestore:"rowCount" json:"rowCount"`
	ColumnCount     int                 `firestore:"columnCount" json:"columnCount"`
	CreatedAt       time.Time           `firestore:"createdAt" json:"createdAt"`
}
