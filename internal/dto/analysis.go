package dto

import (
	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

// AnalyzeRequest selects the data to analyze: a previously uploaded file or
// inline CSV text. Exactly one of FileID and CSV must be set.
type AnalyzeRequest struct {
	FileID       string              `json:"fileId,omitempty"`
	CSV          string              `json:"csv,omitempty"`
	ReportType   models.ReportType   `json:"reportType"`
	AnalysisType models.AnalysisType `json:"analysisType"`
	Filters      dataset.FilterSpec  `json:"filters"`
	Context      string              `json:"context,omitempty"`
}

// AnalysisOptions carries everything about an analysis except the table.
type AnalysisOptions struct {
	ReportType   models.ReportType
	AnalysisType models.AnalysisType
	Filters      dataset.FilterSpec
	Context      string
	Input        models.InputKind
	InputRef     string
	Platform     models.Platform
	SourceName   string
}

type ListAnalysesResponse struct {
	Analyses []*models.Analysis `json:"analyses"`
}
