package dto

import (
	"github.com/GregMSThompson/insights-backend/internal/models"
)

type ConnectIntegrationRequest struct {
	Platform    models.Platform `json:"platform"`
	AccountRef  string          `json:"accountRef"`
	AccountName string          `json:"accountName,omitempty"`
	AccessToken string          `json:"accessToken"`
}

// FetchIntegrationRequest pulls a date range from a connected account and
// analyzes it. Dates are YYYY-MM-DD; empty dates default to the last 30 days.
type FetchIntegrationRequest struct {
	StartDate    string              `json:"startDate,omitempty"`
	EndDate      string              `json:"endDate,omitempty"`
	Metrics      []string            `json:"metrics,omitempty"`
	Dimensions   []string            `json:"dimensions,omitempty"`
	ReportType   models.ReportType   `json:"reportType"`
	AnalysisType models.AnalysisType `json:"analysisType"`
}
