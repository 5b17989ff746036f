package dto

import (
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/internal/schedule"
)

type CreateScheduleRequest struct {
	Name          string              `json:"name"`
	IntegrationID string              `json:"integrationId"`
	Cadence       schedule.Cadence    `json:"cadence"`
	Metrics       []string            `json:"metrics,omitempty"`
	Dimensions    []string            `json:"dimensions,omitempty"`
	LookbackDays  int                 `json:"lookbackDays,omitempty"`
	ReportType    models.ReportType   `json:"reportType"`
	AnalysisType  models.AnalysisType `json:"analysisType"`
	NotifyWebhook string              `json:"notifyWebhook,omitempty"`
	IsActive      *bool               `json:"isActive,omitempty"`
}

// UpdateScheduleRequest changes only the fields that are set.
type UpdateScheduleRequest struct {
	Name          *string              `json:"name,omitempty"`
	Cadence       *schedule.Cadence    `json:"cadence,omitempty"`
	Metrics       []string             `json:"metrics,omitempty"`
	Dimensions    []string             `json:"dimensions,omitempty"`
	LookbackDays  *int                 `json:"lookbackDays,omitempty"`
	ReportType    *models.ReportType   `json:"reportType,omitempty"`
	AnalysisType  *models.AnalysisType `json:"analysisType,omitempty"`
	NotifyWebhook *string              `json:"notifyWebhook,omitempty"`
	IsActive      *bool                `json:"isActive,omitempty"`
}

type ExecutionNotification struct {
	JobID         string                 `json:"jobId"`
	JobName       string                 `json:"jobName"`
	ExecutionID   string                 `json:"executionId"`
	Status        models.ExecutionStatus `json:"status"`
	Trigger       models.Trigger         `json:"trigger"`
	RowsProcessed int                    `json:"rowsProcessed"`
	AnalysisID    string                 `json:"analysisId,omitempty"`
	Summary       string                 `json:"summary,omitempty"`
	Error         string                 `json:"error,omitempty"`
}
