package models

import (
	"time"

	"github.com/GregMSThompson/insights-backend/internal/schedule"
)

// ScheduledJob repeats a provider fetch and analysis on a cadence. Jobs live in
// a top-level collection so the scheduler can query due jobs across users.
type ScheduledJob struct {
	JobID         string           `firestore:"jobId" json:"jobId"`
	UID           string           `firestore:"uid" json:"-"`
	Name          string           `firestore:"name" json:"name"`
	IntegrationID string           `firestore:"integrationId" json:"integrationId"`
	Platform      Platform         `firestore:"platform" json:"platform"`
	AccountRef    string           `firestore:"accountRef" json:"accountRef"`
	Cadence       schedule.Cadence `firestore:"cadence" json:"cadence"`
	IsActive      bool             `firestore:"isActive" json:"isActive"`
	LastRun       *time.Time       `firestore:"lastRun,omitempty" json:"lastRun,omitempty"`
	NextRun       time.Time        `firestore:"nextRun" json:"nextRun"`
	Metrics       []string         `firestore:"metrics" json:"metrics"`
	Dimensions    []string         `firestore:"dimensions" json:"dimensions"`
	LookbackDays  int              `firestore:"lookbackDays" json:"lookbackDays"`
	ReportType    ReportType       `firestore:"reportType" json:"reportType"`
	AnalysisType  AnalysisType     `firestore:"analysisType" json:"analysisType"`
	NotifyWebhook string           `firestore:"notifyWebhook,omitempty" json:"notifyWebhook,omitempty"`
	LeaseOwner    string           `firestore:"leaseOwner,omitempty" json:"-"`
	LeaseUntil    time.Time        `firestore:"leaseUntil,omitempty" json:"-"`
	CreatedAt     time.Time        `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time        `firestore:"updatedAt" json:"updatedAt"`
}

type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

type Trigger string

const (
	TriggerSchedule Trigger = "schedule"
	TriggerManual   Trigger = "manual"
)

type JobExecution struct {
	ExecutionID   string          `firestore:"executionId" json:"executionId"`
	JobID         string          `firestore:"jobId" json:"jobId"`
	Status        ExecutionStatus `firestore:"status" json:"status"`
	Trigger       Trigger         `firestore:"trigger" json:"trigger"`
	StartedAt     time.Time       `firestore:"startedAt" json:"startedAt"`
	CompletedAt   *time.Time      `firestore:"completedAt,omitempty" json:"completedAt,omitempty"`
	RowsProcessed int             `firestore:"rowsProcessed" json:"rowsProcessed"`
	ErrorCount    int             `firestore:"errorCount" json:"errorCount"`
	Error         string          `firestore:"error,omitempty" json:"error,omitempty"`
	ErrorCode     string          `firestore:"errorCode,omitempty" json:"errorCode,omitempty"`
	AnalysisID    string          `firestore:"analysisId,omitempty" json:"analysisId,omitempty"`
}
