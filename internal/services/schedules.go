package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/internal/schedule"
	"github.com/GregMSThompson/insights-backend/pkg/helpers"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

const (
	listExecutionsLimit = 20
	maxLookbackDays     = 365
)

type jobSSStore interface {
	Create(ctx context.Context, job *models.ScheduledJob) error
	Get(ctx context.Context, uid, jobID string) (*models.ScheduledJob, error)
	List(ctx context.Context, uid string) ([]*models.ScheduledJob, error)
	Update(ctx context.Context, job *models.ScheduledJob) error
	Delete(ctx context.Context, jobID string) error
	ListExecutions(ctx context.Context, jobID string, limit int) ([]*models.JobExecution, error)
}

type integrationSSStore interface {
	Get(ctx context.Context, uid, integrationID string) (*models.Integration, error)
}

// jobTrigger starts a run outside the normal schedule.
type jobTrigger interface {
	Trigger(ctx context.Context, job *models.ScheduledJob) (*models.JobExecution, error)
}

type scheduleService struct {
	jobs         jobSSStore
	integrations integrationSSStore
	trigger      jobTrigger
	clockNow     func() time.Time
	newID        func() string
}

func NewScheduleService(jobs jobSSStore, integrations integrationSSStore, trigger jobTrigger) *scheduleService {
	return &scheduleService{
		jobs:         jobs,
		integrations: integrations,
		trigger:      trigger,
		clockNow:     time.Now,
		newID:        uuid.NewString,
	}
}

func (s *scheduleService) Create(ctx context.Context, uid string, req dto.CreateScheduleRequest) (*models.ScheduledJob, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errs.NewValidationError("name is required")
	}
	in, err := s.integrations.Get(ctx, uid, req.IntegrationID)
	if err != nil {
		return nil, err
	}

	now := s.clockNow().UTC()
	job := &models.ScheduledJob{
		JobID:         s.newID(),
		UID:           uid,
		Name:          strings.TrimSpace(req.Name),
		IntegrationID: in.IntegrationID,
		Platform:      in.Platform,
		AccountRef:    in.AccountRef,
		Cadence:       req.Cadence,
		IsActive:      helpers.ValueOr(req.IsActive, true),
		Metrics:       req.Metrics,
		Dimensions:    req.Dimensions,
		LookbackDays:  req.LookbackDays,
		ReportType:    req.ReportType,
		AnalysisType:  req.AnalysisType,
		NotifyWebhook: req.NotifyWebhook,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := validateJob(job); err != nil {
		return nil, err
	}
	if job.NextRun, err = schedule.NextRun(job.Cadence, now); err != nil {
		return nil, err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("schedule created", "job_id", job.JobID, "next_run", job.NextRun)
	return job, nil
}

func (s *scheduleService) List(ctx context.Context, uid string) ([]*models.ScheduledJob, error) {
	return s.jobs.List(ctx, uid)
}

func (s *scheduleService) Get(ctx context.Context, uid, jobID string) (*models.ScheduledJob, error) {
	return s.jobs.Get(ctx, uid, jobID)
}

// Update applies the set fields and recomputes the next run.
func (s *scheduleService) Update(ctx context.Context, uid, jobID string, req dto.UpdateScheduleRequest) (*models.ScheduledJob, error) {
	job, err := s.jobs.Get(ctx, uid, jobID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		job.Name = strings.TrimSpace(*req.Name)
	}
	if req.Cadence != nil {
		job.Cadence = *req.Cadence
	}
	if req.Metrics != nil {
		job.Metrics = req.Metrics
	}
	if req.Dimensions != nil {
		job.Dimensions = req.Dimensions
	}
	job.LookbackDays = helpers.ValueOr(req.LookbackDays, job.LookbackDays)
	job.ReportType = helpers.ValueOr(req.ReportType, job.ReportType)
	job.AnalysisType = helpers.ValueOr(req.AnalysisType, job.AnalysisType)
	job.NotifyWebhook = helpers.ValueOr(req.NotifyWebhook, job.NotifyWebhook)
	job.IsActive = helpers.ValueOr(req.IsActive, job.IsActive)

	if job.Name == "" {
		return nil, errs.NewValidationError("name is required")
	}
	if err := validateJob(job); err != nil {
		return nil, err
	}
	if job.NextRun, err = schedule.NextRun(job.Cadence, s.clockNow().UTC()); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("schedule updated", "job_id", job.JobID, "next_run", job.NextRun, "active", job.IsActive)
	return job, nil
}

func (s *scheduleService) Delete(ctx context.Context, uid, jobID string) error {
	if _, err := s.jobs.Get(ctx, uid, jobID); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, jobID); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("schedule deleted", "job_id", jobID)
	return nil
}

func (s *scheduleService) Executions(ctx context.Context, uid, jobID string) ([]*models.JobExecution, error) {
	if _, err := s.jobs.Get(ctx, uid, jobID); err != nil {
		return nil, err
	}
	return s.jobs.ListExecutions(ctx, jobID, listExecutionsLimit)
}

// Trigger queues an immediate manual run of the job.
func (s *scheduleService) Trigger(ctx context.Context, uid, jobID string) (*models.JobExecution, error) {
	job, err := s.jobs.Get(ctx, uid, jobID)
	if err != nil {
		return nil, err
	}
	return s.trigger.Trigger(ctx, job)
}

func validateJob(job *models.ScheduledJob) error {
	if err := schedule.Validate(job.Cadence); err != nil {
		return err
	}
	if err := validateOptions(dto.AnalysisOptions{ReportType: job.ReportType, AnalysisType: job.AnalysisType}); err != nil {
		return err
	}
	if job.LookbackDays < 0 || job.LookbackDays > maxLookbackDays {
		return errs.NewValidationError(fmt.Sprintf("lookbackDays must be between 0 and %d", maxLookbackDays))
	}
	if job.NotifyWebhook != "" {
		u, err := url.Parse(job.NotifyWebhook)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return errs.NewValidationError("notifyWebhook must be an http(s) URL")
		}
	}
	return nil
}
