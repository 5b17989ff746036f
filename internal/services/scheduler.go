package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/internal/schedule"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

type jobSchedulerStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledJob, error)
	AcquireLease(ctx context.Context, jobID, owner string, now time.Time, ttl time.Duration) (*models.ScheduledJob, error)
	Complete(ctx context.Context, jobID string, lastRun, nextRun time.Time) error
	ReleaseLease(ctx context.Context, jobID string) error
	CreateExecution(ctx context.Context, exec *models.JobExecution) error
	UpdateExecution(ctx context.Context, exec *models.JobExecution) error
}

type jobRunner interface {
	RunJob(ctx context.Context, job *models.ScheduledJob) (*models.Analysis, error)
}

type executionNotifier interface {
	Notify(ctx context.Context, url string, note dto.ExecutionNotification) error
}

type SchedulerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Workers      int
	QueueSize    int
	LeaseTTL     time.Duration
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = c.BatchSize * 2
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 10 * time.Minute
	}
	return c
}

type queuedRun struct {
	job  *models.ScheduledJob
	exec *models.JobExecution
}

// Scheduler polls for due jobs and hands each one to a bounded worker pool.
// A poll never waits for the runs it starts.
type Scheduler struct {
	jobs     jobSchedulerStore
	runner   jobRunner
	notifier executionNotifier
	cfg      SchedulerConfig
	owner    string
	queue    chan queuedRun
	log      *slog.Logger
	clockNow func() time.Time
	newID    func() string
}

func NewScheduler(log *slog.Logger, jobs jobSchedulerStore, runner jobRunner, notifier executionNotifier, cfg SchedulerConfig) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		jobs:     jobs,
		runner:   runner,
		notifier: notifier,
		cfg:      cfg,
		owner:    uuid.NewString(),
		queue:    make(chan queuedRun, cfg.QueueSize),
		log:      log,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

// Run polls on a ticker and drains the queue until ctx is cancelled. When
// poll is false only queued manual triggers are executed.
func (s *Scheduler) Run(ctx context.Context, poll bool) error {
	ctx = logger.ToContext(ctx, s.log)
	g, gctx := errgroup.WithContext(ctx)

	if poll {
		g.Go(func() error {
			ticker := time.NewTicker(s.cfg.PollInterval)
			defer ticker.Stop()
			for {
				if _, err := s.PollOnce(gctx); err != nil {
					s.log.Error("scheduler poll failed", "error", err)
				}
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}

	g.Go(func() error {
		s.drain(gctx)
		return nil
	})

	s.log.Info("scheduler started", "owner", s.owner, "poll", poll, "workers", s.cfg.Workers)
	return g.Wait()
}

// drain executes queued runs until ctx is done. Runs still queued at that
// point are failed and their leases released so another process can pick the
// jobs up on its next poll.
func (s *Scheduler) drain(ctx context.Context) {
	workers := new(errgroup.Group)
	workers.SetLimit(s.cfg.Workers)

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case run := <-s.queue:
			workers.Go(func() error {
				s.execute(ctx, run)
				return nil
			})
		}
	}
	_ = workers.Wait()
	s.abandonQueued(logger.Detach(ctx))
}

func (s *Scheduler) abandonQueued(ctx context.Context) {
	for {
		select {
		case run := <-s.queue:
			s.fail(ctx, run.exec, errSchedulerStopped())
			s.release(ctx, run.job.JobID)
			s.log.Warn("queued run abandoned on shutdown", "job_id", run.job.JobID, "execution_id", run.exec.ExecutionID)
		default:
			return
		}
	}
}

func errSchedulerStopped() error {
	err := errs.NewExternalServiceError("scheduler", true, context.Canceled)
	err.Message = "the scheduler stopped before the run started"
	err.Action = "The job will run on the next poll, or trigger it again."
	return err
}

// PollOnce queues every due job it can lease and returns how many were queued.
func (s *Scheduler) PollOnce(ctx context.Context) (int, error) {
	now := s.clockNow().UTC()
	due, err := s.jobs.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, job := range due {
		if _, err := s.dispatch(ctx, job, models.TriggerSchedule); err != nil {
			s.log.Warn("scheduled job not queued", "job_id", job.JobID, "code", errs.CodeOf(err))
			continue
		}
		queued++
	}
	if len(due) > 0 {
		s.log.Info("scheduler poll", "due", len(due), "queued", queued)
	}
	return queued, nil
}

// Trigger queues a manual run of job.
func (s *Scheduler) Trigger(ctx context.Context, job *models.ScheduledJob) (*models.JobExecution, error) {
	return s.dispatch(ctx, job, models.TriggerManual)
}

// dispatch leases the job, records a running execution and enqueues it
// without blocking. A job leased by another run yields AlreadyExists.
func (s *Scheduler) dispatch(ctx context.Context, job *models.ScheduledJob, trigger models.Trigger) (*models.JobExecution, error) {
	now := s.clockNow().UTC()
	leased, err := s.jobs.AcquireLease(ctx, job.JobID, s.owner, now, s.cfg.LeaseTTL)
	if err != nil {
		return nil, err
	}

	exec := &models.JobExecution{
		ExecutionID: s.newID(),
		JobID:       job.JobID,
		Status:      models.ExecutionRunning,
		Trigger:     trigger,
		StartedAt:   now,
	}
	if err := s.jobs.CreateExecution(ctx, exec); err != nil {
		s.release(ctx, job.JobID)
		return nil, err
	}

	select {
	case s.queue <- queuedRun{job: leased, exec: exec}:
		return exec, nil
	default:
		busy := errs.NewResourceExhaustedError("scheduler")
		s.fail(ctx, exec, busy)
		s.release(ctx, job.JobID)
		return nil, busy
	}
}

func (s *Scheduler) execute(ctx context.Context, run queuedRun) {
	log, ctx := logger.With(ctx, "job_id", run.job.JobID, "execution_id", run.exec.ExecutionID, "trigger", run.exec.Trigger)

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.LeaseTTL)
	analysis, err := s.runner.RunJob(runCtx, run.job)
	cancel()

	// The outcome is recorded even when shutdown cancelled the run.
	ctx = logger.Detach(ctx)

	exec := run.exec
	finished := s.clockNow().UTC()
	exec.CompletedAt = &finished
	if err != nil {
		s.fail(ctx, exec, err)
		log.Warn("scheduled job failed", "code", errs.CodeOf(err), "error", err)
	} else {
		exec.Status = models.ExecutionCompleted
		exec.RowsProcessed = analysis.RowCount
		exec.AnalysisID = analysis.AnalysisID
		if uerr := s.jobs.UpdateExecution(ctx, exec); uerr != nil {
			log.Error("failed to record execution", "error", uerr)
		}
		log.Info("scheduled job completed", "rows", exec.RowsProcessed, "analysis_id", exec.AnalysisID)
	}

	next := run.job.NextRun
	if exec.Trigger == models.TriggerSchedule || !next.After(finished) {
		if n, nerr := schedule.NextRun(run.job.Cadence, finished); nerr == nil {
			next = n
		} else {
			log.Error("invalid cadence on stored job", "error", nerr)
		}
	}
	if cerr := s.jobs.Complete(ctx, run.job.JobID, finished, next); cerr != nil {
		log.Error("failed to advance job", "error", cerr)
	}

	s.notify(ctx, run.job, exec, analysis)
}

func (s *Scheduler) fail(ctx context.Context, exec *models.JobExecution, cause error) {
	detail := errs.DetailOf(cause)
	exec.Status = models.ExecutionFailed
	exec.ErrorCount++
	exec.Error = detail.Message
	exec.ErrorCode = detail.Code
	if exec.CompletedAt == nil {
		at := s.clockNow().UTC()
		exec.CompletedAt = &at
	}
	if err := s.jobs.UpdateExecution(ctx, exec); err != nil {
		s.log.Error("failed to record execution", "execution_id", exec.ExecutionID, "error", err)
	}
}

func (s *Scheduler) release(ctx context.Context, jobID string) {
	if err := s.jobs.ReleaseLease(ctx, jobID); err != nil {
		s.log.Error("failed to release job lease", "job_id", jobID, "error", err)
	}
}

// notify is best effort; failures are only logged.
func (s *Scheduler) notify(ctx context.Context, job *models.ScheduledJob, exec *models.JobExecution, analysis *models.Analysis) {
	if job.NotifyWebhook == "" || s.notifier == nil {
		return
	}
	note := dto.ExecutionNotification{
		JobID:         job.JobID,
		JobName:       job.Name,
		ExecutionID:   exec.ExecutionID,
		Status:        exec.Status,
		Trigger:       exec.Trigger,
		RowsProcessed: exec.RowsProcessed,
		AnalysisID:    exec.AnalysisID,
		Error:         exec.Error,
	}
	if analysis != nil {
		note.Summary = analysis.Summary
	}
	if err := s.notifier.Notify(ctx, job.NotifyWebhook, note); err != nil {
		logger.FromContext(ctx).Warn("execution notification failed", "error", err)
	}
}
