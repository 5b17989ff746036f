package store

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

// Jobs live in a top-level collection so the scheduler can query due jobs
// across all users.
type jobStore struct {
	client *firestore.Client
}

func NewJobStore(client *firestore.Client) *jobStore {
	return &jobStore{client: client}
}

func (s *jobStore) collection() *firestore.CollectionRef {
	return s.client.Collection("scheduled_jobs")
}

func (s *jobStore) executions(jobID string) *firestore.CollectionRef {
	return s.collection().Doc(jobID).Collection("executions")
}

func (s *jobStore) Create(ctx context.Context, job *models.ScheduledJob) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	_, err := s.collection().Doc(job.JobID).Set(ctx, job)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create scheduled job", err)
	}
	return nil
}

func (s *jobStore) load(ctx context.Context, jobID string) (*models.ScheduledJob, error) {
	doc, err := s.collection().Doc(jobID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("scheduled job not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get scheduled job", err)
	}
	var job models.ScheduledJob
	if err := doc.DataTo(&job); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse scheduled job data", err)
	}
	return &job, nil
}

// Get returns the job only when it belongs to uid.
func (s *jobStore) Get(ctx context.Context, uid, jobID string) (*models.ScheduledJob, error) {
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UID != uid {
		return nil, errs.NewNotFoundError("scheduled job not found")
	}
	return job, nil
}

// GetByID is the scheduler's unscoped read.
func (s *jobStore) GetByID(ctx context.Context, jobID string) (*models.ScheduledJob, error) {
	return s.load(ctx, jobID)
}

func (s *jobStore) List(ctx context.Context, uid string) ([]*models.ScheduledJob, error) {
	return s.query(ctx, s.collection().Where("uid", "==", uid), "failed to list scheduled jobs")
}

// ListDue returns active jobs whose next run is at or before now, earliest first.
func (s *jobStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledJob, error) {
	q := s.collection().
		Where("isActive", "==", true).
		Where("nextRun", "<=", now).
		OrderBy("nextRun", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return s.query(ctx, q, "failed to list due jobs")
}

func (s *jobStore) query(ctx context.Context, q firestore.Query, msg string) ([]*models.ScheduledJob, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*models.ScheduledJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", msg, err)
		}
		var job models.ScheduledJob
		if err := doc.DataTo(&job); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse scheduled job data", err)
		}
		out = append(out, &job)
	}
	return out, nil
}

// Update overwrites the user-editable fields and schedule of a job.
func (s *jobStore) Update(ctx context.Context, job *models.ScheduledJob) error {
	job.UpdatedAt = time.Now()
	_, err := s.collection().Doc(job.JobID).Update(ctx, []firestore.Update{
		{Path: "name", Value: job.Name},
		{Path: "cadence", Value: job.Cadence},
		{Path: "isActive", Value: job.IsActive},
		{Path: "nextRun", Value: job.NextRun},
		{Path: "metrics", Value: job.Metrics},
		{Path: "dimensions", Value: job.Dimensions},
		{Path: "lookbackDays", Value: job.LookbackDays},
		{Path: "reportType", Value: job.ReportType},
		{Path: "analysisType", Value: job.AnalysisType},
		{Path: "notifyWebhook", Value: job.NotifyWebhook},
		{Path: "updatedAt", Value: job.UpdatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("scheduled job not found")
		}
		return errs.NewDatabaseError("update", "failed to update scheduled job", err)
	}
	return nil
}

func (s *jobStore) Delete(ctx context.Context, jobID string) error {
	_, err := s.collection().Doc(jobID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete scheduled job", err)
	}
	return nil
}

// AcquireLease marks the job as owned by owner until now+ttl. A job with an
// unexpired lease yields AlreadyExists, including for the same owner: one
// process runs many jobs and must not start a second run of any of them.
func (s *jobStore) AcquireLease(ctx context.Context, jobID, owner string, now time.Time, ttl time.Duration) (*models.ScheduledJob, error) {
	ref := s.collection().Doc(jobID)
	var job models.ScheduledJob

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NewNotFoundError("scheduled job not found")
			}
			return err
		}
		if err := doc.DataTo(&job); err != nil {
			return err
		}
		if job.LeaseOwner != "" && job.LeaseUntil.After(now) {
			return errs.NewAlreadyExistsError("scheduled job is already running")
		}
		job.LeaseOwner = owner
		job.LeaseUntil = now.Add(ttl)
		return tx.Update(ref, []firestore.Update{
			{Path: "leaseOwner", Value: job.LeaseOwner},
			{Path: "leaseUntil", Value: job.LeaseUntil},
		})
	})
	if err != nil {
		var nf *errs.NotFoundError
		var ae *errs.AlreadyExistsError
		if errors.As(err, &nf) || errors.As(err, &ae) {
			return nil, err
		}
		return nil, errs.NewDatabaseError("update", "failed to acquire job lease", err)
	}
	return &job, nil
}

// Complete records a finished run, advances the schedule and drops the lease.
func (s *jobStore) Complete(ctx context.Context, jobID string, lastRun, nextRun time.Time) error {
	_, err := s.collection().Doc(jobID).Update(ctx, []firestore.Update{
		{Path: "lastRun", Value: lastRun},
		{Path: "nextRun", Value: nextRun},
		{Path: "leaseOwner", Value: firestore.Delete},
		{Path: "leaseUntil", Value: firestore.Delete},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to complete scheduled job", err)
	}
	return nil
}

func (s *jobStore) ReleaseLease(ctx context.Context, jobID string) error {
	_, err := s.collection().Doc(jobID).Update(ctx, []firestore.Update{
		{Path: "leaseOwner", Value: firestore.Delete},
		{Path: "leaseUntil", Value: firestore.Delete},
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to release job lease", err)
	}
	return nil
}

func (s *jobStore) CreateExecution(ctx context.Context, exec *models.JobExecution) error {
	_, err := s.executions(exec.JobID).Doc(exec.ExecutionID).Set(ctx, exec)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create job execution", err)
	}
	return nil
}

func (s *jobStore) UpdateExecution(ctx context.Context, exec *models.JobExecution) error {
	_, err := s.executions(exec.JobID).Doc(exec.ExecutionID).Set(ctx, exec)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to update job execution", err)
	}
	return nil
}

// ListExecutions returns the most recent executions first.
func (s *jobStore) ListExecutions(ctx context.Context, jobID string, limit int) ([]*models.JobExecution, error) {
	q := s.executions(jobID).OrderBy("startedAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list job executions", err)
	}
	out := make([]*models.JobExecution, 0, len(docs))
	for _, d := range docs {
		var e models.JobExecution
		if err := d.DataTo(&e); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse job execution data", err)
		}
		out = append(out, &e)
	}
	return out, nil
}
