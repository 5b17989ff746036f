package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

type metricStore struct {
	client *firestore.Client
}

func NewMetricStore(client *firestore.Client) *metricStore {
	return &metricStore{client: client}
}

func (s *metricStore) sources(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("metric_sources")
}

func (s *metricStore) rows(uid, sourceID string) *firestore.CollectionRef {
	return s.sources(uid).Doc(sourceID).Collection("rows")
}

func (s *metricStore) snapshots(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("unified_metrics")
}

func (s *metricStore) UpsertSource(ctx context.Context, uid string, src *models.MetricSource) error {
	now := time.Now()
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now
	_, err := s.sources(uid).Doc(src.SourceID).Set(ctx, src)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to save metric source", err)
	}
	return nil
}

func (s *metricStore) ListSources(ctx context.Context, uid string) ([]*models.MetricSource, error) {
	docs, err := s.sources(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list metric sources", err)
	}
	out := make([]*models.MetricSource, 0, len(docs))
	for _, d := range docs {
		var src models.MetricSource
		if err := d.DataTo(&src); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse metric source data", err)
		}
		out = append(out, &src)
	}
	return out, nil
}

// ReplaceRows swaps the stored rows of a source for rows. Deletes are flushed
// before writes since row ids are positional and reused.
func (s *metricStore) ReplaceRows(ctx context.Context, uid, sourceID string, rows []models.MetricRow) error {
	refs, err := s.rows(uid, sourceID).DocumentRefs(ctx).GetAll()
	if err != nil {
		return errs.NewDatabaseError("read", "failed to list metric rows", err)
	}

	err = s.bulk(ctx, len(refs), func(bw *firestore.BulkWriter, i int) (*firestore.BulkWriterJob, error) {
		return bw.Delete(refs[i])
	})
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete metric rows", err)
	}

	err = s.bulk(ctx, len(rows), func(bw *firestore.BulkWriter, i int) (*firestore.BulkWriterJob, error) {
		return bw.Set(s.rows(uid, sourceID).Doc(fmt.Sprintf("%06d", i)), rows[i])
	})
	if err != nil {
		return errs.NewDatabaseError("create", "failed to write metric rows", err)
	}
	return nil
}

func (s *metricStore) bulk(ctx context.Context, n int, write func(*firestore.BulkWriter, int) (*firestore.BulkWriterJob, error)) error {
	if n == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, n)
	for i := 0; i < n; i++ {
		job, err := write(bw, i)
		if err != nil {
			bw.End()
			return err
		}
		jobs = append(jobs, job)
	}

	// Flush and close the writer, then wait on each job for errors.
	bw.End()
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return err
		}
	}
	return nil
}

// ListRows returns a source's rows with start <= date <= end. Dates are
// YYYY-MM-DD so string order is date order.
func (s *metricStore) ListRows(ctx context.Context, uid, sourceID, start, end string) ([]models.MetricRow, error) {
	q := s.rows(uid, sourceID).Query
	if start != "" {
		q = q.Where("date", ">=", start)
	}
	if end != "" {
		q = q.Where("date", "<=", end)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []models.MetricRow
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list metric rows", err)
		}
		var r models.MetricRow
		if err := doc.DataTo(&r); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse metric row data", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *metricStore) SaveSnapshot(ctx context.Context, uid string, snap *models.UnifiedSnapshot) error {
	_, err := s.snapshots(uid).Doc(snap.SnapshotID).Set(ctx, snap)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save unified metrics", err)
	}
	return nil
}

// LatestSnapshot returns the most recently generated snapshot.
func (s *metricStore) LatestSnapshot(ctx context.Context, uid string) (*models.UnifiedSnapshot, error) {
	docs, err := s.snapshots(uid).OrderBy("generatedAt", firestore.Desc).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to get unified metrics", err)
	}
	if len(docs) == 0 {
		return nil, errs.NewNotFoundError("no unified metrics generated yet")
	}
	var snap models.UnifiedSnapshot
	if err := docs[0].DataTo(&snap); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse unified metrics data", err)
	}
	return &snap, nil
}
