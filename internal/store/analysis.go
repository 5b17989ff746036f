package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

type analysisStore struct {
	client *firestore.Client
}

func NewAnalysisStore(client *firestore.Client) *analysisStore {
	return &analysisStore{client: client}
}

func (s *analysisStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("analyses")
}

// Create persists an analysis. The filtered table is stored as CSV text since
// Firestore cannot hold nested arrays.
func (s *analysisStore) Create(ctx context.Context, uid string, a *models.Analysis) error {
	doc := *a
	if a.Table != nil {
		doc.TableCSV = dataset.FormatCSV(a.Table)
	}
	_, err := s.collection(uid).Doc(a.AnalysisID).Set(ctx, doc)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save analysis", err)
	}
	return nil
}

func (s *analysisStore) Get(ctx context.Context, uid, analysisID string) (*models.Analysis, error) {
	doc, err := s.collection(uid).Doc(analysisID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("analysis not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get analysis", err)
	}
	var a models.Analysis
	if err := doc.DataTo(&a); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse analysis data", err)
	}
	if a.TableCSV != "" {
		a.Table = dataset.DecodeCSV(a.TableCSV)
		a.TableCSV = ""
	}
	return &a, nil
}

// List returns the newest analyses first, without their tables.
func (s *analysisStore) List(ctx context.Context, uid string, limit int) ([]*models.Analysis, error) {
	query := s.collection(uid).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []*models.Analysis
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list analyses", err)
		}
		var a models.Analysis
		if err := doc.DataTo(&a); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse analysis data", err)
		}
		a.TableCSV = ""
		out = append(out, &a)
	}
	return out, nil
}

func (s *analysisStore) Delete(ctx context.Context, uid, analysisID string) error {
	_, err := s.collection(uid).Doc(analysisID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete analysis", err)
	}
	return nil
}
