package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

type integrationStore struct {
	client *firestore.Client
}

func NewIntegrationStore(client *firestore.Client) *integrationStore {
	return &integrationStore{client: client}
}

func (s *integrationStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("integrations")
}

func (s *integrationStore) Create(ctx context.Context, uid string, in *models.Integration) error {
	now := time.Now()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	_, err := s.collection(uid).Doc(in.IntegrationID).Set(ctx, in)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save integration", err)
	}
	return nil
}

func (s *integrationStore) Get(ctx context.Context, uid, integrationID string) (*models.Integration, error) {
	doc, err := s.collection(uid).Doc(integrationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("integration not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get integration", err)
	}
	var in models.Integration
	if err := doc.DataTo(&in); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse integration data", err)
	}
	return &in, nil
}

func (s *integrationStore) List(ctx context.Context, uid string) ([]*models.Integration, error) {
	docs, err := s.collection(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list integrations", err)
	}
	out := make([]*models.Integration, 0, len(docs))
	for _, d := range docs {
		var in models.Integration
		if err := d.DataTo(&in); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse integration data", err)
		}
		out = append(out, &in)
	}
	return out, nil
}

func (s *integrationStore) UpdateStatus(ctx context.Context, uid, integrationID string, st models.IntegrationStatus) error {
	_, err := s.collection(uid).Doc(integrationID).Update(ctx, []firestore.Update{
		{Path: "status", Value: st},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errs.NewNotFoundError("integration not found")
		}
		return errs.NewDatabaseError("update", "failed to update integration status", err)
	}
	return nil
}

func (s *integrationStore) MarkFetched(ctx context.Context, uid, integrationID string, at time.Time) error {
	_, err := s.collection(uid).Doc(integrationID).Update(ctx, []firestore.Update{
		{Path: "lastFetchedAt", Value: at},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errs.NewDatabaseError("update", "failed to update integration", err)
	}
	return nil
}

func (s *integrationStore) Delete(ctx context.Context, uid, integrationID string) error {
	_, err := s.collection(uid).Doc(integrationID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete integration", err)
	}
	return nil
}
