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

type uploadStore struct {
	client *firestore.Client
}

func NewUploadStore(client *firestore.Client) *uploadStore {
	return &uploadStore{client: client}
}

func (s *uploadStore) collection(uid string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(uid).Collection("uploads")
}

func (s *uploadStore) Create(ctx context.Context, uid string, u *models.Upload) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.collection(uid).Doc(u.FileID).Set(ctx, u)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save upload", err)
	}
	return nil
}

func (s *uploadStore) Get(ctx context.Context, uid, fileID string) (*models.Upload, error) {
	doc, err := s.collection(uid).Doc(fileID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("upload not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get upload", err)
	}
	var u models.Upload
	if err := doc.DataTo(&u); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse upload data", err)
	}
	return &u, nil
}

func (s *uploadStore) List(ctx context.Context, uid string) ([]*models.Upload, error) {
	docs, err := s.collection(uid).OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list uploads", err)
	}
	out := make([]*models.Upload, 0, len(docs))
	for _, d := range docs {
		var u models.Upload
		if err := d.DataTo(&u); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse upload data", err)
		}
		out = append(out, &u)
	}
	return out, nil
}

func (s *uploadStore) Delete(ctx context.Context, uid, fileID string) error {
	_, err := s.collection(uid).Doc(fileID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete upload", err)
	}
	return nil
}
