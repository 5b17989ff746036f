package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	blobclient "github.com/GregMSThompson/insights-backend/internal/client/blob"
	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

// MaxUploadBytes caps the size of an uploaded file.
const MaxUploadBytes = 10 << 20

type uploadBlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]blobclient.Object, error)
	Delete(ctx context.Context, path string) error
}

type uploadUSStore interface {
	Create(ctx context.Context, uid string, u *models.Upload) error
	Get(ctx context.Context, uid, fileID string) (*models.Upload, error)
	List(ctx context.Context, uid string) ([]*models.Upload, error)
	Delete(ctx context.Context, uid, fileID string) error
}

type uploadService struct {
	blobs    uploadBlobStore
	uploads  uploadUSStore
	clockNow func() time.Time
	newID    func() string
}

func NewUploadService(blobs uploadBlobStore, uploads uploadUSStore) *uploadService {
	return &uploadService{
		blobs:    blobs,
		uploads:  uploads,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

// uploadPrefix holds every object belonging to one upload.
func uploadPrefix(uid, fileID string) string {
	return fmt.Sprintf("uploads/%s/%s/", uid, fileID)
}

// Upload validates a CSV or Excel file, keeps the original bytes and stores a
// normalized CSV copy that analyses read from.
func (s *uploadService) Upload(ctx context.Context, uid, fileName, contentType string, r io.Reader) (*models.Upload, error) {
	ext := strings.ToLower(path.Ext(fileName))
	if ext != ".csv" && ext != ".xls" && ext != ".xlsx" {
		return nil, errs.NewValidationErrorCode(errs.CodeUnsupportedFile,
			fmt.Sprintf("unsupported file type %q", ext),
			"Upload a .csv, .xls or .xlsx file.")
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, errs.NewValidationError("failed to read uploaded file")
	}
	if len(raw) > MaxUploadBytes {
		return nil, errs.NewValidationErrorCode(errs.CodeFileTooLarge,
			"the file is larger than 10MB",
			"Split the file or remove unused columns and try again.")
	}

	var table *dataset.Table
	if ext == ".csv" {
		table, err = dataset.ParseCSV(string(raw))
	} else {
		table, err = dataset.ParseExcel(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, err
	}

	fileID := s.newID()
	prefix := uploadPrefix(uid, fileID)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.blobs.Upload(ctx, prefix+"original"+ext, raw, contentType); err != nil {
		return nil, err
	}
	tablePath := prefix + "table.csv"
	if err := s.blobs.Upload(ctx, tablePath, []byte(dataset.FormatCSV(table)), "text/csv"); err != nil {
		return nil, err
	}

	upload := &models.Upload{
		FileID:      fileID,
		UID:         uid,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(raw)),
		Path:        tablePath,
		Headers:     table.Headers,
		RowCount:    len(table.Rows),
		ColumnCount: len(table.Headers),
		CreatedAt:   s.clockNow().UTC(),
	}
	if err := s.uploads.Create(ctx, uid, upload); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("file uploaded", "file_id", fileID, "rows", upload.RowCount, "columns", upload.ColumnCount)
	return upload, nil
}

func (s *uploadService) List(ctx context.Context, uid string) ([]*models.Upload, error) {
	return s.uploads.List(ctx, uid)
}

func (s *uploadService) Get(ctx context.Context, uid, fileID string) (*models.Upload, error) {
	return s.uploads.Get(ctx, uid, fileID)
}

// Delete removes every stored object of the upload, then its record.
func (s *uploadService) Delete(ctx context.Context, uid, fileID string) error {
	if _, err := s.uploads.Get(ctx, uid, fileID); err != nil {
		return err
	}

	objects, err := s.blobs.List(ctx, uploadPrefix(uid, fileID))
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if err := s.blobs.Delete(ctx, obj.Path); err != nil {
			return err
		}
	}
	if err := s.uploads.Delete(ctx, uid, fileID); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("upload deleted", "file_id", fileID, "objects", len(objects))
	return nil
}
