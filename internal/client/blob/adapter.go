package blobclient

import (
	"context"
	"errors"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

// Object describes a stored blob.
type Object struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Updated     time.Time `json:"updated"`
}

type Adapter struct {
	bucket *storage.BucketHandle
}

func NewAdapter(client *storage.Client, bucket string) *Adapter {
	return &Adapter{bucket: client.Bucket(bucket)}
}

func (a *Adapter) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	w := a.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errs.NewStorageError("upload", path, err)
	}
	if err := w.Close(); err != nil {
		return errs.NewStorageError("upload", path, err)
	}
	return nil
}

func (a *Adapter) Download(ctx context.Context, path string) ([]byte, error) {
	r, err := a.bucket.Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errs.NewNotFoundError("file not found")
		}
		return nil, errs.NewStorageError("download", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.NewStorageError("download", path, err)
	}
	return data, nil
}

func (a *Adapter) List(ctx context.Context, prefix string) ([]Object, error) {
	it := a.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var out []Object
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewStorageError("list", prefix, err)
		}
		out = append(out, Object{
			Path:        attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Updated:     attrs.Updated,
		})
	}
	return out, nil
}

func (a *Adapter) Delete(ctx context.Context, path string) error {
	err := a.bucket.Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return errs.NewStorageError("delete", path, err)
	}
	return nil
}
