package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	kms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	"firebase.google.com/go/v4/auth"

	blobclient "github.com/GregMSThompson/insights-backend/internal/client/blob"
	vertexclient "github.com/GregMSThompson/insights-backend/internal/client/vertex"
	"github.com/GregMSThompson/insights-backend/internal/config"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	Storage       *storage.Client
	Blob          *blobclient.Adapter
	KMS           *kms.KeyManagementClient
	Secrets       *secretmanager.Client
	VertexAdapter *vertexclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.Storage, err = storage.NewClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.Blob = blobclient.NewAdapter(bs.Storage, cfg.Bucket)
	bs.KMS, err = kms.NewKeyManagementClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.Secrets, err = secretmanager.NewClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

// Close releases every client that was opened, in reverse order.
func (bs *Bootstrap) Close() {
	var closers []func() error
	if bs.VertexAdapter != nil {
		closers = append(closers, bs.VertexAdapter.Close)
	}
	if bs.Secrets != nil {
		closers = append(closers, bs.Secrets.Close)
	}
	if bs.KMS != nil {
		closers = append(closers, bs.KMS.Close)
	}
	if bs.Storage != nil {
		closers = append(closers, bs.Storage.Close)
	}
	if bs.Firestore != nil {
		closers = append(closers, bs.Firestore.Close)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil && bs.Log != nil {
			bs.Log.Error("client close failed", "error", err)
		}
	}
}
