package blobclient

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/storage"

	"github.com/GregMSThompson/insights-backend/internal/errs"
)

func TestAdapterWithEmulator(t *testing.T) {
	if os.Getenv("STORAGE_EMULATOR_HOST") == "" {
		t.Skip("STORAGE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		t.Fatalf("storage client error: %v", err)
	}
	defer client.Close()

	bucket := "insights-test"
	if err := client.Bucket(bucket).Create(ctx, "test-project", nil); err != nil {
		t.Logf("bucket create: %v", err)
	}
	a := NewAdapter(client, bucket)

	path := "uploads/user/file-1.csv"
	if err := a.Upload(ctx, path, []byte("a,b\n1,2\n3,4\n"), "text/csv"); err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	data, err := a.Download(ctx, path)
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if string(data) != "a,b\n1,2\n3,4\n" {
		t.Fatalf("content mismatch: %q", data)
	}

	objs, err := a.List(ctx, "uploads/user/")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(objs) != 1 || objs[0].Path != path {
		t.Fatalf("list mismatch: %+v", objs)
	}

	if err := a.Delete(ctx, path); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := a.Download(ctx, path); errs.KindOf(err) != errs.KindNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
