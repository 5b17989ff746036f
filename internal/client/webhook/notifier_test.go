package webhookclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

func TestNotifyPostsJSON(t *testing.T) {
	var got dto.ExecutionNotification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(srv.Client())
	err := n.Notify(context.Background(), srv.URL, dto.ExecutionNotification{
		JobID:         "job-1",
		ExecutionID:   "exec-1",
		Status:        models.ExecutionCompleted,
		RowsProcessed: 12,
	})
	if err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if got.JobID != "job-1" || got.Status != models.ExecutionCompleted || got.RowsProcessed != 12 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestNotifyNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewNotifier(srv.Client()).Notify(context.Background(), srv.URL, dto.ExecutionNotification{JobID: "job-1"})
	if errs.CodeOf(err) != errs.CodeProviderError {
		t.Fatalf("expected provider_error, got %v", err)
	}
}
