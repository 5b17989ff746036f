package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

type stubUnifiedService struct {
	called bool
	req    dto.UnifiedMetricsRequest
	err    error
}

func (s *stubUnifiedService) Generate(_ context.Context, _ string, req dto.UnifiedMetricsRequest) (*models.UnifiedSnapshot, error) {
	s.called = true
	s.req = req
	return &models.UnifiedSnapshot{SnapshotID: "s1"}, s.err
}

func (s *stubUnifiedService) Latest(_ context.Context, _ string) (*models.UnifiedSnapshot, error) {
	return nil, s.err
}

func (s *stubUnifiedService) Sources(_ context.Context, _ string) ([]*models.MetricSource, error) {
	return nil, s.err
}

func TestGenerateUnifiedMetrics(t *testing.T) {
	svc := &stubUnifiedService{}
	resp := &stubResponseHandler{}
	h := NewMetricsHandlers(&Deps{ResponseHandler: resp, UnifiedSvc: svc})

	body := `{"startDate":"2024-06-01","endDate":"2024-06-30"}`
	req := withUID(httptest.NewRequest(http.MethodPost, "/metrics/unified", strings.NewReader(body)), "uid1")
	rr := httptest.NewRecorder()
	h.Generate(rr, req)

	if !svc.called || svc.req.StartDate != "2024-06-01" || svc.req.EndDate != "2024-06-30" {
		t.Fatalf("request not decoded: %+v", svc.req)
	}
	if resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.writeSuccessStatus)
	}
}

func TestLatestUnifiedNotFound(t *testing.T) {
	svc := &stubUnifiedService{err: errs.NewNotFoundError("no unified metrics generated yet")}
	resp := &stubResponseHandler{}
	h := NewMetricsHandlers(&Deps{ResponseHandler: resp, UnifiedSvc: svc})

	req := withUID(httptest.NewRequest(http.MethodGet, "/metrics/unified", nil), "uid1")
	rr := httptest.NewRecorder()
	h.Latest(rr, req)

	if errs.KindOf(resp.handleError) != errs.KindNotFound {
		t.Fatalf("expected not found, got %v", resp.handleError)
	}
}
