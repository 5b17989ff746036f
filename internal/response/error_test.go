package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

func TestHandleErrorStatusAndBody(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", errs.NewValidationErrorCode(errs.CodeInsufficientRows, "need 2 rows", "Add rows."), http.StatusBadRequest, errs.CodeInsufficientRows},
		{"not found", errs.NewNotFoundError("job not found"), http.StatusNotFound, errs.CodeNotFound},
		{"token expired", errs.NewTokenExpiredError("analytics"), http.StatusUnauthorized, errs.CodeTokenExpired},
		{"forbidden", errs.NewPermissionDeniedError("search_ads", "no access"), http.StatusForbidden, errs.CodePermissionDenied},
		{"rate limited", errs.NewResourceExhaustedError("vertex"), http.StatusTooManyRequests, errs.CodeRateLimited},
		{"deadline", errs.NewDeadlineExceededError("vertex"), http.StatusGatewayTimeout, errs.CodeDeadlineExceeded},
		{"provider", errs.NewProviderError("social_ads", 500, "upstream 500"), http.StatusServiceUnavailable, errs.CodeProviderError},
		{"database", errs.NewDatabaseError("read", "failed", errors.New("x")), http.StatusInternalServerError, errs.CodeInternal},
		{"empty body", decodeErr(""), http.StatusBadRequest, errs.CodeInvalidInput},
		{"truncated body", decodeErr(`{"reportType":`), http.StatusBadRequest, errs.CodeInvalidInput},
		{"syntax", decodeErr(`{"reportType" 1}`), http.StatusBadRequest, errs.CodeInvalidInput},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, errs.CodeInternal},
	}

	h := New(slog.New(logger.NewTestHandler(slog.LevelInfo)))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rr := httptest.NewRecorder()

			h.HandleError(rr, req, tc.err)

			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if body.Code != tc.code {
				t.Fatalf("code = %q, want %q", body.Code, tc.code)
			}
			if body.Message == "" || body.Action == "" {
				t.Fatalf("message and action must be set: %+v", body)
			}
		})
	}
}

func decodeErr(body string) error {
	var v map[string]any
	return json.NewDecoder(strings.NewReader(body)).Decode(&v)
}
