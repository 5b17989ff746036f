package vertexclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.Kind
		code string
	}{
		{"rate limited", status.Error(codes.ResourceExhausted, "quota"), errs.KindResourceExhausted, errs.CodeRateLimited},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), errs.KindDeadlineExceeded, errs.CodeDeadlineExceeded},
		{"context deadline", context.DeadlineExceeded, errs.KindDeadlineExceeded, errs.CodeDeadlineExceeded},
		{"unauthenticated", status.Error(codes.Unauthenticated, "bad creds"), errs.KindUnauthenticated, errs.CodeUnauthenticated},
		{"permission denied", status.Error(codes.PermissionDenied, "nope"), errs.KindPermissionDenied, errs.CodePermissionDenied},
		{"unavailable", status.Error(codes.Unavailable, "down"), errs.KindInternal, errs.CodeServiceError},
		{"unknown", errors.New("boom"), errs.KindInternal, errs.CodeServiceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(context.Background(), tt.err)
			if errs.KindOf(got) != tt.kind {
				t.Fatalf("kind mismatch: got %s want %s", errs.KindOf(got), tt.kind)
			}
			if errs.CodeOf(got) != tt.code {
				t.Fatalf("code mismatch: got %s want %s", errs.CodeOf(got), tt.code)
			}
		})
	}
}

func TestClassifyErrorExpiredContext(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	got := classifyError(ctx, status.Error(codes.Canceled, "canceled"))
	if errs.KindOf(got) != errs.KindDeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %s", errs.KindOf(got))
	}
}

func TestClassifyErrorTransient(t *testing.T) {
	var ext *errs.ExternalServiceError
	if !errors.As(classifyError(context.Background(), status.Error(codes.Unavailable, "down")), &ext) || !ext.Transient {
		t.Fatal("expected transient external service error")
	}
	if !errors.As(classifyError(context.Background(), errors.New("bad request")), &ext) || ext.Transient {
		t.Fatal("expected non-transient external service error")
	}
}

func TestParseContentResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				FinishReason: genai.FinishReasonStop,
				Content:      &genai.Content{Parts: []genai.Part{genai.Text(`{"summary":`), genai.Text(`"ok"}`)}},
			},
		},
	}

	text, finish := parseContentResponse(resp)
	if text != `{"summary":"ok"}` {
		t.Fatalf("text mismatch: %q", text)
	}
	if finish == "" {
		t.Fatal("expected finish reason")
	}

	if text, _ := parseContentResponse(nil); text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestToGenaiSchema(t *testing.T) {
	schema := toGenaiSchema(&dto.VertexSchema{
		Type:     "object",
		Required: []string{"summary"},
		Properties: map[string]*dto.VertexSchema{
			"summary":  {Type: "string"},
			"insights": {Type: "array", Items: &dto.VertexSchema{Type: "object"}},
		},
	})

	if schema.Type != genai.TypeObject {
		t.Fatalf("type mismatch: %v", schema.Type)
	}
	if schema.Properties["insights"].Items.Type != genai.TypeObject {
		t.Fatal("expected nested items schema")
	}
	if toGenaiSchema(nil) != nil {
		t.Fatal("expected nil schema")
	}
}
