package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestCloudRunHandlerWritesSeverityAndData(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerWriter(slog.LevelInfo, &buf)).With("job_id", "j1")

	log.Warn("run failed", "error", errors.New("boom"))

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, buf.String())
	}
	if event["severity"] != "WARNING" {
		t.Fatalf("severity mismatch: %v", event["severity"])
	}
	data, ok := event["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", event["data"])
	}
	if data["job_id"] != "j1" || data["error"] != "boom" {
		t.Fatalf("unexpected data: %+v", data)
	}
}

func TestCloudRunHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerWriter(slog.LevelWarn, &buf))

	log.Info("ignored")

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDetachKeepsLogger(t *testing.T) {
	log := slog.New(NewTestHandler(slog.LevelInfo))
	ctx, cancel := context.WithCancel(ToContext(context.Background(), log))
	cancel()

	detached := Detach(ctx)
	if detached.Err() != nil {
		t.Fatalf("detached context should not be cancelled")
	}
	if FromContext(detached) != log {
		t.Fatalf("expected logger to survive detach")
	}
}
