package config

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SCHEDULERPOLL", "")
	t.Setenv("SCHEDULERWORKERS", "")
	t.Setenv("SCHEDULERENABLED", "")

	cfg := New()
	if cfg.Port != "8080" || cfg.SchedulerPoll != time.Minute || cfg.SchedulerWorkers != 4 || !cfg.SchedulerEnabled {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCHEDULERPOLL", "30s")
	t.Setenv("SCHEDULERWORKERS", "8")
	t.Setenv("SCHEDULERENABLED", "false")
	t.Setenv("PROVIDERRPS", "2.5")

	cfg := New()
	if cfg.Port != "9090" || cfg.SchedulerPoll != 30*time.Second || cfg.SchedulerWorkers != 8 || cfg.SchedulerEnabled || cfg.ProviderRPS != 2.5 {
		t.Fatalf("overrides not applied %+v", cfg)
	}
}

func TestNewIgnoresInvalidValues(t *testing.T) {
	t.Setenv("SCHEDULERPOLL", "soon")
	t.Setenv("SCHEDULERBATCH", "-3")

	cfg := New()
	if cfg.SchedulerPoll != time.Minute || cfg.SchedulerBatch != 10 {
		t.Fatalf("invalid values should fall back to defaults %+v", cfg)
	}
}
