package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/insights-backend/internal/bootstrap"
	webhookclient "github.com/GregMSThompson/insights-backend/internal/client/webhook"
	"github.com/GregMSThompson/insights-backend/internal/config"
	"github.com/GregMSThompson/insights-backend/internal/crypto"
	"github.com/GregMSThompson/insights-backend/internal/services"
	"github.com/GregMSThompson/insights-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

// The scheduler process only polls for due jobs; it serves no HTTP routes.
func main() {
	_ = godotenv.Load()

	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
	secrets := store.NewPlatformSecretsStore(bs.Secrets, cfg.ProjectID)
	providers, err := bootstrap.InitProviders(ctx, cfg, secrets)
	exitOnError("provider setup failed", err, bs.Log)

	// stores
	upstore := store.NewUploadStore(bs.Firestore)
	anstore := store.NewAnalysisStore(bs.Firestore)
	instore := store.NewIntegrationStore(bs.Firestore)
	jstore := store.NewJobStore(bs.Firestore)
	mstore := store.NewMetricStore(bs.Firestore)

	// services
	anserv := services.NewAnalysisService(bs.VertexAdapter, anstore, upstore, bs.Blob, mstore)
	inserv := services.NewIntegrationService(instore, kmsHelper, providers, anserv)
	sched := services.NewScheduler(bs.Log, jstore, inserv, webhookclient.NewNotifier(nil), services.SchedulerConfig{
		PollInterval: cfg.SchedulerPoll,
		BatchSize:    cfg.SchedulerBatch,
		Workers:      cfg.SchedulerWorkers,
		LeaseTTL:     cfg.SchedulerLease,
	})

	err = sched.Run(ctx, true)
	exitOnError("scheduler stopped", err, bs.Log)
}
