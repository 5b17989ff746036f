package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/insights-backend/internal/bootstrap"
	webhookclient "github.com/GregMSThompson/insights-backend/internal/client/webhook"
	"github.com/GregMSThompson/insights-backend/internal/config"
	"github.com/GregMSThompson/insights-backend/internal/crypto"
	"github.com/GregMSThompson/insights-backend/internal/handlers"
	"github.com/GregMSThompson/insights-backend/internal/response"
	"github.com/GregMSThompson/insights-backend/internal/router"
	"github.com/GregMSThompson/insights-backend/internal/services"
	"github.com/GregMSThompson/insights-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

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
	upserv := services.NewUploadService(bs.Blob, upstore)
	anserv := services.NewAnalysisService(bs.VertexAdapter, anstore, upstore, bs.Blob, mstore)
	inserv := services.NewIntegrationService(instore, kmsHelper, providers, anserv)
	sched := services.NewScheduler(bs.Log, jstore, inserv, webhookclient.NewNotifier(nil), services.SchedulerConfig{
		PollInterval: cfg.SchedulerPoll,
		BatchSize:    cfg.SchedulerBatch,
		Workers:      cfg.SchedulerWorkers,
		LeaseTTL:     cfg.SchedulerLease,
	})
	scserv := services.NewScheduleService(jstore, instore, sched)
	unserv := services.NewUnifiedService(mstore)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.UploadSvc = upserv
	deps.AnalysisSvc = anserv
	deps.IntegrationSvc = inserv
	deps.ScheduleSvc = scserv
	deps.UnifiedSvc = unserv

	// router
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Manual triggers need the worker pool even when polling runs elsewhere.
		return sched.Run(gctx, cfg.SchedulerEnabled)
	})
	g.Go(func() error {
		bs.Log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	exitOnError("server stopped", err, bs.Log)
}
