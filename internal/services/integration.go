package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

const (
	defaultFetchDays    = 30
	defaultLookbackDays = 7
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type integrationISStore interface {
	Create(ctx context.Context, uid string, in *models.Integration) error
	Get(ctx context.Context, uid, integrationID string) (*models.Integration, error)
	List(ctx context.Context, uid string) ([]*models.Integration, error)
	UpdateStatus(ctx context.Context, uid, integrationID string, status models.IntegrationStatus) error
	MarkFetched(ctx context.Context, uid, integrationID string, at time.Time) error
	Delete(ctx context.Context, uid, integrationID string) error
}

// tokenCipher seals platform access tokens at rest.
type tokenCipher interface {
	KmsEncrypt(ctx context.Context, plaintext string) (string, error)
	KmsDecrypt(ctx context.Context, ciphertext string) (string, error)
}

// Provider is a platform report source.
type Provider interface {
	Fetch(ctx context.Context, req dto.ProviderFetchRequest) (dto.ProviderFetchResult, error)
}

type tableAnalyzer interface {
	AnalyzeTable(ctx context.Context, uid string, table *dataset.Table, opts dto.AnalysisOptions) (*models.Analysis, error)
}

type integrationService struct {
	integrations integrationISStore
	cipher       tokenCipher
	providers    map[models.Platform]Provider
	analyzer     tableAnalyzer
	clockNow     func() time.Time
	newID        func() string
}

func NewIntegrationService(integrations integrationISStore, cipher tokenCipher, providers map[models.Platform]Provider, analyzer tableAnalyzer) *integrationService {
	return &integrationService{
		integrations: integrations,
		cipher:       cipher,
		providers:    providers,
		analyzer:     analyzer,
		clockNow:     time.Now,
		newID:        uuid.NewString,
	}
}

func (s *integrationService) Connect(ctx context.Context, uid string, req dto.ConnectIntegrationRequest) (*models.Integration, error) {
	if !req.Platform.Connectable() {
		return nil, errs.NewValidationError(fmt.Sprintf("unsupported platform %q", req.Platform))
	}
	if strings.TrimSpace(req.AccountRef) == "" {
		return nil, errs.NewValidationError("accountRef is required")
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		return nil, errs.NewValidationError("accessToken is required")
	}

	sealed, err := s.cipher.KmsEncrypt(ctx, req.AccessToken)
	if err != nil {
		return nil, err
	}

	now := s.clockNow().UTC()
	in := &models.Integration{
		IntegrationID: s.newID(),
		UID:           uid,
		Platform:      req.Platform,
		AccountRef:    strings.TrimSpace(req.AccountRef),
		AccountName:   req.AccountName,
		AccessToken:   sealed,
		Status:        models.IntegrationActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.integrations.Create(ctx, uid, in); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info("integration connected", "integration_id", in.IntegrationID, "platform", in.Platform)
	return in, nil
}

func (s *integrationService) List(ctx context.Context, uid string) ([]*models.Integration, error) {
	return s.integrations.List(ctx, uid)
}

func (s *integrationService) Get(ctx context.Context, uid, integrationID string) (*models.Integration, error) {
	return s.integrations.Get(ctx, uid, integrationID)
}

func (s *integrationService) Delete(ctx context.Context, uid, integrationID string) error {
	if _, err := s.integrations.Get(ctx, uid, integrationID); err != nil {
		return err
	}
	if err := s.integrations.Delete(ctx, uid, integrationID); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info("integration deleted", "integration_id", integrationID)
	return nil
}

// Fetch pulls a date range from the connected account and analyzes it.
func (s *integrationService) Fetch(ctx context.Context, uid, integrationID string, req dto.FetchIntegrationRequest) (*models.Analysis, error) {
	in, err := s.integrations.Get(ctx, uid, integrationID)
	if err != nil {
		return nil, err
	}

	end := dataset.Day(s.clockNow())
	start := end.AddDate(0, 0, -defaultFetchDays)
	if start, end, err = resolveRange(req.StartDate, req.EndDate, start, end); err != nil {
		return nil, err
	}

	opts := dto.AnalysisOptions{
		ReportType:   req.ReportType,
		AnalysisType: req.AnalysisType,
		Input:        models.InputIntegration,
	}
	return s.run(ctx, in, start, end, req.Metrics, req.Dimensions, opts)
}

// RunJob executes a scheduled job's fetch over its lookback window ending today.
func (s *integrationService) RunJob(ctx context.Context, job *models.ScheduledJob) (*models.Analysis, error) {
	in, err := s.integrations.Get(ctx, job.UID, job.IntegrationID)
	if err != nil {
		return nil, err
	}

	days := job.LookbackDays
	if days <= 0 {
		days = defaultLookbackDays
	}
	end := dataset.Day(s.clockNow())
	start := end.AddDate(0, 0, -days)

	opts := dto.AnalysisOptions{
		ReportType:   job.ReportType,
		AnalysisType: job.AnalysisType,
		Context:      "Scheduled report: " + job.Name,
		Input:        models.InputSchedule,
	}
	return s.run(ctx, in, start, end, job.Metrics, job.Dimensions, opts)
}

func (s *integrationService) run(ctx context.Context, in *models.Integration, start, end time.Time, metrics, dimensions []string, opts dto.AnalysisOptions) (*models.Analysis, error) {
	log := logger.FromContext(ctx)

	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if in.Status == models.IntegrationExpired {
		return nil, errs.NewTokenExpiredError(string(in.Platform))
	}
	provider, ok := s.providers[in.Platform]
	if !ok {
		return nil, errs.NewValidationError(fmt.Sprintf("no provider configured for platform %q", in.Platform))
	}

	token, err := s.cipher.KmsDecrypt(ctx, in.AccessToken)
	if err != nil {
		return nil, err
	}

	result, err := provider.Fetch(ctx, dto.ProviderFetchRequest{
		AccountRef:  in.AccountRef,
		AccessToken: token,
		StartDate:   start.Format(time.DateOnly),
		EndDate:     end.Format(time.DateOnly),
		Metrics:     metrics,
		Dimensions:  dimensions,
	})
	if err != nil {
		var unauth *errs.UnauthenticatedError
		if errors.As(err, &unauth) && unauth.Code == errs.CodeTokenExpired {
			if uerr := s.integrations.UpdateStatus(ctx, in.UID, in.IntegrationID, models.IntegrationExpired); uerr != nil {
				log.Warn("failed to mark integration expired", "integration_id", in.IntegrationID, "error", uerr)
			}
		}
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, errs.NewValidationErrorCode(errs.CodeInsufficientRows,
			"the platform returned no data for the requested date range",
			"Choose a wider date range or check that the account has activity.")
	}

	opts.InputRef = in.IntegrationID
	opts.Platform = in.Platform
	opts.SourceName = in.AccountName
	table := &dataset.Table{Headers: result.Headers, Rows: result.Rows}
	if err := dataset.Validate(table); err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.AnalyzeTable(ctx, in.UID, table, opts)
	if err != nil {
		return nil, err
	}
	if err := s.integrations.MarkFetched(ctx, in.UID, in.IntegrationID, s.clockNow().UTC()); err != nil {
		return nil, err
	}

	log.Info("integration fetched",
		"integration_id", in.IntegrationID,
		"platform", in.Platform,
		"rows", len(result.Rows),
		"total_rows", result.TotalRows,
	)
	return analysis, nil
}

// resolveRange parses optional YYYY-MM-DD bounds over the given defaults.
func resolveRange(startText, endText string, start, end time.Time) (time.Time, time.Time, error) {
	parse := func(s string, def time.Time) (time.Time, error) {
		if s == "" {
			return def, nil
		}
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, errs.NewValidationErrorCode(errs.CodeInvalidDateRange,
				fmt.Sprintf("invalid date %q", s),
				"Use dates in YYYY-MM-DD format.")
		}
		return t, nil
	}

	var err error
	if start, err = parse(startText, start); err != nil {
		return start, end, err
	}
	if end, err = parse(endText, end); err != nil {
		return start, end, err
	}
	if start.After(end) {
		return start, end, errs.NewValidationErrorCode(errs.CodeInvalidDateRange,
			"start date is after end date",
			"Choose a start date on or before the end date.")
	}
	return start, end, nil
}
