package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/insights-backend/internal/charts"
	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/insights"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/pkg/helpers"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

const (
	generationTimeout   = 30 * time.Second
	generationMaxTokens = int32(2048)
	listAnalysesLimit   = 50
)

// --- Dependencies (minimal interfaces scoped to this service) ---

type vertexClient interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

type analysisASStore interface {
	Create(ctx context.Context, uid string, a *models.Analysis) error
	Get(ctx context.Context, uid, analysisID string) (*models.Analysis, error)
	List(ctx context.Context, uid string, limit int) ([]*models.Analysis, error)
}

type uploadASStore interface {
	Get(ctx context.Context, uid, fileID string) (*models.Upload, error)
}

type blobASReader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

type metricASStore interface {
	UpsertSource(ctx context.Context, uid string, src *models.MetricSource) error
	ReplaceRows(ctx context.Context, uid, sourceID string, rows []models.MetricRow) error
}

type analysisService struct {
	vertex   vertexClient
	analyses analysisASStore
	uploads  uploadASStore
	blobs    blobASReader
	metrics  metricASStore
	timeout  time.Duration
	clockNow func() time.Time
	newID    func() string
}

func NewAnalysisService(vertex vertexClient, analyses analysisASStore, uploads uploadASStore, blobs blobASReader, metrics metricASStore) *analysisService {
	return &analysisService{
		vertex:   vertex,
		analyses: analyses,
		uploads:  uploads,
		blobs:    blobs,
		metrics:  metrics,
		timeout:  generationTimeout,
		clockNow: time.Now,
		newID:    uuid.NewString,
	}
}

// Analyze runs an analysis over an uploaded file or inline CSV text.
func (s *analysisService) Analyze(ctx context.Context, uid string, req dto.AnalyzeRequest) (*models.Analysis, error) {
	opts := dto.AnalysisOptions{
		ReportType:   req.ReportType,
		AnalysisType: req.AnalysisType,
		Filters:      req.Filters,
		Context:      req.Context,
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	var text string
	switch {
	case req.FileID != "" && req.CSV != "":
		return nil, errs.NewValidationError("provide either fileId or csv, not both")
	case req.FileID != "":
		upload, err := s.uploads.Get(ctx, uid, req.FileID)
		if err != nil {
			return nil, err
		}
		raw, err := s.blobs.Download(ctx, upload.Path)
		if err != nil {
			return nil, err
		}
		text = string(raw)
		opts.Input = models.InputUpload
		opts.InputRef = upload.FileID
		opts.Platform = models.PlatformUpload
		opts.SourceName = upload.FileName
	case req.CSV != "":
		text = req.CSV
		opts.Input = models.InputInline
	default:
		return nil, errs.NewValidationError("fileId or csv is required")
	}

	table, err := dataset.ParseCSV(text)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeTable(ctx, uid, table, opts)
}

// AnalyzeTable validates and filters the table, builds charts and key
// metrics, asks the model for a narrative and stores the result. A reply that cannot be decoded
// degrades to the deterministic fallback; a failed call is returned as is.
func (s *analysisService) AnalyzeTable(ctx context.Context, uid string, table *dataset.Table, opts dto.AnalysisOptions) (*models.Analysis, error) {
	log := logger.FromContext(ctx)

	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if err := dataset.Validate(table); err != nil {
		return nil, err
	}

	classification := dataset.Classify(table.Headers, table.Rows)
	rows, err := dataset.Filter(table, classification, opts.Filters)
	if err != nil {
		return nil, err
	}
	filtered := table.WithRows(rows)
	focus := classification.WithMetrics(opts.Filters.Metrics)

	base := insights.KeyMetrics(filtered, focus)
	prompt := insights.BuildPrompt(insights.PromptInput{
		ReportType:     opts.ReportType,
		AnalysisType:   opts.AnalysisType,
		Context:        opts.Context,
		Table:          filtered,
		Classification: focus,
		KeyMetrics:     base,
	})

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.vertex.GenerateContent(callCtx, dto.VertexGenerateRequest{
		System:           insights.SystemPrompt(),
		UserMessage:      prompt,
		ResponseMIMEType: "application/json",
		ResponseSchema:   insights.ResponseSchema(),
		Temperature:      helpers.Ptr(float32(0.2)),
		MaxOutputTokens:  helpers.Ptr(generationMaxTokens),
	})
	if err != nil {
		log.Warn("generation failed", "report_type", opts.ReportType, "code", errs.CodeOf(err))
		return nil, err
	}

	var result insights.Result
	if gen, derr := insights.Decode(resp.Text); derr != nil {
		log.Warn("generation reply malformed, using fallback", "error", derr, "finish_reason", resp.FinishReason)
		result = insights.Fallback(filtered, focus, opts.ReportType)
	} else {
		result = gen.Result(base)
	}

	now := s.clockNow().UTC()
	analysis := &models.Analysis{
		AnalysisID:      s.newID(),
		UID:             uid,
		ReportType:      opts.ReportType,
		AnalysisType:    opts.AnalysisType,
		Source:          result.Source,
		Input:           opts.Input,
		InputRef:        opts.InputRef,
		Platform:        opts.Platform,
		Summary:         result.Summary,
		Insights:        result.Insights,
		Recommendations: result.Recommendations,
		KeyMetrics:      result.KeyMetrics,
		Charts:          charts.Build(filtered.Headers, filtered.Rows, focus, string(opts.ReportType)),
		Filters:         opts.Filters,
		Table:           filtered,
		RowCount:        len(filtered.Rows),
		ColumnCount:     len(filtered.Headers),
		CreatedAt:       now,
	}
	if err := s.analyses.Create(ctx, uid, analysis); err != nil {
		return nil, err
	}

	if err := s.recordSource(ctx, uid, filtered, focus, opts, now); err != nil {
		return nil, err
	}

	log.Info("analysis completed",
		"analysis_id", analysis.AnalysisID,
		"source", analysis.Source,
		"rows", analysis.RowCount,
		"charts", len(analysis.Charts),
	)
	return analysis, nil
}

// recordSource stores the table's metric rows for unified reporting. Inline
// analyses have no stable identity and are not recorded.
func (s *analysisService) recordSource(ctx context.Context, uid string, t *dataset.Table, c dataset.Classification, opts dto.AnalysisOptions, now time.Time) error {
	if opts.Input == models.InputInline || opts.Input == "" || opts.InputRef == "" {
		return nil
	}

	src := &models.MetricSource{
		SourceID:       SourceID(opts.Platform, opts.InputRef),
		UID:            uid,
		Platform:       opts.Platform,
		Name:           helpers.FirstNonEmpty(opts.SourceName, string(opts.Platform)+" "+opts.InputRef),
		Input:          opts.Input,
		InputRef:       opts.InputRef,
		LastAnalyzedAt: now,
	}
	rows := MetricRows(t, c, src.SourceID, src.Platform, now)
	src.RowCount = len(rows)

	if err := s.metrics.ReplaceRows(ctx, uid, src.SourceID, rows); err != nil {
		return err
	}
	return s.metrics.UpsertSource(ctx, uid, src)
}

func (s *analysisService) Get(ctx context.Context, uid, analysisID string) (*models.Analysis, error) {
	return s.analyses.Get(ctx, uid, analysisID)
}

func (s *analysisService) List(ctx context.Context, uid string) ([]*models.Analysis, error) {
	return s.analyses.List(ctx, uid, listAnalysesLimit)
}

func validateOptions(opts dto.AnalysisOptions) error {
	if !opts.ReportType.Valid() {
		return errs.NewValidationErrorCode(errs.CodeInvalidInput,
			fmt.Sprintf("unsupported report type %q", opts.ReportType),
			"Use one of campaign_performance, traffic_analysis, conversion_analysis, social_media, email_marketing or general.")
	}
	if !opts.AnalysisType.Valid() {
		return errs.NewValidationErrorCode(errs.CodeInvalidInput,
			fmt.Sprintf("unsupported analysis type %q", opts.AnalysisType),
			"Use one of summary, trends, recommendations or comprehensive.")
	}
	return nil
}

// SourceID names the metric source fed by one upload or integration.
func SourceID(platform models.Platform, ref string) string {
	return string(platform) + "_" + ref
}

// MetricRows flattens every numeric cell into a dated metric row. Rows
// without a parseable date are attributed to now.
func MetricRows(t *dataset.Table, c dataset.Classification, sourceID string, platform models.Platform, now time.Time) []models.MetricRow {
	dateIdx, catIdx := -1, -1
	if h, ok := c.FirstDate(); ok {
		dateIdx = t.Index(h)
	}
	if h, ok := c.FirstCategorical(); ok {
		catIdx = t.Index(h)
	}
	today := dataset.Day(now).Format(time.DateOnly)

	var out []models.MetricRow
	for _, row := range t.Rows {
		date := today
		if dateIdx >= 0 {
			if d, ok := dataset.ParseDate(row[dateIdx]); ok {
				date = d.Format(time.DateOnly)
			}
		}
		category := ""
		if catIdx >= 0 {
			category = row[catIdx]
		}
		for _, h := range c.Numerics {
			v, ok := dataset.ParseNumber(row[t.Index(h)])
			if !ok {
				continue
			}
			out = append(out, models.MetricRow{
				SourceID: sourceID,
				Platform: platform,
				Date:     date,
				Name:     insights.Snake(h),
				Value:    v,
				Category: category,
			})
		}
	}
	return out
}
