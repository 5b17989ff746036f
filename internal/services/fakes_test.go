package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	blobclient "github.com/GregMSThompson/insights-backend/internal/client/blob"
	"github.com/GregMSThompson/insights-backend/internal/dataset"
	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/models"
)

// --- fakes ---

type fakeVertex struct {
	text  string
	err   error
	calls int
	last  dto.VertexGenerateRequest
	ctxOK bool
}

func (f *fakeVertex) GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error) {
	f.calls++
	f.last = req
	_, f.ctxOK = ctx.Deadline()
	if f.err != nil {
		return dto.VertexGenerateResponse{}, f.err
	}
	return dto.VertexGenerateResponse{Text: f.text, FinishReason: "STOP"}, nil
}

type fakeAnalysisStore struct {
	created []*models.Analysis
	err     error
}

func (f *fakeAnalysisStore) Create(ctx context.Context, uid string, a *models.Analysis) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAnalysisStore) Get(ctx context.Context, uid, analysisID string) (*models.Analysis, error) {
	for _, a := range f.created {
		if a.AnalysisID == analysisID && a.UID == uid {
			return a, nil
		}
	}
	return nil, errs.NewNotFoundError("analysis not found")
}

func (f *fakeAnalysisStore) List(ctx context.Context, uid string, limit int) ([]*models.Analysis, error) {
	return f.created, f.err
}

type fakeUploadStore struct {
	uploads map[string]*models.Upload
	deleted []string
}

func (f *fakeUploadStore) Create(ctx context.Context, uid string, u *models.Upload) error {
	if f.uploads == nil {
		f.uploads = map[string]*models.Upload{}
	}
	f.uploads[u.FileID] = u
	return nil
}

func (f *fakeUploadStore) Get(ctx context.Context, uid, fileID string) (*models.Upload, error) {
	u, ok := f.uploads[fileID]
	if !ok || u.UID != uid {
		return nil, errs.NewNotFoundError("upload not found")
	}
	return u, nil
}

func (f *fakeUploadStore) List(ctx context.Context, uid string) ([]*models.Upload, error) {
	var out []*models.Upload
	for _, u := range f.uploads {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUploadStore) Delete(ctx context.Context, uid, fileID string) error {
	delete(f.uploads, fileID)
	f.deleted = append(f.deleted, fileID)
	return nil
}

type fakeBlobs struct {
	objects map[string][]byte
	err     error
}

func (f *fakeBlobs) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	if f.err != nil {
		return f.err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[path] = data
	return nil
}

func (f *fakeBlobs) Download(ctx context.Context, path string) ([]byte, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, errs.NewNotFoundError("object not found")
	}
	return data, nil
}

func (f *fakeBlobs) List(ctx context.Context, prefix string) ([]blobclient.Object, error) {
	var out []blobclient.Object
	for p, data := range f.objects {
		if strings.HasPrefix(p, prefix) {
			out = append(out, blobclient.Object{Path: p, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, path string) error {
	delete(f.objects, path)
	return nil
}

type fakeMetricStore struct {
	sources   map[string]*models.MetricSource
	rows      map[string][]models.MetricRow
	snapshots []*models.UnifiedSnapshot
}

func (f *fakeMetricStore) UpsertSource(ctx context.Context, uid string, src *models.MetricSource) error {
	if f.sources == nil {
		f.sources = map[string]*models.MetricSource{}
	}
	f.sources[src.SourceID] = src
	return nil
}

func (f *fakeMetricStore) ReplaceRows(ctx context.Context, uid, sourceID string, rows []models.MetricRow) error {
	if f.rows == nil {
		f.rows = map[string][]models.MetricRow{}
	}
	f.rows[sourceID] = rows
	return nil
}

func (f *fakeMetricStore) ListSources(ctx context.Context, uid string) ([]*models.MetricSource, error) {
	var out []*models.MetricSource
	for _, s := range f.sources {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeMetricStore) ListRows(ctx context.Context, uid, sourceID, start, end string) ([]models.MetricRow, error) {
	var out []models.MetricRow
	for _, r := range f.rows[sourceID] {
		if r.Date >= start && r.Date <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeMetricStore) SaveSnapshot(ctx context.Context, uid string, snap *models.UnifiedSnapshot) error {
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func (f *fakeMetricStore) LatestSnapshot(ctx context.Context, uid string) (*models.UnifiedSnapshot, error) {
	if len(f.snapshots) == 0 {
		return nil, errs.NewNotFoundError("no unified metrics generated yet")
	}
	return f.snapshots[len(f.snapshots)-1], nil
}

type fakeIntegrationStore struct {
	items   map[string]*models.Integration
	fetched []string
}

func (f *fakeIntegrationStore) Create(ctx context.Context, uid string, in *models.Integration) error {
	if f.items == nil {
		f.items = map[string]*models.Integration{}
	}
	f.items[in.IntegrationID] = in
	return nil
}

func (f *fakeIntegrationStore) Get(ctx context.Context, uid, integrationID string) (*models.Integration, error) {
	in, ok := f.items[integrationID]
	if !ok || in.UID != uid {
		return nil, errs.NewNotFoundError("integration not found")
	}
	return in, nil
}

func (f *fakeIntegrationStore) List(ctx context.Context, uid string) ([]*models.Integration, error) {
	var out []*models.Integration
	for _, in := range f.items {
		out = append(out, in)
	}
	return out, nil
}

func (f *fakeIntegrationStore) UpdateStatus(ctx context.Context, uid, integrationID string, st models.IntegrationStatus) error {
	f.items[integrationID].Status = st
	return nil
}

func (f *fakeIntegrationStore) MarkFetched(ctx context.Context, uid, integrationID string, at time.Time) error {
	f.fetched = append(f.fetched, integrationID)
	f.items[integrationID].LastFetchedAt = &at
	return nil
}

func (f *fakeIntegrationStore) Delete(ctx context.Context, uid, integrationID string) error {
	delete(f.items, integrationID)
	return nil
}

// fakeCipher prefixes instead of encrypting.
type fakeCipher struct{}

func (fakeCipher) KmsEncrypt(ctx context.Context, plaintext string) (string, error) {
	return "sealed:" + plaintext, nil
}

func (fakeCipher) KmsDecrypt(ctx context.Context, ciphertext string) (string, error) {
	return strings.TrimPrefix(ciphertext, "sealed:"), nil
}

type fakeProvider struct {
	result dto.ProviderFetchResult
	err    error
	last   dto.ProviderFetchRequest
}

func (f *fakeProvider) Fetch(ctx context.Context, req dto.ProviderFetchRequest) (dto.ProviderFetchResult, error) {
	f.last = req
	return f.result, f.err
}

type fakeAnalyzer struct {
	table *dataset.Table
	opts  dto.AnalysisOptions
	err   error
}

func (f *fakeAnalyzer) AnalyzeTable(ctx context.Context, uid string, table *dataset.Table, opts dto.AnalysisOptions) (*models.Analysis, error) {
	f.table = table
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &models.Analysis{AnalysisID: "analysis-1", UID: uid, Summary: "done", RowCount: len(table.Rows)}, nil
}

type fakeJobStore struct {
	mu         sync.Mutex
	jobs       map[string]*models.ScheduledJob
	due        []*models.ScheduledJob
	leaseErr   error
	leased     []string
	leases     map[string]time.Time
	released   []string
	completed  map[string][2]time.Time
	executions map[string]*models.JobExecution
	updates    chan *models.JobExecution
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		jobs:       map[string]*models.ScheduledJob{},
		leases:     map[string]time.Time{},
		completed:  map[string][2]time.Time{},
		executions: map[string]*models.JobExecution{},
		updates:    make(chan *models.JobExecution, 16),
	}
}

func (f *fakeJobStore) Create(ctx context.Context, job *models.ScheduledJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = job
	return nil
}

func (f *fakeJobStore) Get(ctx context.Context, uid, jobID string) (*models.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok || job.UID != uid {
		return nil, errs.NewNotFoundError("scheduled job not found")
	}
	return job, nil
}

func (f *fakeJobStore) List(ctx context.Context, uid string) ([]*models.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ScheduledJob
	for _, j := range f.jobs {
		if j.UID == uid {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJobStore) Update(ctx context.Context, job *models.ScheduledJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.JobID] = job
	return nil
}

func (f *fakeJobStore) Delete(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, jobID)
	return nil
}

func (f *fakeJobStore) ListExecutions(ctx context.Context, jobID string, limit int) ([]*models.JobExecution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.JobExecution
	for _, e := range f.executions {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeJobStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.ScheduledJob, error) {
	return f.due, nil
}

func (f *fakeJobStore) AcquireLease(ctx context.Context, jobID, owner string, now time.Time, ttl time.Duration) (*models.ScheduledJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leaseErr != nil {
		return nil, f.leaseErr
	}
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, errs.NewNotFoundError("scheduled job not found")
	}
	if until, held := f.leases[jobID]; held && until.After(now) {
		return nil, errs.NewAlreadyExistsError("scheduled job is already running")
	}
	f.leases[jobID] = now.Add(ttl)
	f.leased = append(f.leased, jobID)
	return job, nil
}

func (f *fakeJobStore) Complete(ctx context.Context, jobID string, lastRun, nextRun time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[jobID] = [2]time.Time{lastRun, nextRun}
	delete(f.leases, jobID)
	return nil
}

func (f *fakeJobStore) ReleaseLease(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, jobID)
	delete(f.leases, jobID)
	return nil
}

func (f *fakeJobStore) CreateExecution(ctx context.Context, exec *models.JobExecution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *exec
	f.executions[exec.ExecutionID] = &cp
	return nil
}

func (f *fakeJobStore) UpdateExecution(ctx context.Context, exec *models.JobExecution) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	cp := *exec
	f.executions[exec.ExecutionID] = &cp
	f.mu.Unlock()
	select {
	case f.updates <- &cp:
	default:
	}
	return nil
}

type fakeRunner struct {
	analysis *models.Analysis
	err      error
}

func (f *fakeRunner) RunJob(ctx context.Context, job *models.ScheduledJob) (*models.Analysis, error) {
	return f.analysis, f.err
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []dto.ExecutionNotification
}

func (f *fakeNotifier) Notify(ctx context.Context, url string, note dto.ExecutionNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, note)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notes)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
