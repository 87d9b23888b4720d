package http

import (
	"context"
	"errors"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

var errNotImplemented = errors.New("not implemented")

type mockRetrievalService struct {
	searchFn  func(ctx context.Context, query string, scopes []string) (*domain.RetrievalResult, error)
	debugFn   func(ctx context.Context, query string, scopes []string) (*domain.RetrievalDebug, error)
	contextFn func(ctx context.Context, query string, scopes []string) ([]domain.ContextDocument, error)
}

func (m *mockRetrievalService) Search(ctx context.Context, query string, scopes []string) (*domain.RetrievalResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, scopes)
	}
	return nil, errNotImplemented
}

func (m *mockRetrievalService) Debug(ctx context.Context, query string, scopes []string) (*domain.RetrievalDebug, error) {
	if m.debugFn != nil {
		return m.debugFn(ctx, query, scopes)
	}
	return nil, errNotImplemented
}

func (m *mockRetrievalService) Context(ctx context.Context, query string, scopes []string) ([]domain.ContextDocument, error) {
	if m.contextFn != nil {
		return m.contextFn(ctx, query, scopes)
	}
	return nil, errNotImplemented
}

type mockJobController struct {
	triggerFn        func(ctx context.Context, jobType domain.JobType) (*domain.IndexJob, error)
	cancelFn         func(ctx context.Context, jobID string) (bool, error)
	statusFn         func(ctx context.Context) (*domain.WorkerStatus, error)
	scheduleStatusFn func(ctx context.Context, scheduleID string) (*domain.ScheduleStatus, error)
}

func (m *mockJobController) Trigger(ctx context.Context, jobType domain.JobType) (*domain.IndexJob, error) {
	if m.triggerFn != nil {
		return m.triggerFn(ctx, jobType)
	}
	return nil, errNotImplemented
}

func (m *mockJobController) CancelJob(ctx context.Context, jobID string) (bool, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, jobID)
	}
	return false, errNotImplemented
}

func (m *mockJobController) Status(ctx context.Context) (*domain.WorkerStatus, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockJobController) ScheduleStatus(ctx context.Context, scheduleID string) (*domain.ScheduleStatus, error) {
	if m.scheduleStatusFn != nil {
		return m.scheduleStatusFn(ctx, scheduleID)
	}
	return nil, errNotImplemented
}

type mockScheduleService struct {
	createFn   func(ctx context.Context, req driving.CreateScheduleRequest) (*domain.Schedule, error)
	getFn      func(ctx context.Context, id string) (*domain.Schedule, error)
	deleteFn   func(ctx context.Context, id string) error
	previewFn  func(expr string, from time.Time, n int) ([]time.Time, error)
	describeFn func(expr string) (string, error)
}

func (m *mockScheduleService) Create(ctx context.Context, req driving.CreateScheduleRequest) (*domain.Schedule, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockScheduleService) Update(ctx context.Context, id string, req driving.UpdateScheduleRequest) (*domain.Schedule, error) {
	return nil, errNotImplemented
}

func (m *mockScheduleService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errNotImplemented
}

func (m *mockScheduleService) Get(ctx context.Context, id string) (*domain.Schedule, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockScheduleService) List(ctx context.Context) ([]*domain.Schedule, error) {
	return []*domain.Schedule{}, nil
}

func (m *mockScheduleService) Validate(expr string) error {
	return nil
}

func (m *mockScheduleService) NextRun(expr string, from time.Time) (time.Time, error) {
	return time.Time{}, errNotImplemented
}

func (m *mockScheduleService) Preview(expr string, from time.Time, n int) ([]time.Time, error) {
	if m.previewFn != nil {
		return m.previewFn(expr, from, n)
	}
	return nil, errNotImplemented
}

func (m *mockScheduleService) Describe(expr string) (string, error) {
	if m.describeFn != nil {
		return m.describeFn(expr)
	}
	return "", errNotImplemented
}

type mockIndexService struct {
	saveIndexFn   func(ctx context.Context, req driving.SaveIndexRequest) (*domain.SearchIndex, error)
	deleteIndexFn func(ctx context.Context, name string) error
	statsFn       func(ctx context.Context) ([]*domain.IndexStatus, error)
}

func (m *mockIndexService) FullIndex(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexRunResult, error) {
	return nil, errNotImplemented
}

func (m *mockIndexService) IncrementalIndex(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexRunResult, error) {
	return nil, errNotImplemented
}

func (m *mockIndexService) Run(ctx context.Context, jobType domain.JobType, progress domain.ProgressFunc) (*domain.IndexRunResult, error) {
	return nil, errNotImplemented
}

func (m *mockIndexService) ProcessBatch(ctx context.Context, docs []*domain.Document) error {
	return errNotImplemented
}

func (m *mockIndexService) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockIndexService) DeleteDocument(ctx context.Context, id string) error {
	return errNotImplemented
}

func (m *mockIndexService) GetIndexStats(ctx context.Context) ([]*domain.IndexStatus, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockIndexService) ListIndexes(ctx context.Context) ([]*domain.SearchIndex, error) {
	return []*domain.SearchIndex{}, nil
}

func (m *mockIndexService) SaveIndex(ctx context.Context, req driving.SaveIndexRequest) (*domain.SearchIndex, error) {
	if m.saveIndexFn != nil {
		return m.saveIndexFn(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockIndexService) DeleteIndex(ctx context.Context, name string) error {
	if m.deleteIndexFn != nil {
		return m.deleteIndexFn(ctx, name)
	}
	return errNotImplemented
}

type mockDocumentService struct {
	getFn     func(ctx context.Context, id string) (*domain.Document, error)
	listFn    func(ctx context.Context, req driving.ListDocumentsRequest) (*driving.DocumentPage, error)
	deleteFn  func(ctx context.Context, id string) error
	reindexFn func(ctx context.Context, id string) (*domain.IndexJob, error)
}

func (m *mockDocumentService) Create(ctx context.Context, req driving.CreateDocumentRequest) (*domain.Document, error) {
	return domain.NewDocument(req.Title, req.Content, req.Metadata), nil
}

func (m *mockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *mockDocumentService) List(ctx context.Context, req driving.ListDocumentsRequest) (*driving.DocumentPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockDocumentService) Update(ctx context.Context, id string, req driving.UpdateDocumentRequest) (*domain.Document, error) {
	return nil, errNotImplemented
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return errNotImplemented
}

func (m *mockDocumentService) Reindex(ctx context.Context, id string) (*domain.IndexJob, error) {
	if m.reindexFn != nil {
		return m.reindexFn(ctx, id)
	}
	return nil, errNotImplemented
}
