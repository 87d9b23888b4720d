package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// DefaultBatchSize is the number of documents written per batch
const DefaultBatchSize = 100

// statsConcurrency bounds concurrent engine stat requests
const statsConcurrency = 4

// Ensure indexService implements IndexService
var _ driving.IndexService = (*indexService)(nil)

// IndexServiceConfig holds configuration for the index service
type IndexServiceConfig struct {
	BatchSize int
	Logger    *slog.Logger
}

// indexService implements the IndexService interface
type indexService struct {
	documents driven.DocumentStore
	indexes   driven.SearchIndexStore
	engine    driven.SearchIndexEngine
	batchSize int
	logger    *slog.Logger
}

// NewIndexService creates a new IndexService
func NewIndexService(
	documents driven.DocumentStore,
	indexes driven.SearchIndexStore,
	engine driven.SearchIndexEngine,
	cfg IndexServiceConfig,
) driving.IndexService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &indexService{
		documents: documents,
		indexes:   indexes,
		engine:    engine,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
	}
}

// Run dispatches to the run matching the job type
func (s *indexService) Run(ctx context.Context, jobType domain.JobType, progress domain.ProgressFunc) (*domain.IndexRunResult, error) {
	switch jobType {
	case domain.JobTypeFull:
		return s.FullIndex(ctx, progress)
	case domain.JobTypeIncremental:
		return s.IncrementalIndex(ctx, progress)
	default:
		return nil, domain.NewValidationError("type", fmt.Sprintf("unknown job type %q", jobType))
	}
}

// FullIndex reprojects every document last updated before the run started.
// Documents edited during the run keep their pending status for the next incremental run.
func (s *indexService) FullIndex(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexRunResult, error) {
	runStart := time.Now().UTC()

	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	filter := driven.DocumentFilter{UpdatedTo: &runStart}
	result, err := s.run(ctx, filter, progress)
	if err != nil {
		return result, err
	}

	pending := domain.DocumentStatusPending
	indexed := domain.DocumentStatusIndexed
	now := time.Now().UTC()
	n, err := s.documents.UpdateMany(ctx, driven.DocumentFilter{
		Statuses:  []domain.DocumentStatus{pending},
		UpdatedTo: &runStart,
	}, driven.DocumentPatch{Status: &indexed, LastIndexed: &now})
	if err != nil {
		return result, fmt.Errorf("finalize full index: %w", err)
	}
	if n > 0 {
		s.logger.Info("full index finalized pending documents", "count", n)
	}
	return result, nil
}

// IncrementalIndex reprojects pending and failed documents only
func (s *indexService) IncrementalIndex(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexRunResult, error) {
	runStart := time.Now().UTC()
	filter := driven.DocumentFilter{
		Statuses:  []domain.DocumentStatus{domain.DocumentStatusPending, domain.DocumentStatusFailed},
		UpdatedTo: &runStart,
	}
	return s.run(ctx, filter, progress)
}

// run walks the filtered document set oldest-first in keyset batches.
// The context is checked before every batch; cancellation stops the walk
// with the context error.
func (s *indexService) run(ctx context.Context, filter driven.DocumentFilter, progress domain.ProgressFunc) (*domain.IndexRunResult, error) {
	total, err := s.documents.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	result := &domain.IndexRunResult{Total: total}
	if total == 0 {
		if progress != nil {
			progress(0, 0, domain.ComputeProgress(0, 0))
		}
		return result, nil
	}

	touched := make(map[string]bool)
	defer func() {
		s.touchIndexes(result, touched)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := s.documents.Find(ctx, filter, driven.Page{Limit: s.batchSize}, driven.OrderUpdatedAsc)
		if err != nil {
			return result, fmt.Errorf("load batch %d: %w", result.Batches+1, err)
		}
		if len(batch) == 0 {
			break
		}

		names, err := s.processBatch(ctx, batch)
		for _, name := range names {
			touched[name] = true
		}
		if err != nil {
			var partial *domain.PartialIndexError
			if !errors.As(err, &partial) || partial.Total() {
				return result, fmt.Errorf("batch %d: %w", result.Batches+1, err)
			}
			for name, ierr := range partial.Failed {
				result.Warnings = append(result.Warnings, fmt.Sprintf("batch %d: %s: %v", result.Batches+1, name, ierr))
			}
		}

		result.Batches++
		result.Processed += len(batch)
		if progress != nil {
			progress(result.Processed, total, domain.ComputeProgress(result.Processed, total))
		}

		if len(batch) < s.batchSize {
			break
		}
		filter.After = driven.CursorOf(batch[len(batch)-1])
	}
	return result, nil
}

func (s *indexService) touchIndexes(result *domain.IndexRunResult, touched map[string]bool) {
	if len(touched) == 0 {
		return
	}
	for name := range touched {
		result.Touched = append(result.Touched, name)
	}
	// The run context may already be cancelled; stamping is bookkeeping.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.indexes.TouchLastIndexed(ctx, result.Touched, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to stamp index last_indexed", "error", err)
	}
}

// ProcessBatch writes one batch to every enabled index and reconciles document status
func (s *indexService) ProcessBatch(ctx context.Context, docs []*domain.Document) error {
	_, err := s.processBatch(ctx, docs)
	return err
}

// processBatch returns the names of the indexes that accepted the batch.
// Documents are marked indexed when at least one index accepted the batch
// and failed when every index rejected it.
func (s *indexService) processBatch(ctx context.Context, docs []*domain.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	indexes, err := s.indexes.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled indexes: %w", err)
	}

	projections := make([]*domain.Projection, len(docs))
	for i, doc := range docs {
		projections[i] = doc.Project()
	}

	var accepted []string
	failed := make(map[string]error)
	for _, idx := range indexes {
		records := indexForDocuments(projections, idx)
		if len(records) == 0 {
			continue
		}
		if err := s.engine.AddDocuments(ctx, idx.Name, records); err != nil {
			s.logger.Warn("index rejected batch",
				"index", idx.Name,
				"documents", len(records),
				"error", err)
			failed[idx.Name] = err
			continue
		}
		accepted = append(accepted, idx.Name)
	}

	var batchErr error
	status := domain.DocumentStatusIndexed
	if len(failed) > 0 {
		partial := &domain.PartialIndexError{Failed: failed, Attempted: len(failed) + len(accepted)}
		if partial.Total() {
			status = domain.DocumentStatusFailed
		}
		batchErr = partial
	}

	if err := s.markBatch(ctx, docs, status); err != nil {
		return accepted, err
	}
	return accepted, batchErr
}

// markBatch sets the status of the batch documents. Documents edited after the
// batch was read carry a newer updatedAt and keep their pending status.
func (s *indexService) markBatch(ctx context.Context, docs []*domain.Document, status domain.DocumentStatus) error {
	ids := make([]string, len(docs))
	latest := docs[0].UpdatedAt
	for i, doc := range docs {
		ids[i] = doc.ID
		if doc.UpdatedAt.After(latest) {
			latest = doc.UpdatedAt
		}
	}

	patch := driven.DocumentPatch{Status: &status}
	if status == domain.DocumentStatusIndexed {
		now := time.Now().UTC()
		patch.LastIndexed = &now
	}
	if _, err := s.documents.UpdateMany(ctx, driven.DocumentFilter{IDs: ids, UpdatedTo: &latest}, patch); err != nil {
		return fmt.Errorf("mark batch %s: %w", status, err)
	}
	return nil
}

// indexForDocuments builds the records admitted by one index definition
func indexForDocuments(projections []*domain.Projection, idx *domain.SearchIndex) []domain.IndexRecord {
	records := make([]domain.IndexRecord, 0, len(projections))
	for _, p := range projections {
		if idx.Accepts(p) {
			records = append(records, p.Record())
		}
	}
	return records
}

// EnsureIndexes creates every enabled index and applies its settings
func (s *indexService) EnsureIndexes(ctx context.Context) error {
	indexes, err := s.indexes.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled indexes: %w", err)
	}
	for _, idx := range indexes {
		if err := s.provision(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (s *indexService) provision(ctx context.Context, idx *domain.SearchIndex) error {
	if err := s.engine.CreateIndex(ctx, idx.Name, domain.FieldID); err != nil {
		return fmt.Errorf("create index %s: %w", idx.Name, err)
	}
	if err := s.engine.UpdateSettings(ctx, idx.Name, idx.Settings()); err != nil {
		return fmt.Errorf("update settings of %s: %w", idx.Name, err)
	}
	return nil
}

// DeleteDocument retracts a document from every enabled index before deleting
// it from the store. The store record is kept when any retraction fails.
func (s *indexService) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.documents.Get(ctx, id); err != nil {
		return err
	}

	indexes, err := s.indexes.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled indexes: %w", err)
	}

	var errs []error
	for _, idx := range indexes {
		if err := s.engine.DeleteDocument(ctx, idx.Name, id); err != nil {
			s.logger.Warn("failed to retract document", "index", idx.Name, "document_id", id, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", idx.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrIndexRetraction, errors.Join(errs...))
	}

	if err := s.documents.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// GetIndexStats queries the engine for every enabled index. A failing index is
// reported with its error instead of failing the whole read.
func (s *indexService) GetIndexStats(ctx context.Context) ([]*domain.IndexStatus, error) {
	indexes, err := s.indexes.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled indexes: %w", err)
	}

	out := make([]*domain.IndexStatus, len(indexes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsConcurrency)
	for i, idx := range indexes {
		g.Go(func() error {
			status := &domain.IndexStatus{Name: idx.Name, LastUpdate: idx.LastIndexed}
			stats, err := s.engine.GetStats(gctx, idx.Name)
			if err != nil {
				status.Error = err.Error()
			} else {
				status.NumberOfDocuments = stats.NumberOfDocuments
				status.IsIndexing = stats.IsIndexing
				if stats.LastUpdate != nil {
					status.LastUpdate = stats.LastUpdate
				}
			}
			out[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListIndexes returns all index definitions
func (s *indexService) ListIndexes(ctx context.Context) ([]*domain.SearchIndex, error) {
	return s.indexes.List(ctx)
}

// SaveIndex creates or updates an index definition by name
func (s *indexService) SaveIndex(ctx context.Context, req driving.SaveIndexRequest) (*domain.SearchIndex, error) {
	idx, err := s.indexes.GetByName(ctx, req.Name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		idx = domain.NewSearchIndex(req.Name)
	case err != nil:
		return nil, err
	}

	idx.Weight = req.Weight
	if idx.Weight == 0 {
		idx.Weight = 1
	}
	idx.Filters = req.Filters
	if req.Enabled != nil {
		idx.Enabled = *req.Enabled
	}
	idx.UpdatedAt = time.Now().UTC()

	if err := idx.Validate(); err != nil {
		return nil, err
	}
	if err := s.indexes.Save(ctx, idx); err != nil {
		return nil, err
	}
	if idx.Enabled {
		if err := s.provision(ctx, idx); err != nil {
			return nil, err
		}
	}
	s.logger.Info("search index saved", "index", idx.Name, "enabled", idx.Enabled, "filters", len(idx.Filters))
	return idx, nil
}

// DeleteIndex removes the engine index before the definition
func (s *indexService) DeleteIndex(ctx context.Context, name string) error {
	idx, err := s.indexes.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.engine.DeleteIndex(ctx, idx.Name); err != nil {
		return fmt.Errorf("delete engine index %s: %w", idx.Name, err)
	}
	return s.indexes.Delete(ctx, idx.ID)
}
