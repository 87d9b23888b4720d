package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	indexService  driving.IndexService
	trigger       driving.IndexTrigger
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService.
// trigger may be nil, in which case Reindex only resets the document.
func NewDocumentService(
	documentStore driven.DocumentStore,
	indexService driving.IndexService,
	trigger driving.IndexTrigger,
	logger *slog.Logger,
) driving.DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: documentStore,
		indexService:  indexService,
		trigger:       trigger,
		logger:        logger,
	}
}

// Create stores a new pending document
func (s *documentService) Create(ctx context.Context, req driving.CreateDocumentRequest) (*domain.Document, error) {
	doc := domain.NewDocument(req.Title, req.Content, req.Metadata)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := s.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// List returns a page of documents, newest first
func (s *documentService) List(ctx context.Context, req driving.ListDocumentsRequest) (*driving.DocumentPage, error) {
	filter := driven.DocumentFilter{
		Search:      req.Search,
		UpdatedFrom: req.UpdatedFrom,
		UpdatedTo:   req.UpdatedTo,
	}
	if req.Status != "" {
		if !req.Status.IsValid() {
			return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", req.Status))
		}
		filter.Statuses = []domain.DocumentStatus{req.Status}
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	total, err := s.documentStore.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	docs, err := s.documentStore.Find(ctx, filter, driven.Page{
		Limit:  driving.DefaultDocumentPageSize,
		Offset: (page - 1) * driving.DefaultDocumentPageSize,
	}, driven.OrderUpdatedDesc)
	if err != nil {
		return nil, err
	}

	return &driving.DocumentPage{
		Documents:  docs,
		Total:      total,
		Page:       page,
		PageSize:   driving.DefaultDocumentPageSize,
		TotalPages: (total + driving.DefaultDocumentPageSize - 1) / driving.DefaultDocumentPageSize,
	}, nil
}

// Update edits a document and resets it to pending
func (s *documentService) Update(ctx context.Context, id string, req driving.UpdateDocumentRequest) (*domain.Document, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title, content := doc.Title, doc.Content
	if req.Title != nil {
		title = *req.Title
	}
	if req.Content != nil {
		content = *req.Content
	}
	doc.Edit(title, content, req.Metadata)
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := s.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// Delete retracts a document from every index and deletes it
func (s *documentService) Delete(ctx context.Context, id string) error {
	return s.indexService.DeleteDocument(ctx, id)
}

// Reindex resets a document to pending and asks the worker for an incremental run.
// A busy worker is not an error: the document is picked up by the next run.
func (s *documentService) Reindex(ctx context.Context, id string) (*domain.IndexJob, error) {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return nil, err
	}

	pending := domain.DocumentStatusPending
	if _, err := s.documentStore.UpdateMany(ctx,
		driven.DocumentFilter{IDs: []string{id}},
		driven.DocumentPatch{Status: &pending, ClearLastIndexed: true},
	); err != nil {
		return nil, fmt.Errorf("reset document: %w", err)
	}

	if s.trigger == nil {
		return nil, nil
	}
	job, err := s.trigger.Trigger(ctx, domain.JobTypeIncremental)
	if errors.Is(err, domain.ErrJobRunning) {
		s.logger.Info("reindex deferred, worker busy", "document_id", id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}
