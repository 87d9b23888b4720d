package driving

import (
	"context"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// DefaultDocumentPageSize is the page size of document listings
const DefaultDocumentPageSize = 20

// CreateDocumentRequest represents a request to add a document
type CreateDocumentRequest struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UpdateDocumentRequest represents a request to edit a document
type UpdateDocumentRequest struct {
	Title    *string        `json:"title,omitempty"`
	Content  *string        `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ListDocumentsRequest filters a document listing
type ListDocumentsRequest struct {
	Status      domain.DocumentStatus `json:"status,omitempty"`
	Search      string                `json:"search,omitempty"`
	UpdatedFrom *time.Time            `json:"updated_from,omitempty"`
	UpdatedTo   *time.Time            `json:"updated_to,omitempty"`
	Page        int                   `json:"page"`
}

// DocumentPage is one page of a document listing
type DocumentPage struct {
	Documents  []*domain.Document `json:"documents"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// DocumentService manages the document lifecycle outside index runs
type DocumentService interface {
	// Create stores a new pending document
	Create(ctx context.Context, req CreateDocumentRequest) (*domain.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns a page of documents, newest first
	List(ctx context.Context, req ListDocumentsRequest) (*DocumentPage, error)

	// Update edits a document and resets it to pending
	Update(ctx context.Context, id string, req UpdateDocumentRequest) (*domain.Document, error)

	// Delete retracts a document from every index and deletes it
	Delete(ctx context.Context, id string) error

	// Reindex resets a document to pending and starts a manual incremental job.
	// The returned job is nil when another job already holds the execution slot.
	Reindex(ctx context.Context, id string) (*domain.IndexJob, error)
}
