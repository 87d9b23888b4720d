package driving

import (
	"context"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// SaveIndexRequest creates or replaces a search index definition, keyed by name
type SaveIndexRequest struct {
	Name    string              `json:"name" yaml:"name"`
	Enabled *bool               `json:"enabled,omitempty" yaml:"enabled"`
	Weight  float64             `json:"weight" yaml:"weight"`
	Filters []domain.FilterRule `json:"filters" yaml:"filters"`
}

// IndexService synchronizes documents from the store into the search engine
type IndexService interface {
	// FullIndex reprojects every document into every enabled index
	FullIndex(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexRunResult, error)

	// IncrementalIndex reprojects pending and failed documents only
	IncrementalIndex(ctx context.Context, progress domain.ProgressFunc) (*domain.IndexRunResult, error)

	// Run dispatches to FullIndex or IncrementalIndex
	Run(ctx context.Context, jobType domain.JobType, progress domain.ProgressFunc) (*domain.IndexRunResult, error)

	// ProcessBatch writes a batch to every enabled index and reconciles document status.
	// A *domain.PartialIndexError reports indexes that rejected the batch.
	ProcessBatch(ctx context.Context, docs []*domain.Document) error

	// EnsureIndexes creates every enabled index and applies its settings
	EnsureIndexes(ctx context.Context) error

	// DeleteDocument retracts a document from every index, then deletes it from the store
	DeleteDocument(ctx context.Context, id string) error

	// GetIndexStats reports engine stats for every enabled index
	GetIndexStats(ctx context.Context) ([]*domain.IndexStatus, error)

	// ListIndexes returns all index definitions
	ListIndexes(ctx context.Context) ([]*domain.SearchIndex, error)

	// SaveIndex creates or updates an index definition and provisions it in the engine
	SaveIndex(ctx context.Context, req SaveIndexRequest) (*domain.SearchIndex, error)

	// DeleteIndex removes an index definition and its engine index
	DeleteIndex(ctx context.Context, name string) error
}
