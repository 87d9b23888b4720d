package driven

import (
	"context"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// SearchIndexEngine holds named indexes of document projections (bleve, Meilisearch)
type SearchIndexEngine interface {
	// CreateIndex creates a named index; creating an existing index is not an error
	CreateIndex(ctx context.Context, name, primaryKey string) error

	// DeleteIndex removes a named index; deleting a missing index is not an error
	DeleteIndex(ctx context.Context, name string) error

	// UpdateSettings applies searchable, filterable and sortable fields
	UpdateSettings(ctx context.Context, name string, settings domain.IndexSettings) error

	// AddDocuments upserts records keyed by their primary key
	AddDocuments(ctx context.Context, name string, records []domain.IndexRecord) error

	// DeleteDocument removes one record; a missing record is not an error
	DeleteDocument(ctx context.Context, name, id string) error

	// Search runs a query against one index
	Search(ctx context.Context, name, query string, params domain.SearchParams) (*domain.SearchResponse, error)

	// GetStats returns the document count and indexing flag of one index
	GetStats(ctx context.Context, name string) (*domain.IndexStats, error)

	// HealthCheck verifies the search engine is available
	HealthCheck(ctx context.Context) error
}
