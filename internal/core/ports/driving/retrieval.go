package driving

import (
	"context"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// RetrievalService answers relevance queries for the chat and debug surfaces
type RetrievalService interface {
	// Search returns ranked documents reconciled against the store
	Search(ctx context.Context, query string, scopes []string) (*domain.RetrievalResult, error)

	// Debug runs Search and reports timings and the rendered scope filter
	Debug(ctx context.Context, query string, scopes []string) (*domain.RetrievalDebug, error)

	// Context returns the documents handed to the generation step
	Context(ctx context.Context, query string, scopes []string) ([]domain.ContextDocument, error)
}
