package driven

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// SortOrder selects the updatedAt ordering of a document query
type SortOrder int

const (
	// OrderUpdatedAsc walks documents oldest-first; used by index runs
	OrderUpdatedAsc SortOrder = iota
	// OrderUpdatedDesc lists newest documents first; used by the document surface
	OrderUpdatedDesc
)

// Cursor is a keyset position over (updated_at, id)
type Cursor struct {
	UpdatedAt time.Time
	ID        string
}

// CursorOf returns the keyset position of a document.
func CursorOf(doc *domain.Document) *Cursor {
	return &Cursor{UpdatedAt: doc.UpdatedAt, ID: doc.ID}
}

// DocumentFilter selects documents. Zero-valued fields do not constrain the query.
type DocumentFilter struct {
	// Statuses matches any of the given statuses
	Statuses []domain.DocumentStatus
	// IDs restricts the query to the given identifiers
	IDs []string
	// Search is a case-insensitive substring match on title or content
	Search string
	// UpdatedFrom and UpdatedTo bound updatedAt, both inclusive
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	// After continues a keyset walk strictly after the cursor in the query order
	After *Cursor
}

// Matches evaluates the filter in memory, with the same semantics the
// PostgreSQL store applies in SQL. The cursor is evaluated for ascending order.
func (f DocumentFilter) Matches(doc *domain.Document) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, doc.Status) {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, doc.ID) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(doc.Title), needle) &&
			!strings.Contains(strings.ToLower(doc.Content), needle) {
			return false
		}
	}
	if f.UpdatedFrom != nil && doc.UpdatedAt.Before(*f.UpdatedFrom) {
		return false
	}
	if f.UpdatedTo != nil && doc.UpdatedAt.After(*f.UpdatedTo) {
		return false
	}
	if f.After != nil && !f.After.Before(doc) {
		return false
	}
	return true
}

// Before reports whether the cursor sorts strictly before doc in ascending order.
func (c *Cursor) Before(doc *domain.Document) bool {
	if c.UpdatedAt.Equal(doc.UpdatedAt) {
		return c.ID < doc.ID
	}
	return c.UpdatedAt.Before(doc.UpdatedAt)
}

// Page limits a document query
type Page struct {
	Limit  int
	Offset int
}

// DocumentPatch lists the fields UpdateMany changes. Nil fields are left untouched.
type DocumentPatch struct {
	Status      *domain.DocumentStatus
	LastIndexed *time.Time
	// ClearLastIndexed sets lastIndexed to NULL; it wins over LastIndexed
	ClearLastIndexed bool
}

// DocumentStore is the system of record for documents (PostgreSQL)
type DocumentStore interface {
	// Find returns documents matching the filter in the requested order
	Find(ctx context.Context, filter DocumentFilter, page Page, order SortOrder) ([]*domain.Document, error)

	// Count returns the number of documents matching the filter; After is ignored
	Count(ctx context.Context, filter DocumentFilter) (int, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByIDs fetches the given documents in one round trip, in store order.
	// Unknown IDs are omitted from the result.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Document, error)

	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// SaveBatch saves multiple documents in a transaction
	SaveBatch(ctx context.Context, docs []*domain.Document) error

	// UpdateMany applies a patch to every matching document and returns the affected count
	UpdateMany(ctx context.Context, filter DocumentFilter, patch DocumentPatch) (int, error)

	// Delete deletes a document
	Delete(ctx context.Context, id string) error
}

// SearchIndexStore persists search index definitions
type SearchIndexStore interface {
	// List returns every index definition ordered by name
	List(ctx context.Context) ([]*domain.SearchIndex, error)

	// ListEnabled returns the enabled index definitions ordered by name
	ListEnabled(ctx context.Context) ([]*domain.SearchIndex, error)

	// Get retrieves an index definition by ID
	Get(ctx context.Context, id string) (*domain.SearchIndex, error)

	// GetByName retrieves an index definition by its unique name
	GetByName(ctx context.Context, name string) (*domain.SearchIndex, error)

	// Save creates or updates an index definition
	Save(ctx context.Context, idx *domain.SearchIndex) error

	// Delete deletes an index definition
	Delete(ctx context.Context, id string) error

	// TouchLastIndexed stamps lastIndexed on the named indexes
	TouchLastIndexed(ctx context.Context, names []string, at time.Time) error
}
