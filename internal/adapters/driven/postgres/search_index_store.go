package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchIndexStore = (*SearchIndexStore)(nil)

const searchIndexColumns = `id, name, enabled, weight, filters, last_indexed, created_at, updated_at`

// SearchIndexStore implements driven.SearchIndexStore using PostgreSQL
type SearchIndexStore struct {
	db *DB
}

// NewSearchIndexStore creates a new SearchIndexStore
func NewSearchIndexStore(db *DB) *SearchIndexStore {
	return &SearchIndexStore{db: db}
}

// List returns every index definition ordered by name
func (s *SearchIndexStore) List(ctx context.Context) ([]*domain.SearchIndex, error) {
	return s.query(ctx, `SELECT `+searchIndexColumns+` FROM search_indexes ORDER BY name`)
}

// ListEnabled returns the enabled index definitions ordered by name
func (s *SearchIndexStore) ListEnabled(ctx context.Context) ([]*domain.SearchIndex, error) {
	return s.query(ctx, `SELECT `+searchIndexColumns+` FROM search_indexes WHERE enabled ORDER BY name`)
}

// Get retrieves an index definition by ID
func (s *SearchIndexStore) Get(ctx context.Context, id string) (*domain.SearchIndex, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+searchIndexColumns+` FROM search_indexes WHERE id = $1`, id)
	return scanSearchIndex(row)
}

// GetByName retrieves an index definition by name
func (s *SearchIndexStore) GetByName(ctx context.Context, name string) (*domain.SearchIndex, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+searchIndexColumns+` FROM search_indexes WHERE name = $1`, name)
	return scanSearchIndex(row)
}

// Save creates or updates an index definition
func (s *SearchIndexStore) Save(ctx context.Context, idx *domain.SearchIndex) error {
	filters := idx.Filters
	if filters == nil {
		filters = []domain.FilterRule{}
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("encode filters of %s: %w", idx.Name, err)
	}

	query := `
		INSERT INTO search_indexes (id, name, enabled, weight, filters, last_indexed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			weight = EXCLUDED.weight,
			filters = EXCLUDED.filters,
			last_indexed = EXCLUDED.last_indexed,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		idx.ID,
		idx.Name,
		idx.Enabled,
		idx.Weight,
		filtersJSON,
		NullTime(idx.LastIndexed),
		idx.CreatedAt,
		idx.UpdatedAt,
	)
	return mapError(err)
}

// Delete deletes an index definition
func (s *SearchIndexStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM search_indexes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// TouchLastIndexed stamps lastIndexed on the named indexes
func (s *SearchIndexStore) TouchLastIndexed(ctx context.Context, names []string, at time.Time) error {
	if len(names) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE search_indexes SET last_indexed = $1 WHERE name = ANY($2)`,
		at, pq.Array(names),
	)
	return err
}

func (s *SearchIndexStore) query(ctx context.Context, query string, args ...any) ([]*domain.SearchIndex, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := []*domain.SearchIndex{}
	for rows.Next() {
		idx, err := scanSearchIndex(rows)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func scanSearchIndex(row rowScanner) (*domain.SearchIndex, error) {
	var idx domain.SearchIndex
	var filtersJSON []byte
	var lastIndexed sql.NullTime

	err := row.Scan(
		&idx.ID,
		&idx.Name,
		&idx.Enabled,
		&idx.Weight,
		&filtersJSON,
		&lastIndexed,
		&idx.CreatedAt,
		&idx.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	idx.LastIndexed = TimePtr(lastIndexed)
	if len(filtersJSON) > 0 {
		if err := json.Unmarshal(filtersJSON, &idx.Filters); err != nil {
			return nil, fmt.Errorf("decode filters of %s: %w", idx.Name, err)
		}
	}
	return &idx, nil
}
