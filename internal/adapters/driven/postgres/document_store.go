package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

const documentColumns = `id, title, content, metadata, status, created_at, updated_at, last_indexed`

const upsertDocument = `
	INSERT INTO documents (id, title, content, metadata, status, created_at, updated_at, last_indexed)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		content = EXCLUDED.content,
		metadata = EXCLUDED.metadata,
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at,
		last_indexed = EXCLUDED.last_indexed
`

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	args, err := documentArgs(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, upsertDocument, args...)
	return mapError(err)
}

// SaveBatch saves multiple documents in a transaction
func (s *DocumentStore) SaveBatch(ctx context.Context, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertDocument)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, doc := range docs {
			args, err := documentArgs(doc)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("save document %s: %w", doc.ID, mapError(err))
			}
		}
		return nil
	})
}

func documentArgs(doc *domain.Document) ([]any, error) {
	metadata := doc.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata of %s: %w", doc.ID, err)
	}
	status := doc.Status
	if status == "" {
		status = domain.DocumentStatusPending
	}
	return []any{
		doc.ID,
		doc.Title,
		doc.Content,
		metadataJSON,
		string(status),
		doc.CreatedAt,
		doc.UpdatedAt,
		NullTime(doc.LastIndexed),
	}, nil
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetByIDs fetches the given documents in one query
func (s *DocumentStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Document, error) {
	if len(ids) == 0 {
		return []*domain.Document{}, nil
	}
	return s.Find(ctx, driven.DocumentFilter{IDs: ids}, driven.Page{}, driven.OrderUpdatedAsc)
}

// Find returns documents matching the filter in the requested order
func (s *DocumentStore) Find(ctx context.Context, filter driven.DocumentFilter, page driven.Page, order driven.SortOrder) ([]*domain.Document, error) {
	w := documentWhere(filter, order)

	var b strings.Builder
	b.WriteString(`SELECT ` + documentColumns + ` FROM documents`)
	b.WriteString(w.sql())
	if order == driven.OrderUpdatedDesc {
		b.WriteString(` ORDER BY updated_at DESC, id DESC`)
	} else {
		b.WriteString(` ORDER BY updated_at ASC, id ASC`)
	}
	if page.Limit > 0 {
		fmt.Fprintf(&b, ` LIMIT %s`, w.arg(page.Limit))
	}
	if page.Offset > 0 {
		fmt.Fprintf(&b, ` OFFSET %s`, w.arg(page.Offset))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of documents matching the filter
func (s *DocumentStore) Count(ctx context.Context, filter driven.DocumentFilter) (int, error) {
	filter.After = nil
	w := documentWhere(filter, driven.OrderUpdatedAsc)

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+w.sql(), w.args...).Scan(&count)
	return count, err
}

// UpdateMany applies a patch to every matching document
func (s *DocumentStore) UpdateMany(ctx context.Context, filter driven.DocumentFilter, patch driven.DocumentPatch) (int, error) {
	w := documentWhere(filter, driven.OrderUpdatedAsc)

	var sets []string
	if patch.Status != nil {
		sets = append(sets, "status = "+w.arg(string(*patch.Status)))
	}
	switch {
	case patch.ClearLastIndexed:
		sets = append(sets, "last_indexed = NULL")
	case patch.LastIndexed != nil:
		sets = append(sets, "last_indexed = "+w.arg(*patch.LastIndexed))
	}
	if len(sets) == 0 {
		return 0, nil
	}

	query := `UPDATE documents SET ` + strings.Join(sets, ", ") + w.sql()
	result, err := s.db.ExecContext(ctx, query, w.args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// Delete deletes a document
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var metadataJSON []byte
	var status string
	var lastIndexed sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&metadataJSON,
		&status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&lastIndexed,
	)
	if err != nil {
		return nil, mapError(err)
	}

	doc.Status = domain.DocumentStatus(status)
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	doc.LastIndexed = TimePtr(lastIndexed)

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", doc.ID, err)
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	return &doc, nil
}

// whereBuilder accumulates predicates and their positional arguments
type whereBuilder struct {
	clauses []string
	args    []any
}

// arg appends a value and returns its placeholder
func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// documentWhere renders a DocumentFilter with the semantics of DocumentFilter.Matches
func documentWhere(filter driven.DocumentFilter, order driven.SortOrder) *whereBuilder {
	w := &whereBuilder{}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		w.add("status = ANY(" + w.arg(pq.Array(statuses)) + ")")
	}
	if len(filter.IDs) > 0 {
		w.add("id = ANY(" + w.arg(pq.Array(filter.IDs)) + ")")
	}
	if filter.Search != "" {
		p := w.arg("%" + escapeLike(filter.Search) + "%")
		w.add("(title ILIKE " + p + " OR content ILIKE " + p + ")")
	}
	if filter.UpdatedFrom != nil {
		w.add("updated_at >= " + w.arg(*filter.UpdatedFrom))
	}
	if filter.UpdatedTo != nil {
		w.add("updated_at <= " + w.arg(*filter.UpdatedTo))
	}
	if filter.After != nil {
		op := ">"
		if order == driven.OrderUpdatedDesc {
			op = "<"
		}
		w.add(fmt.Sprintf("(updated_at, id) %s (%s, %s)", op, w.arg(filter.After.UpdatedAt), w.arg(filter.After.ID)))
	}
	return w
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
