package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchIndexEngine = (*Engine)(nil)

const (
	// IndexSuffix is appended to index names to form their directory
	IndexSuffix = ".bleve"

	internalSettings   = "lexsearch:settings"
	internalLastUpdate = "lexsearch:last_update"

	fragmentSeparator = " … "
)

// Config holds configuration for the bleve engine
type Config struct {
	// Dir holds one directory per index. Empty keeps every index in memory.
	Dir    string
	Logger *slog.Logger
}

// Engine is an embedded SearchIndexEngine holding one bleve index per name.
type Engine struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	indexes map[string]*namedIndex
	closed  bool
}

type namedIndex struct {
	index bleve.Index

	mu         sync.RWMutex
	settings   domain.IndexSettings
	lastUpdate *time.Time
}

// NewEngine creates an engine. On-disk indexes are opened lazily.
func NewEngine(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory %s: %w", cfg.Dir, err)
		}
	}
	return &Engine{
		dir:     cfg.Dir,
		logger:  logger.With("component", "bleve"),
		indexes: make(map[string]*namedIndex),
	}, nil
}

// NewMemEngine creates an engine whose indexes live in memory only.
func NewMemEngine() *Engine {
	e, _ := NewEngine(Config{})
	return e
}

// CreateIndexMapping maps title and content as analyzed full text and every
// other field as a single keyword term, so prefix and equality filters work
// on metadata values such as path and language.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	for _, name := range []string{domain.FieldTitle, domain.FieldContent} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = standard.Name
		field.Store = true
		field.IncludeTermVectors = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = keyword.Name
	return indexMapping
}

// CreateIndex creates a named index; creating an existing index is not an error.
// Records are always keyed by their id field, so primaryKey is informational.
func (e *Engine) CreateIndex(ctx context.Context, name, primaryKey string) error {
	_, err := e.open(name, true)
	return err
}

// DeleteIndex closes and removes a named index.
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if idx, ok := e.indexes[name]; ok {
		delete(e.indexes, name)
		if err := idx.index.Close(); err != nil {
			e.logger.Warn("close index", "index", name, "error", err)
		}
	}
	if e.dir == "" {
		return nil
	}
	if err := os.RemoveAll(e.path(name)); err != nil {
		return fmt.Errorf("remove index %s: %w", name, err)
	}
	return nil
}

// UpdateSettings records searchable, filterable and sortable fields.
func (e *Engine) UpdateSettings(ctx context.Context, name string, settings domain.IndexSettings) error {
	idx, err := e.open(name, true)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	if err := idx.index.SetInternal([]byte(internalSettings), raw); err != nil {
		return fmt.Errorf("store settings of %s: %w", name, err)
	}
	idx.mu.Lock()
	idx.settings = settings
	idx.mu.Unlock()
	return nil
}

// AddDocuments upserts records in one batch, creating the index if needed.
func (e *Engine) AddDocuments(ctx context.Context, name string, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	idx, err := e.open(name, true)
	if err != nil {
		return err
	}

	batch := idx.index.NewBatch()
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			return fmt.Errorf("record without %s field: %w", domain.FieldID, domain.ErrInvalidInput)
		}
		if err := batch.Index(id, map[string]any(rec)); err != nil {
			return fmt.Errorf("index record %s: %w", id, err)
		}
	}
	if err := idx.index.Batch(batch); err != nil {
		return fmt.Errorf("write batch to %s: %w", name, err)
	}
	e.touch(idx)
	return nil
}

// DeleteDocument removes one record; a missing index or record is not an error.
func (e *Engine) DeleteDocument(ctx context.Context, name, id string) error {
	idx, err := e.open(name, false)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := idx.index.Delete(id); err != nil {
		return fmt.Errorf("delete %s from %s: %w", id, name, err)
	}
	e.touch(idx)
	return nil
}

// Search runs a match query over the searchable fields, optionally scoped
// by prefix filters combined with OR.
func (e *Engine) Search(ctx context.Context, name, q string, params domain.SearchParams) (*domain.SearchResponse, error) {
	idx, err := e.open(name, false)
	if err != nil {
		return nil, err
	}
	idx.mu.RLock()
	settings := idx.settings
	idx.mu.RUnlock()

	searchQuery, err := buildQuery(q, params.Scope, settings)
	if err != nil {
		return nil, err
	}

	size := params.Limit
	if size <= 0 {
		size = domain.DefaultRetrievalLimit
	}
	req := bleve.NewSearchRequestOptions(searchQuery, size, 0, false)
	req.Fields = params.AttributesToRetrieve
	if len(params.AttributesToHighlight) > 0 {
		req.Highlight = bleve.NewHighlight()
		for _, f := range params.AttributesToHighlight {
			req.Highlight.AddField(f)
		}
	}

	result, err := idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}

	cropped := make(map[string]bool, len(params.AttributesToCrop))
	for _, f := range params.AttributesToCrop {
		cropped[f] = true
	}

	resp := &domain.SearchResponse{
		Hits:               make([]domain.SearchHit, 0, len(result.Hits)),
		EstimatedTotalHits: int(result.Total),
		ProcessingTime:     result.Took,
		Query:              q,
	}
	for _, hit := range result.Hits {
		h := domain.SearchHit{ID: hit.ID, Score: hit.Score, Fields: hit.Fields}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				snippet := strings.Join(fragments, fragmentSeparator)
				if cropped[field] && params.CropLength > 0 {
					snippet = cropWords(snippet, params.CropLength)
				}
				h.Highlights[field] = snippet
			}
		}
		resp.Hits = append(resp.Hits, h)
	}
	return resp, nil
}

// GetStats returns the document count of one index.
// bleve applies batches synchronously, so IsIndexing is always false.
func (e *Engine) GetStats(ctx context.Context, name string) (*domain.IndexStats, error) {
	idx, err := e.open(name, false)
	if err != nil {
		return nil, err
	}
	count, err := idx.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents of %s: %w", name, err)
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return &domain.IndexStats{NumberOfDocuments: int(count), LastUpdate: idx.lastUpdate}, nil
}

// HealthCheck verifies the engine is open and its directory is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return fmt.Errorf("bleve engine closed: %w", domain.ErrServiceUnavailable)
	}
	if e.dir != "" {
		if _, err := os.Stat(e.dir); err != nil {
			return fmt.Errorf("index directory: %w", domain.ErrServiceUnavailable)
		}
	}
	return nil
}

// Close closes every open index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	var errs []error
	for name, idx := range e.indexes {
		if err := idx.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	e.indexes = make(map[string]*namedIndex)
	return errors.Join(errs...)
}

// open returns a cached index, opening it from disk or creating it when create is set.
func (e *Engine) open(name string, create bool) (*namedIndex, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	e.mu.RLock()
	idx, ok := e.indexes[name]
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("bleve engine closed: %w", domain.ErrServiceUnavailable)
	}
	if ok {
		return idx, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if idx, ok := e.indexes[name]; ok {
		return idx, nil
	}

	var (
		index bleve.Index
		err   error
	)
	switch {
	case e.dir == "" && create:
		index, err = bleve.NewMemOnly(CreateIndexMapping())
	case e.dir == "":
		return nil, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
	default:
		index, err = bleve.Open(e.path(name))
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			if !create {
				return nil, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
			}
			index, err = bleve.New(e.path(name), CreateIndexMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}

	idx = &namedIndex{index: index, settings: defaultSettings()}
	idx.restore(e.logger.With("index", name))
	e.indexes[name] = idx
	return idx, nil
}

func (e *Engine) touch(idx *namedIndex) {
	now := time.Now().UTC()
	idx.mu.Lock()
	idx.lastUpdate = &now
	idx.mu.Unlock()
	if err := idx.index.SetInternal([]byte(internalLastUpdate), []byte(now.Format(time.RFC3339Nano))); err != nil {
		e.logger.Warn("store last update", "error", err)
	}
}

func (e *Engine) path(name string) string {
	return filepath.Join(e.dir, name+IndexSuffix)
}

// restore loads settings and the last update time persisted with the index
func (n *namedIndex) restore(logger *slog.Logger) {
	if raw, err := n.index.GetInternal([]byte(internalSettings)); err == nil && len(raw) > 0 {
		var s domain.IndexSettings
		if err := json.Unmarshal(raw, &s); err != nil {
			logger.Warn("ignoring unreadable index settings", "error", err)
		} else {
			n.settings = s
		}
	}
	if raw, err := n.index.GetInternal([]byte(internalLastUpdate)); err == nil && len(raw) > 0 {
		if t, err := time.Parse(time.RFC3339Nano, string(raw)); err == nil {
			n.lastUpdate = &t
		}
	}
}

func defaultSettings() domain.IndexSettings {
	return domain.IndexSettings{
		SearchableFields: []string{domain.FieldTitle, domain.FieldContent},
		FilterableFields: []string{domain.FieldPath, domain.FieldLanguage},
		SortableFields:   []string{domain.FieldUpdatedAt},
	}
}

func buildQuery(q string, scope *domain.ScopeFilter, settings domain.IndexSettings) (query.Query, error) {
	var textQuery query.Query
	if strings.TrimSpace(q) == "" {
		textQuery = bleve.NewMatchAllQuery()
	} else {
		fields := make([]query.Query, 0, len(settings.SearchableFields))
		for _, f := range settings.SearchableFields {
			mq := bleve.NewMatchQuery(q)
			mq.SetField(f)
			fields = append(fields, mq)
		}
		textQuery = bleve.NewDisjunctionQuery(fields...)
	}

	if scope.IsEmpty() {
		return textQuery, nil
	}
	if !contains(settings.FilterableFields, scope.Field) {
		return nil, domain.NewValidationError("filter", fmt.Sprintf("attribute %q is not filterable", scope.Field))
	}
	prefixes := make([]query.Query, len(scope.Prefixes))
	for i, p := range scope.Prefixes {
		pq := bleve.NewPrefixQuery(p)
		pq.SetField(scope.Field)
		prefixes[i] = pq
	}
	return bleve.NewConjunctionQuery(textQuery, bleve.NewDisjunctionQuery(prefixes...)), nil
}

// cropWords keeps the first n words of a snippet
func cropWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + fragmentSeparator
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return domain.NewValidationError("name", fmt.Sprintf("invalid index name %q", name))
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
