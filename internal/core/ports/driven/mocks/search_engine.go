package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

var _ driven.SearchIndexEngine = (*MockSearchEngine)(nil)

// MockSearchEngine is an in-memory SearchIndexEngine for testing.
// Search scores a record by the number of query terms found in its title and content.
type MockSearchEngine struct {
	mu       sync.RWMutex
	indexes  map[string]map[string]domain.IndexRecord
	settings map[string]domain.IndexSettings

	// FailAdd makes AddDocuments fail for the named indexes
	FailAdd map[string]error
	// FailDelete makes DeleteDocument fail for the named indexes
	FailDelete map[string]error

	// Custom behavior hooks (optional)
	SearchFn   func(name, query string, params domain.SearchParams) (*domain.SearchResponse, error)
	GetStatsFn func(name string) (*domain.IndexStats, error)
	HealthFn   func() error

	// AddCalls counts AddDocuments calls per index
	AddCalls map[string]int
	// LastParams is the most recent SearchParams per index
	LastParams map[string]domain.SearchParams
}

// NewMockSearchEngine creates a new MockSearchEngine
func NewMockSearchEngine() *MockSearchEngine {
	return &MockSearchEngine{
		indexes:    make(map[string]map[string]domain.IndexRecord),
		settings:   make(map[string]domain.IndexSettings),
		FailAdd:    make(map[string]error),
		FailDelete: make(map[string]error),
		AddCalls:   make(map[string]int),
		LastParams: make(map[string]domain.SearchParams),
	}
}

func (m *MockSearchEngine) CreateIndex(ctx context.Context, name, primaryKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[name]; !ok {
		m.indexes[name] = make(map[string]domain.IndexRecord)
	}
	return nil
}

func (m *MockSearchEngine) DeleteIndex(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indexes, name)
	delete(m.settings, name)
	return nil
}

func (m *MockSearchEngine) UpdateSettings(ctx context.Context, name string, settings domain.IndexSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[name] = settings
	return nil
}

func (m *MockSearchEngine) AddDocuments(ctx context.Context, name string, records []domain.IndexRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls[name]++
	if err := m.FailAdd[name]; err != nil {
		return err
	}
	idx, ok := m.indexes[name]
	if !ok {
		idx = make(map[string]domain.IndexRecord)
		m.indexes[name] = idx
	}
	for _, rec := range records {
		idx[rec.ID()] = rec
	}
	return nil
}

func (m *MockSearchEngine) DeleteDocument(ctx context.Context, name, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDelete[name]; err != nil {
		return err
	}
	delete(m.indexes[name], id)
	return nil
}

func (m *MockSearchEngine) Search(ctx context.Context, name, query string, params domain.SearchParams) (*domain.SearchResponse, error) {
	m.mu.Lock()
	m.LastParams[name] = params
	m.mu.Unlock()
	if m.SearchFn != nil {
		return m.SearchFn(name, query, params)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[name]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
	}

	terms := strings.Fields(strings.ToLower(query))
	var hits []domain.SearchHit
	for id, rec := range idx {
		if !inScope(rec, params.Scope) {
			continue
		}
		text := strings.ToLower(fmt.Sprint(rec[domain.FieldTitle], " ", rec[domain.FieldContent]))
		score := 0.0
		for _, term := range terms {
			score += float64(strings.Count(text, term))
		}
		if score == 0 {
			continue
		}
		hits = append(hits, domain.SearchHit{
			ID:         id,
			Score:      score,
			Fields:     map[string]any{domain.FieldTitle: rec[domain.FieldTitle]},
			Highlights: map[string]string{domain.FieldContent: "<em>" + query + "</em>"},
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})
	total := len(hits)
	if params.Limit > 0 && len(hits) > params.Limit {
		hits = hits[:params.Limit]
	}
	return &domain.SearchResponse{Hits: hits, EstimatedTotalHits: total, Query: query}, nil
}

func (m *MockSearchEngine) GetStats(ctx context.Context, name string) (*domain.IndexStats, error) {
	if m.GetStatsFn != nil {
		return m.GetStatsFn(name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[name]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", name, domain.ErrNotFound)
	}
	return &domain.IndexStats{NumberOfDocuments: len(idx)}, nil
}

func (m *MockSearchEngine) HealthCheck(ctx context.Context) error {
	if m.HealthFn != nil {
		return m.HealthFn()
	}
	return nil
}

// Records returns a copy of the records held by an index (for test assertions).
func (m *MockSearchEngine) Records(name string) map[string]domain.IndexRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.IndexRecord, len(m.indexes[name]))
	for id, rec := range m.indexes[name] {
		out[id] = rec
	}
	return out
}

// Settings returns the settings applied to an index.
func (m *MockSearchEngine) Settings(name string) (domain.IndexSettings, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[name]
	return s, ok
}

func inScope(rec domain.IndexRecord, scope *domain.ScopeFilter) bool {
	if scope.IsEmpty() {
		return true
	}
	v, _ := rec[scope.Field].(string)
	for _, p := range scope.Prefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}
