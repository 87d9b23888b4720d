package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*MockDocumentStore)(nil)

// MockDocumentStore is an in-memory DocumentStore for testing.
// Documents are copied on the way in and out so callers cannot mutate stored state.
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document

	// Custom behavior hooks (optional)
	UpdateManyFn func(filter driven.DocumentFilter, patch driven.DocumentPatch) (int, error)
	DeleteFn     func(id string) error

	// GetByIDsCalls counts batched fetches
	GetByIDsCalls int
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentStore) Find(ctx context.Context, filter driven.DocumentFilter, page driven.Page, order driven.SortOrder) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cursor := filter.After
	filter.After = nil
	var docs []*domain.Document
	for _, doc := range m.documents {
		if !filter.Matches(doc) {
			continue
		}
		if cursor != nil {
			if order == driven.OrderUpdatedAsc && !cursor.Before(doc) {
				continue
			}
			if order == driven.OrderUpdatedDesc && (cursor.Before(doc) || (cursor.ID == doc.ID)) {
				continue
			}
		}
		docs = append(docs, doc)
	}
	sortDocuments(docs, order)

	if page.Offset > 0 {
		if page.Offset >= len(docs) {
			return []*domain.Document{}, nil
		}
		docs = docs[page.Offset:]
	}
	if page.Limit > 0 && len(docs) > page.Limit {
		docs = docs[:page.Limit]
	}
	return cloneAll(docs), nil
}

func (m *MockDocumentStore) Count(ctx context.Context, filter driven.DocumentFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	filter.After = nil
	n := 0
	for _, doc := range m.documents {
		if filter.Matches(doc) {
			n++
		}
	}
	return n, nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MockDocumentStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Document, error) {
	m.mu.Lock()
	m.GetByIDsCalls++
	m.mu.Unlock()
	return m.Find(ctx, driven.DocumentFilter{IDs: ids}, driven.Page{}, driven.OrderUpdatedAsc)
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (m *MockDocumentStore) SaveBatch(ctx context.Context, docs []*domain.Document) error {
	for _, doc := range docs {
		if err := m.Save(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockDocumentStore) UpdateMany(ctx context.Context, filter driven.DocumentFilter, patch driven.DocumentPatch) (int, error) {
	if m.UpdateManyFn != nil {
		return m.UpdateManyFn(filter, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, doc := range m.documents {
		if !filter.Matches(doc) {
			continue
		}
		if patch.Status != nil {
			doc.Status = *patch.Status
		}
		if patch.ClearLastIndexed {
			doc.LastIndexed = nil
		} else if patch.LastIndexed != nil {
			at := *patch.LastIndexed
			doc.LastIndexed = &at
		}
		n++
	}
	return n, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

// Statuses returns the stored status of every document (for test assertions).
func (m *MockDocumentStore) Statuses() map[string]domain.DocumentStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.DocumentStatus, len(m.documents))
	for id, doc := range m.documents {
		out[id] = doc.Status
	}
	return out
}

// Len returns the number of stored documents.
func (m *MockDocumentStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

func sortDocuments(docs []*domain.Document, order driven.SortOrder) {
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		less := a.UpdatedAt.Before(b.UpdatedAt) || (a.UpdatedAt.Equal(b.UpdatedAt) && a.ID < b.ID)
		if order == driven.OrderUpdatedDesc {
			return !less && a.ID != b.ID
		}
		return less
	})
}

func cloneDocument(doc *domain.Document) *domain.Document {
	c := *doc
	if doc.Metadata != nil {
		c.Metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			c.Metadata[k] = v
		}
	}
	if doc.LastIndexed != nil {
		at := *doc.LastIndexed
		c.LastIndexed = &at
	}
	return &c
}

func cloneAll(docs []*domain.Document) []*domain.Document {
	out := make([]*domain.Document, len(docs))
	for i, d := range docs {
		out[i] = cloneDocument(d)
	}
	return out
}
