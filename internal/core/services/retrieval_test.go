package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven/mocks"
)

func saveDoc(t *testing.T, store *mocks.MockDocumentStore, id, title, path string) *domain.Document {
	t.Helper()
	doc := domain.NewDocument(title, "content of "+title, map[string]any{domain.FieldPath: path})
	doc.ID = id
	require.NoError(t, store.Save(context.Background(), doc))
	return doc
}

func fixedHits(hits map[string][]domain.SearchHit) func(name, query string, params domain.SearchParams) (*domain.SearchResponse, error) {
	return func(name, query string, params domain.SearchParams) (*domain.SearchResponse, error) {
		h, ok := hits[name]
		if !ok {
			return nil, errors.New("index unavailable")
		}
		return &domain.SearchResponse{Hits: h, EstimatedTotalHits: len(h), Query: query}, nil
	}
}

func TestRetrievalService_Search_DropsHitsWithoutStoreRecord(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	engine := mocks.NewMockSearchEngine()
	indexes := mocks.NewMockSearchIndexStore(domain.NewSearchIndex("laws"))

	for _, id := range []string{"a", "b", "c", "e"} {
		saveDoc(t, docs, id, "Act "+id, "/eli/bund/"+id)
	}
	engine.SearchFn = fixedHits(map[string][]domain.SearchHit{
		"laws": {
			{ID: "a", Score: 0.9, Highlights: map[string]string{domain.FieldContent: "<em>a</em>"}},
			{ID: "b", Score: 0.8, Highlights: map[string]string{domain.FieldContent: "<em>b</em>"}},
			{ID: "d", Score: 0.7, Highlights: map[string]string{domain.FieldContent: "<em>d</em>"}},
			{ID: "c", Score: 0.6, Highlights: map[string]string{domain.FieldTitle: "<em>c</em>"}},
			{ID: "e", Score: 0.5, Highlights: map[string]string{domain.FieldContent: "<em>e</em>"}},
		},
	})

	svc := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{Logger: discardLogger})
	result, err := svc.Search(context.Background(), "tenancy", nil)
	require.NoError(t, err)

	require.Len(t, result.Documents, 4)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 1, docs.GetByIDsCalls, "documents are loaded in one round trip")

	want := []struct {
		id        string
		score     float64
		highlight string
	}{
		{"a", 0.9, "<em>a</em>"},
		{"b", 0.8, "<em>b</em>"},
		{"c", 0.6, "<em>c</em>"},
		{"e", 0.5, "<em>e</em>"},
	}
	for i, w := range want {
		got := result.Documents[i]
		assert.Equal(t, w.id, got.Document.ID)
		assert.Equal(t, w.score, got.Score)
		assert.Equal(t, w.highlight, got.Highlight)
		assert.Equal(t, "laws", got.Index)
	}
}

func TestRetrievalService_Search_EmptyQuery(t *testing.T) {
	svc := NewRetrievalService(mocks.NewMockDocumentStore(), mocks.NewMockSearchIndexStore(), mocks.NewMockSearchEngine(), RetrievalServiceConfig{})

	_, err := svc.Search(context.Background(), "   ", nil)
	assert.True(t, domain.IsValidationError(err))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrievalService_Search_NoIndexes(t *testing.T) {
	svc := NewRetrievalService(mocks.NewMockDocumentStore(), mocks.NewMockSearchIndexStore(), mocks.NewMockSearchEngine(), RetrievalServiceConfig{})

	result, err := svc.Search(context.Background(), "tenancy", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
}

func TestRetrievalService_Search_WeightsAndMerge(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	engine := mocks.NewMockSearchEngine()
	primary := domain.NewSearchIndex("laws-de")
	primary.Weight = 2
	secondary := domain.NewSearchIndex("laws-all")
	indexes := mocks.NewMockSearchIndexStore(primary, secondary)

	saveDoc(t, docs, "x", "Mietrecht", "/eli/bund/x")
	saveDoc(t, docs, "y", "Tenancy", "/eli/eu/y")
	engine.SearchFn = fixedHits(map[string][]domain.SearchHit{
		"laws-de":  {{ID: "x", Score: 0.4, Highlights: map[string]string{domain.FieldContent: "from de"}}},
		"laws-all": {{ID: "y", Score: 0.7}, {ID: "x", Score: 0.5, Highlights: map[string]string{domain.FieldContent: "from all"}}},
	})

	svc := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{Logger: discardLogger})
	result, err := svc.Search(context.Background(), "miete", nil)
	require.NoError(t, err)

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "x", result.Documents[0].Document.ID)
	assert.InDelta(t, 0.8, result.Documents[0].Score, 1e-9)
	assert.Equal(t, "laws-de", result.Documents[0].Index)
	assert.Equal(t, "from de", result.Documents[0].Highlight)
	assert.Equal(t, "y", result.Documents[1].Document.ID)
}

func TestRetrievalService_Search_ConfiguredIndexOnly(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	engine := mocks.NewMockSearchEngine()
	indexes := mocks.NewMockSearchIndexStore(domain.NewSearchIndex("laws-de"), domain.NewSearchIndex("laws-all"))
	saveDoc(t, docs, "x", "Mietrecht", "/eli/bund/x")
	engine.SearchFn = fixedHits(map[string][]domain.SearchHit{
		"laws-de":  {{ID: "x", Score: 1}},
		"laws-all": {{ID: "x", Score: 5}},
	})

	svc := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{Index: "laws-de", Logger: discardLogger})
	result, err := svc.Search(context.Background(), "miete", nil)
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, 1.0, result.Documents[0].Score)
	_, searchedAll := engine.LastParams["laws-all"]
	assert.False(t, searchedAll)

	missing := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{Index: "laws-fr"})
	_, err = missing.Search(context.Background(), "miete", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetrievalService_Search_PartialEngineFailure(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	engine := mocks.NewMockSearchEngine()
	indexes := mocks.NewMockSearchIndexStore(domain.NewSearchIndex("laws-a"), domain.NewSearchIndex("laws-b"))
	saveDoc(t, docs, "x", "Act", "/eli/x")
	engine.SearchFn = fixedHits(map[string][]domain.SearchHit{
		"laws-a": {{ID: "x", Score: 1}},
	})

	svc := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{Logger: discardLogger})
	result, err := svc.Search(context.Background(), "act", nil)
	require.NoError(t, err)
	assert.Len(t, result.Documents, 1)
}

func TestRetrievalService_Search_AllIndexesFail(t *testing.T) {
	engine := mocks.NewMockSearchEngine()
	engine.SearchFn = fixedHits(nil)
	indexes := mocks.NewMockSearchIndexStore(domain.NewSearchIndex("laws-a"), domain.NewSearchIndex("laws-b"))

	svc := NewRetrievalService(mocks.NewMockDocumentStore(), indexes, engine, RetrievalServiceConfig{Logger: discardLogger})
	_, err := svc.Search(context.Background(), "act", nil)

	require.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "laws-a")
	assert.Contains(t, err.Error(), "laws-b")
}

func TestRetrievalService_Search_Limit(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	engine := mocks.NewMockSearchEngine()
	indexes := mocks.NewMockSearchIndexStore(domain.NewSearchIndex("laws"))

	var hits []domain.SearchHit
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		saveDoc(t, docs, id, "Act "+id, "/eli/"+id)
		hits = append(hits, domain.SearchHit{ID: id, Score: float64(10 - i)})
	}
	engine.SearchFn = fixedHits(map[string][]domain.SearchHit{"laws": hits})

	svc := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{Logger: discardLogger})
	result, err := svc.Search(context.Background(), "act", nil)
	require.NoError(t, err)

	assert.Len(t, result.Documents, domain.DefaultRetrievalLimit)
	assert.Equal(t, domain.DefaultRetrievalLimit, engine.LastParams["laws"].Limit)
}

func TestRetrievalService_Debug(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	engine := mocks.NewMockSearchEngine()
	indexes := mocks.NewMockSearchIndexStore(domain.NewSearchIndex("laws"))

	ctx := context.Background()
	inScope := saveDoc(t, docs, "x", "Mietrecht", "/eli/bund/bgb/x")
	outOfScope := saveDoc(t, docs, "y", "Mietrecht", "/eli/eu/y")
	require.NoError(t, engine.AddDocuments(ctx, "laws", []domain.IndexRecord{
		inScope.Project().Record(),
		outOfScope.Project().Record(),
	}))

	svc := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{CropLength: 12, Logger: discardLogger})
	dbg, err := svc.Debug(ctx, "mietrecht", []string{"/eli/bund/", "/eli/o'reilly/"})
	require.NoError(t, err)

	assert.Equal(t, `path STARTS WITH '/eli/bund/' OR path STARTS WITH '/eli/o\'reilly/'`, dbg.Filter)
	assert.Equal(t, []string{"laws"}, dbg.Indexes)
	assert.Equal(t, 1, dbg.EstimatedTotalHits)
	require.Len(t, dbg.Documents, 1)
	assert.Equal(t, "x", dbg.Documents[0].Document.ID)
	assert.Equal(t, "<em>mietrecht</em>", dbg.Documents[0].Highlight)

	params := engine.LastParams["laws"]
	assert.Equal(t, 12, params.CropLength)
	assert.Equal(t, []string{"/eli/bund/", "/eli/o'reilly/"}, params.Scope.Prefixes)
}

func TestRetrievalService_Context(t *testing.T) {
	docs := mocks.NewMockDocumentStore()
	engine := mocks.NewMockSearchEngine()
	indexes := mocks.NewMockSearchIndexStore(domain.NewSearchIndex("laws"))
	saveDoc(t, docs, "x", "Mietrecht", "/eli/bund/x")
	engine.SearchFn = fixedHits(map[string][]domain.SearchHit{"laws": {{ID: "x", Score: 3}}})

	svc := NewRetrievalService(docs, indexes, engine, RetrievalServiceConfig{Logger: discardLogger})
	out, err := svc.Context(context.Background(), "miete", nil)
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, domain.ContextDocument{
		ID:      "x",
		Title:   "Mietrecht",
		Path:    "/eli/bund/x",
		Content: "content of Mietrecht",
		Score:   3,
	}, out[0])
}
