package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// RetrievalServiceConfig holds configuration for the retrieval service
type RetrievalServiceConfig struct {
	// Limit bounds both the hits requested per index and the merged result
	Limit      int
	CropLength int
	// Index restricts retrieval to one named index; empty means every enabled index
	Index  string
	Logger *slog.Logger
}

// retrievalService implements the RetrievalService interface
type retrievalService struct {
	documents driven.DocumentStore
	indexes   driven.SearchIndexStore
	engine    driven.SearchIndexEngine
	cfg       RetrievalServiceConfig
	logger    *slog.Logger
}

// NewRetrievalService creates a new RetrievalService
func NewRetrievalService(
	documents driven.DocumentStore,
	indexes driven.SearchIndexStore,
	engine driven.SearchIndexEngine,
	cfg RetrievalServiceConfig,
) driving.RetrievalService {
	if cfg.Limit <= 0 {
		cfg.Limit = domain.DefaultRetrievalLimit
	}
	if cfg.Limit > 100 {
		cfg.Limit = 100
	}
	if cfg.CropLength <= 0 {
		cfg.CropLength = domain.DefaultSearchParams().CropLength
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &retrievalService{
		documents: documents,
		indexes:   indexes,
		engine:    engine,
		cfg:       cfg,
		logger:    cfg.Logger,
	}
}

// rankedHit is the best hit for one document across all searched indexes
type rankedHit struct {
	score     float64
	highlight string
	index     string
}

// Search returns ranked documents reconciled against the store
func (s *retrievalService) Search(ctx context.Context, query string, scopes []string) (*domain.RetrievalResult, error) {
	dbg, err := s.Debug(ctx, query, scopes)
	if err != nil {
		return nil, err
	}
	return &dbg.RetrievalResult, nil
}

// Debug runs the retrieval and reports engine and store timings
func (s *retrievalService) Debug(ctx context.Context, query string, scopes []string) (*domain.RetrievalDebug, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "must not be empty")
	}

	indexes, err := s.searchTargets(ctx)
	if err != nil {
		return nil, err
	}

	params := domain.DefaultSearchParams()
	params.Limit = s.cfg.Limit
	params.CropLength = s.cfg.CropLength
	params.Scope = domain.NewPathScope(scopes)

	dbg := &domain.RetrievalDebug{
		RetrievalResult: domain.RetrievalResult{Query: query, Documents: []*domain.RetrievedDocument{}},
		Filter:          params.Scope.Expression(),
		Indexes:         make([]string, 0, len(indexes)),
	}
	if len(indexes) == 0 {
		return dbg, nil
	}

	searchStart := time.Now()
	responses := make([]*domain.SearchResponse, len(indexes))
	failures := make([]error, len(indexes))
	g, gctx := errgroup.WithContext(ctx)
	for i, idx := range indexes {
		dbg.Indexes = append(dbg.Indexes, idx.Name)
		g.Go(func() error {
			resp, err := s.engine.Search(gctx, idx.Name, query, params)
			if err != nil {
				s.logger.Warn("index search failed", "index", idx.Name, "error", err)
				failures[i] = fmt.Errorf("%s: %w", idx.Name, err)
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()
	dbg.SearchTime = time.Since(searchStart)

	best := make(map[string]*rankedHit)
	var ids []string
	failed := 0
	for i, resp := range responses {
		if resp == nil {
			failed++
			continue
		}
		dbg.EstimatedTotalHits += resp.EstimatedTotalHits
		weight := indexes[i].EffectiveWeight()
		for _, hit := range resp.Hits {
			score := hit.Score * weight
			cur, seen := best[hit.ID]
			if !seen {
				ids = append(ids, hit.ID)
				best[hit.ID] = &rankedHit{score: score, highlight: hit.Highlight(), index: indexes[i].Name}
				continue
			}
			if score > cur.score {
				cur.score = score
				cur.index = indexes[i].Name
				if h := hit.Highlight(); h != "" {
					cur.highlight = h
				}
			}
		}
	}
	if failed == len(indexes) {
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, errors.Join(failures...))
	}
	if len(ids) == 0 {
		return dbg, nil
	}

	storeStart := time.Now()
	docs, err := s.documents.GetByIDs(ctx, ids)
	dbg.StoreTime = time.Since(storeStart)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	results := make([]*domain.RetrievedDocument, 0, len(docs))
	for _, doc := range docs {
		hit, ok := best[doc.ID]
		if !ok {
			continue
		}
		results = append(results, &domain.RetrievedDocument{
			Document:  doc,
			Score:     hit.score,
			Highlight: hit.highlight,
			Index:     hit.index,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	dbg.Dropped = len(ids) - len(results)
	if dbg.Dropped > 0 {
		s.logger.Debug("dropped search hits without store record", "count", dbg.Dropped, "query", query)
	}
	if len(results) > s.cfg.Limit {
		results = results[:s.cfg.Limit]
	}
	dbg.Documents = results
	return dbg, nil
}

// Context returns the retrieved documents in the shape handed to generation
func (s *retrievalService) Context(ctx context.Context, query string, scopes []string) ([]domain.ContextDocument, error) {
	res, err := s.Search(ctx, query, scopes)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContextDocument, 0, len(res.Documents))
	for _, rd := range res.Documents {
		path, _ := rd.Document.Project().Field(domain.FieldPath)
		out = append(out, domain.ContextDocument{
			ID:      rd.Document.ID,
			Title:   rd.Document.Title,
			Path:    path,
			Content: rd.Document.Content,
			Score:   rd.Score,
		})
	}
	return out, nil
}

func (s *retrievalService) searchTargets(ctx context.Context) ([]*domain.SearchIndex, error) {
	if s.cfg.Index != "" {
		idx, err := s.indexes.GetByName(ctx, s.cfg.Index)
		if err != nil {
			return nil, fmt.Errorf("retrieval index %s: %w", s.cfg.Index, err)
		}
		return []*domain.SearchIndex{idx}, nil
	}
	indexes, err := s.indexes.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list enabled indexes: %w", err)
	}
	return indexes, nil
}
