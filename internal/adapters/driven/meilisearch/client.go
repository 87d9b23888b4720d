package meilisearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchIndexEngine = (*SearchEngine)(nil)

const (
	highlightPreTag  = "<mark>"
	highlightPostTag = "</mark>"

	codeIndexNotFound      = "index_not_found"
	codeIndexAlreadyExists = "index_already_exists"
	codeDocumentNotFound   = "document_not_found"
)

// Config holds Meilisearch connection configuration
type Config struct {
	// BaseURL is the Meilisearch endpoint (e.g., http://localhost:7700)
	BaseURL string

	// APIKey is sent as a bearer token when set
	APIKey string

	// Timeout for HTTP requests
	Timeout time.Duration

	// TaskPollInterval is the delay between task status checks
	TaskPollInterval time.Duration

	// TaskTimeout bounds how long a write waits for its task to finish
	TaskTimeout time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		Timeout:          30 * time.Second,
		TaskPollInterval: 50 * time.Millisecond,
		TaskTimeout:      2 * time.Minute,
	}
}

// SearchEngine implements driven.SearchIndexEngine against a Meilisearch server.
// Meilisearch applies writes asynchronously; every write here waits for its
// task so callers observe success or failure of the write itself.
type SearchEngine struct {
	client       meili.ServiceManager
	pollInterval time.Duration
	taskTimeout  time.Duration
	logger       *slog.Logger
}

// NewSearchEngine creates a new Meilisearch-backed SearchIndexEngine
func NewSearchEngine(cfg Config) (*SearchEngine, error) {
	baseURL, err := validateEndpoint(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	defaults := DefaultConfig(baseURL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.TaskPollInterval <= 0 {
		cfg.TaskPollInterval = defaults.TaskPollInterval
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaults.TaskTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []meili.Option{meili.WithCustomClient(&http.Client{Timeout: cfg.Timeout})}
	if cfg.APIKey != "" {
		opts = append(opts, meili.WithAPIKey(cfg.APIKey))
	}
	return &SearchEngine{
		client:       meili.New(baseURL, opts...),
		pollInterval: cfg.TaskPollInterval,
		taskTimeout:  cfg.TaskTimeout,
		logger:       logger.With("component", "meilisearch"),
	}, nil
}

// validateEndpoint accepts only http(s) URLs and strips a trailing slash
func validateEndpoint(endpoint string) (string, error) {
	if endpoint == "" {
		return "", domain.NewValidationError("engine.meili_url", "must not be empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", domain.NewValidationError("engine.meili_url", err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", domain.NewValidationError("engine.meili_url", "scheme must be http or https")
	}
	if u.Host == "" {
		return "", domain.NewValidationError("engine.meili_url", "missing host")
	}
	return strings.TrimSuffix(endpoint, "/"), nil
}

// APIError is an error reported by Meilisearch, either in a response or in a
// failed task. StatusCode is zero for task failures.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Type       string

	// Err is the client error the response was decoded from, if any
	Err error
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("meilisearch: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("meilisearch: %s: %s", e.Code, e.Message)
}

// Unwrap maps Meilisearch failures onto domain errors.
func (e *APIError) Unwrap() []error {
	var errs []error
	if sentinel := e.sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *APIError) sentinel() error {
	switch {
	case e.Code == codeIndexNotFound || e.Code == codeDocumentNotFound || e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Code == codeIndexAlreadyExists:
		return domain.ErrAlreadyExists
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return domain.ErrUnauthorized
	case e.StatusCode >= 500:
		return domain.ErrServiceUnavailable
	case e.StatusCode >= 400:
		return domain.ErrInvalidInput
	}
	return nil
}

// translate converts a client error into an APIError. Errors raised before a
// response arrived mean the server is unreachable.
func translate(err error) error {
	var meiliErr *meili.Error
	if !errors.As(err, &meiliErr) || meiliErr.StatusCode == 0 {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	apiErr := meiliErr.MeilisearchApiError
	return &APIError{
		StatusCode: meiliErr.StatusCode,
		Message:    apiErr.Message,
		Code:       apiErr.Code,
		Type:       apiErr.Type,
		Err:        meiliErr,
	}
}

// CreateIndex creates a named index; creating an existing index is not an error
func (s *SearchEngine) CreateIndex(ctx context.Context, name, primaryKey string) error {
	info, err := s.client.CreateIndexWithContext(ctx, &meili.IndexConfig{Uid: name, PrimaryKey: primaryKey})
	err = s.await(ctx, info, err)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil
	}
	return err
}

// DeleteIndex removes a named index; deleting a missing index is not an error
func (s *SearchEngine) DeleteIndex(ctx context.Context, name string) error {
	info, err := s.client.DeleteIndexWithContext(ctx, name)
	err = s.await(ctx, info, err)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// UpdateSettings applies searchable, filterable and sortable attributes
func (s *SearchEngine) UpdateSettings(ctx context.Context, name string, settings domain.IndexSettings) error {
	info, err := s.client.Index(name).UpdateSettingsWithContext(ctx, &meili.Settings{
		SearchableAttributes: settings.SearchableFields,
		FilterableAttributes: settings.FilterableFields,
		SortableAttributes:   settings.SortableFields,
	})
	return s.await(ctx, info, err)
}

// AddDocuments upserts records keyed by the id field
func (s *SearchEngine) AddDocuments(ctx context.Context, name string, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	info, err := s.client.Index(name).AddDocumentsWithContext(ctx, records, domain.FieldID)
	return s.await(ctx, info, err)
}

// DeleteDocument removes one record; a missing record is not an error
func (s *SearchEngine) DeleteDocument(ctx context.Context, name, id string) error {
	info, err := s.client.Index(name).DeleteDocumentWithContext(ctx, id)
	err = s.await(ctx, info, err)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// Search performs a search query against one index
func (s *SearchEngine) Search(ctx context.Context, name, query string, params domain.SearchParams) (*domain.SearchResponse, error) {
	req := &meili.SearchRequest{
		Limit:                 int64(params.Limit),
		AttributesToRetrieve:  params.AttributesToRetrieve,
		AttributesToHighlight: params.AttributesToHighlight,
		AttributesToCrop:      params.AttributesToCrop,
		CropLength:            int64(params.CropLength),
		HighlightPreTag:       highlightPreTag,
		HighlightPostTag:      highlightPostTag,
		ShowRankingScore:      true,
	}
	if filter := params.Scope.Expression(); filter != "" {
		req.Filter = filter
	}

	resp, err := s.client.Index(name).SearchWithContext(ctx, query, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, translate(err))
	}
	hits, err := decodeHits(resp.Hits)
	if err != nil {
		return nil, fmt.Errorf("search %s: decode hits: %w", name, err)
	}

	out := &domain.SearchResponse{
		Hits:               make([]domain.SearchHit, 0, len(hits)),
		EstimatedTotalHits: int(resp.EstimatedTotalHits),
		ProcessingTime:     time.Duration(resp.ProcessingTimeMs) * time.Millisecond,
		Query:              resp.Query,
	}
	for _, raw := range hits {
		out.Hits = append(out.Hits, toHit(raw, params))
	}
	return out, nil
}

// decodeHits normalizes the client's hit representation into plain maps
func decodeHits(hits any) ([]map[string]any, error) {
	b, err := json.Marshal(hits)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toHit(raw map[string]any, params domain.SearchParams) domain.SearchHit {
	hit := domain.SearchHit{Fields: make(map[string]any)}
	hit.ID, _ = raw[domain.FieldID].(string)
	hit.Score, _ = raw["_rankingScore"].(float64)

	if len(params.AttributesToRetrieve) == 0 {
		for k, v := range raw {
			if k != "_formatted" && k != "_rankingScore" {
				hit.Fields[k] = v
			}
		}
	} else {
		for _, k := range params.AttributesToRetrieve {
			if v, ok := raw[k]; ok {
				hit.Fields[k] = v
			}
		}
	}

	formatted, _ := raw["_formatted"].(map[string]any)
	for _, field := range params.AttributesToHighlight {
		if v, ok := formatted[field].(string); ok {
			if hit.Highlights == nil {
				hit.Highlights = make(map[string]string)
			}
			hit.Highlights[field] = v
		}
	}
	return hit
}

// GetStats returns the document count and indexing flag of one index
func (s *SearchEngine) GetStats(ctx context.Context, name string) (*domain.IndexStats, error) {
	resp, err := s.client.Index(name).GetStatsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats of %s: %w", name, translate(err))
	}
	stats := &domain.IndexStats{NumberOfDocuments: int(resp.NumberOfDocuments), IsIndexing: resp.IsIndexing}

	info, err := s.client.GetIndexWithContext(ctx, name)
	if err != nil {
		s.logger.Warn("index info unavailable", "index", name, "error", translate(err))
	} else if !info.UpdatedAt.IsZero() {
		t := info.UpdatedAt.UTC()
		stats.LastUpdate = &t
	}
	return stats, nil
}

// HealthCheck verifies the search engine is available
func (s *SearchEngine) HealthCheck(ctx context.Context) error {
	resp, err := s.client.HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("meilisearch health check failed: %w", translate(err))
	}
	if resp.Status != "available" {
		return fmt.Errorf("meilisearch %s: %w", resp.Status, domain.ErrServiceUnavailable)
	}
	return nil
}

// await waits for an enqueued write to finish and reports its outcome
func (s *SearchEngine) await(ctx context.Context, info *meili.TaskInfo, err error) error {
	if err != nil {
		return translate(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	task, err := s.client.WaitForTaskWithContext(ctx, info.TaskUID, s.pollInterval)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("task %d: %w", info.TaskUID, ctxErr)
		}
		return fmt.Errorf("task %d: %w", info.TaskUID, translate(err))
	}

	switch task.Status {
	case meili.TaskStatusSucceeded:
		return nil
	case meili.TaskStatusFailed:
		if task.Error.Code == "" && task.Error.Message == "" {
			return fmt.Errorf("task %d failed", info.TaskUID)
		}
		return &APIError{Message: task.Error.Message, Code: task.Error.Code, Type: task.Error.Type}
	default:
		return fmt.Errorf("task %d %s", info.TaskUID, task.Status)
	}
}
