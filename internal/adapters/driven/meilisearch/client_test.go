package meilisearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

type fakeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

type fakeTask struct {
	UID    int64      `json:"uid"`
	Status string     `json:"status"`
	Error  *fakeError `json:"error,omitempty"`
}

type fakeTaskRef struct {
	TaskUID int64  `json:"taskUid"`
	Status  string `json:"status"`
}

type fakeSearch struct {
	Q                     string   `json:"q"`
	Limit                 int      `json:"limit"`
	Filter                string   `json:"filter"`
	AttributesToHighlight []string `json:"attributesToHighlight"`
	CropLength            int      `json:"cropLength"`
	HighlightPreTag       string   `json:"highlightPreTag"`
	HighlightPostTag      string   `json:"highlightPostTag"`
	ShowRankingScore      bool     `json:"showRankingScore"`
}

// fakeMeili implements the subset of the Meilisearch API used by SearchEngine.
// Tasks complete on their second poll.
type fakeMeili struct {
	mu       sync.Mutex
	apiKey   string
	indexes  map[string]map[string]map[string]any
	settings map[string]map[string][]string
	tasks    map[int64]*fakeTask
	polls    map[int64]int
	nextTask int64
	search   []fakeSearch
	health   string
}

func newFakeMeili(t *testing.T) (*fakeMeili, *SearchEngine) {
	t.Helper()
	f := &fakeMeili{
		apiKey:   "master",
		indexes:  make(map[string]map[string]map[string]any),
		settings: make(map[string]map[string][]string),
		tasks:    make(map[int64]*fakeTask),
		polls:    make(map[int64]int),
		health:   "available",
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL + "/")
	cfg.APIKey = "master"
	cfg.TaskPollInterval = time.Millisecond
	engine, err := NewSearchEngine(cfg)
	require.NoError(t, err)
	return f, engine
}

func (f *fakeMeili) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/health" {
		writeJSON(w, http.StatusOK, map[string]string{"status": f.health})
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+f.apiKey {
		writeJSON(w, http.StatusUnauthorized, fakeError{Message: "missing key", Code: "missing_authorization_header"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case parts[0] == "tasks" && len(parts) == 2:
		var uid int64
		fmt.Sscan(parts[1], &uid)
		t, ok := f.tasks[uid]
		if !ok {
			writeJSON(w, http.StatusNotFound, fakeError{Message: "task not found", Code: "task_not_found"})
			return
		}
		f.polls[uid]++
		if f.polls[uid] < 2 {
			writeJSON(w, http.StatusOK, fakeTask{UID: uid, Status: "processing"})
			return
		}
		writeJSON(w, http.StatusOK, t)

	case parts[0] == "indexes" && len(parts) == 1 && r.Method == http.MethodPost:
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := f.indexes[body["uid"]]; ok {
			f.enqueue(w, &fakeError{Message: "exists", Code: codeIndexAlreadyExists})
			return
		}
		f.indexes[body["uid"]] = make(map[string]map[string]any)
		f.enqueue(w, nil)

	case parts[0] == "indexes" && len(parts) >= 2:
		name := parts[1]
		idx, ok := f.indexes[name]
		if !ok && !(len(parts) == 3 && parts[2] == "documents" && r.Method == http.MethodPost) {
			if len(parts) == 2 && r.Method == http.MethodDelete {
				f.enqueue(w, &fakeError{Message: "missing", Code: codeIndexNotFound})
				return
			}
			writeJSON(w, http.StatusNotFound, fakeError{Message: "Index `" + name + "` not found.", Code: codeIndexNotFound})
			return
		}
		f.serveIndex(w, r, name, idx, parts[2:])

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeMeili) serveIndex(w http.ResponseWriter, r *http.Request, name string, idx map[string]map[string]any, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodDelete:
		delete(f.indexes, name)
		f.enqueue(w, nil)
	case len(rest) == 0:
		writeJSON(w, http.StatusOK, map[string]any{"uid": name, "updatedAt": "2026-05-01T10:00:00Z"})
	case rest[0] == "settings":
		var body map[string][]string
		json.NewDecoder(r.Body).Decode(&body)
		f.settings[name] = body
		f.enqueue(w, nil)
	case rest[0] == "documents" && r.Method == http.MethodPost:
		if r.URL.Query().Get("primaryKey") != domain.FieldID {
			writeJSON(w, http.StatusBadRequest, fakeError{Message: "bad pk", Code: "index_primary_key_wrong"})
			return
		}
		if idx == nil {
			idx = make(map[string]map[string]any)
			f.indexes[name] = idx
		}
		var docs []map[string]any
		json.NewDecoder(r.Body).Decode(&docs)
		for _, d := range docs {
			idx[d["id"].(string)] = d
		}
		f.enqueue(w, nil)
	case rest[0] == "documents" && r.Method == http.MethodDelete && len(rest) == 2:
		delete(idx, rest[1])
		f.enqueue(w, nil)
	case rest[0] == "stats":
		writeJSON(w, http.StatusOK, map[string]any{"numberOfDocuments": len(idx), "isIndexing": false})
	case rest[0] == "search":
		var req fakeSearch
		json.NewDecoder(r.Body).Decode(&req)
		if req.Limit == 0 {
			req.Limit = 20
		}
		f.search = append(f.search, req)
		if req.Filter != "" && !strings.HasPrefix(req.Filter, "path ") {
			writeJSON(w, http.StatusBadRequest, fakeError{Message: "bad filter", Code: "invalid_search_filter"})
			return
		}
		var hits []map[string]any
		for id, d := range idx {
			content, _ := d["content"].(string)
			if !strings.Contains(content, req.Q) {
				continue
			}
			hits = append(hits, map[string]any{
				"id":            id,
				"title":         d["title"],
				"_rankingScore": 0.9,
				"_formatted": map[string]any{
					"content": strings.ReplaceAll(content, req.Q, req.HighlightPreTag+req.Q+req.HighlightPostTag),
				},
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"hits":               hits,
			"estimatedTotalHits": len(hits),
			"processingTimeMs":   3,
			"query":              req.Q,
		})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeMeili) enqueue(w http.ResponseWriter, failure *fakeError) {
	f.nextTask++
	t := &fakeTask{UID: f.nextTask, Status: "succeeded"}
	if failure != nil {
		t.Status = "failed"
		t.Error = failure
	}
	f.tasks[t.UID] = t
	writeJSON(w, http.StatusAccepted, fakeTaskRef{TaskUID: t.UID, Status: "enqueued"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		endpoint  string
		want      string
		wantError bool
	}{
		{name: "valid http endpoint", endpoint: "http://localhost:7700", want: "http://localhost:7700"},
		{name: "valid https endpoint", endpoint: "https://search.example.com", want: "https://search.example.com"},
		{name: "strips trailing slash", endpoint: "http://localhost:7700/", want: "http://localhost:7700"},
		{name: "rejects empty string", endpoint: "", wantError: true},
		{name: "rejects file scheme", endpoint: "file:///etc/passwd", wantError: true},
		{name: "rejects no scheme", endpoint: "localhost:7700", wantError: true},
		{name: "rejects missing host", endpoint: "http://", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateEndpoint(tt.endpoint)
			if tt.wantError {
				if err == nil {
					t.Errorf("validateEndpoint(%q) expected error, got nil", tt.endpoint)
				}
				return
			}
			if err != nil {
				t.Errorf("validateEndpoint(%q) unexpected error: %v", tt.endpoint, err)
				return
			}
			if got != tt.want {
				t.Errorf("validateEndpoint(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}

func TestSearchEngine_IndexLifecycle(t *testing.T) {
	f, engine := newFakeMeili(t)
	ctx := context.Background()

	require.NoError(t, engine.CreateIndex(ctx, "laws", domain.FieldID))
	require.NoError(t, engine.CreateIndex(ctx, "laws", domain.FieldID))

	settings := domain.NewSearchIndex("laws").Settings()
	require.NoError(t, engine.UpdateSettings(ctx, "laws", settings))
	assert.Equal(t, []string{"title", "content"}, f.settings["laws"]["searchableAttributes"])
	assert.Equal(t, []string{"path", "language"}, f.settings["laws"]["filterableAttributes"])

	require.NoError(t, engine.AddDocuments(ctx, "laws", []domain.IndexRecord{
		{"id": "a", "title": "BGB", "content": "Geburt und Rechtsfähigkeit", "path": "/eli/bund/bgb"},
		{"id": "b", "title": "StGB", "content": "Strafbarkeit", "path": "/eli/bund/stgb"},
	}))

	stats, err := engine.GetStats(ctx, "laws")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.NumberOfDocuments)
	require.NotNil(t, stats.LastUpdate)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), *stats.LastUpdate)

	require.NoError(t, engine.DeleteDocument(ctx, "laws", "a"))
	stats, err = engine.GetStats(ctx, "laws")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NumberOfDocuments)

	require.NoError(t, engine.DeleteIndex(ctx, "laws"))
	require.NoError(t, engine.DeleteIndex(ctx, "laws"))

	_, err = engine.GetStats(ctx, "laws")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchEngine_Search(t *testing.T) {
	f, engine := newFakeMeili(t)
	ctx := context.Background()
	require.NoError(t, engine.AddDocuments(ctx, "laws", []domain.IndexRecord{
		{"id": "a", "title": "BGB", "content": "Geburt und Rechtsfähigkeit", "path": "/eli/bund/bgb"},
		{"id": "b", "title": "StGB", "content": "Strafbarkeit", "path": "/eli/bund/stgb"},
	}))

	params := domain.DefaultSearchParams()
	params.Scope = domain.NewPathScope([]string{"/eli/bund/"})
	resp, err := engine.Search(ctx, "laws", "Geburt", params)
	require.NoError(t, err)

	require.Len(t, resp.Hits, 1)
	hit := resp.Hits[0]
	assert.Equal(t, "a", hit.ID)
	assert.Equal(t, 0.9, hit.Score)
	assert.Equal(t, "BGB", hit.Fields["title"])
	assert.Equal(t, "<mark>Geburt</mark> und Rechtsfähigkeit", hit.Highlight())
	assert.Equal(t, 3*time.Millisecond, resp.ProcessingTime)
	assert.Equal(t, 1, resp.EstimatedTotalHits)

	require.Len(t, f.search, 1)
	sent := f.search[0]
	assert.Equal(t, "path STARTS WITH '/eli/bund/'", sent.Filter)
	assert.Equal(t, domain.DefaultRetrievalLimit, sent.Limit)
	assert.Equal(t, 30, sent.CropLength)
	assert.True(t, sent.ShowRankingScore)
}

func TestSearchEngine_SearchInvalidFilter(t *testing.T) {
	_, engine := newFakeMeili(t)
	ctx := context.Background()
	require.NoError(t, engine.CreateIndex(ctx, "laws", domain.FieldID))

	params := domain.DefaultSearchParams()
	params.Scope = &domain.ScopeFilter{Field: "court", Prefixes: []string{"BGH"}}
	_, err := engine.Search(ctx, "laws", "x", params)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_search_filter", apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	var clientErr *meili.Error
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusBadRequest, clientErr.StatusCode)
}

func TestSearchEngine_FailedTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tasks/3" {
			writeJSON(w, http.StatusOK, fakeTask{UID: 3, Status: "failed", Error: &fakeError{
				Message: "Index `laws`: The primary key must be a string.",
				Code:    "invalid_document_id",
				Type:    "invalid_request",
			}})
			return
		}
		writeJSON(w, http.StatusAccepted, fakeTaskRef{TaskUID: 3, Status: "enqueued"})
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.TaskPollInterval = time.Millisecond
	engine, err := NewSearchEngine(cfg)
	require.NoError(t, err)

	err = engine.AddDocuments(context.Background(), "laws", []domain.IndexRecord{{"id": "a"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_document_id", apiErr.Code)
	assert.Equal(t, "invalid_request", apiErr.Type)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchEngine_SearchMissingIndex(t *testing.T) {
	_, engine := newFakeMeili(t)
	_, err := engine.Search(context.Background(), "nope", "x", domain.DefaultSearchParams())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchEngine_Unauthorized(t *testing.T) {
	f, engine := newFakeMeili(t)
	f.apiKey = "rotated"

	err := engine.CreateIndex(context.Background(), "laws", domain.FieldID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSearchEngine_HealthCheck(t *testing.T) {
	f, engine := newFakeMeili(t)
	require.NoError(t, engine.HealthCheck(context.Background()))

	f.mu.Lock()
	f.health = "degraded"
	f.mu.Unlock()
	assert.ErrorIs(t, engine.HealthCheck(context.Background()), domain.ErrServiceUnavailable)
}

func TestSearchEngine_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	engine, err := NewSearchEngine(DefaultConfig(srv.URL))
	require.NoError(t, err)

	err = engine.HealthCheck(context.Background())
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestSearchEngine_TaskTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tasks/7" {
			writeJSON(w, http.StatusOK, fakeTask{UID: 7, Status: "enqueued"})
			return
		}
		writeJSON(w, http.StatusAccepted, fakeTaskRef{TaskUID: 7, Status: "enqueued"})
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.TaskPollInterval = time.Millisecond
	cfg.TaskTimeout = 20 * time.Millisecond
	engine, err := NewSearchEngine(cfg)
	require.NoError(t, err)

	err = engine.AddDocuments(context.Background(), "laws", []domain.IndexRecord{{"id": "a"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
