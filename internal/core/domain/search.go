package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRetrievalLimit bounds the number of hits requested per index
const DefaultRetrievalLimit = 5

// ScopeFilter restricts a search to projections whose field starts with one of the prefixes.
// Prefixes are combined with OR.
type ScopeFilter struct {
	Field    string   `json:"field"`
	Prefixes []string `json:"prefixes"`
}

// NewPathScope builds a scope over the path field from the selected scopes.
// Blank entries are ignored; nil is returned when nothing remains.
func NewPathScope(scopes []string) *ScopeFilter {
	prefixes := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s != "" {
			prefixes = append(prefixes, s)
		}
	}
	if len(prefixes) == 0 {
		return nil
	}
	return &ScopeFilter{Field: FieldPath, Prefixes: prefixes}
}

// IsEmpty reports whether the scope admits everything.
func (f *ScopeFilter) IsEmpty() bool {
	return f == nil || len(f.Prefixes) == 0
}

// Expression renders the scope in the engine filter syntax, e.g.
// path STARTS WITH '/de/bund' OR path STARTS WITH '/at'.
func (f *ScopeFilter) Expression() string {
	if f.IsEmpty() {
		return ""
	}
	clauses := make([]string, len(f.Prefixes))
	for i, p := range f.Prefixes {
		clauses[i] = fmt.Sprintf("%s STARTS WITH '%s'", f.Field, filterQuoter.Replace(p))
	}
	return strings.Join(clauses, " OR ")
}

var filterQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// SearchParams configures a single engine query
type SearchParams struct {
	Limit                 int          `json:"limit"`
	Scope                 *ScopeFilter `json:"scope,omitempty"`
	AttributesToRetrieve  []string     `json:"attributes_to_retrieve,omitempty"`
	AttributesToHighlight []string     `json:"attributes_to_highlight,omitempty"`
	AttributesToCrop      []string     `json:"attributes_to_crop,omitempty"`
	CropLength            int          `json:"crop_length,omitempty"`
}

// DefaultSearchParams returns the parameters used by retrieval.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:                 DefaultRetrievalLimit,
		AttributesToRetrieve:  []string{FieldID, FieldTitle, FieldPath},
		AttributesToHighlight: []string{FieldTitle, FieldContent},
		AttributesToCrop:      []string{FieldContent},
		CropLength:            30,
	}
}

// SearchHit is one ranked result returned by the search engine
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Fields     map[string]any    `json:"fields,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Highlight returns the best snippet, preferring content over title.
func (h SearchHit) Highlight() string {
	if s := h.Highlights[FieldContent]; s != "" {
		return s
	}
	return h.Highlights[FieldTitle]
}

// SearchResponse is the engine's answer to a query against one index
type SearchResponse struct {
	Hits               []SearchHit   `json:"hits"`
	EstimatedTotalHits int           `json:"estimated_total_hits"`
	ProcessingTime     time.Duration `json:"processing_time" swaggertype:"integer" example:"1500000"`
	Query              string        `json:"query"`
}

// RetrievedDocument joins an authoritative store record with its relevance data
type RetrievedDocument struct {
	Document  *Document `json:"document"`
	Score     float64   `json:"score"`
	Highlight string    `json:"highlight,omitempty"`
	// Index is the name of the index that produced the winning score
	Index string `json:"index"`
}

// RetrievalResult is the ordered output of a retrieval query
type RetrievalResult struct {
	Query     string               `json:"query"`
	Documents []*RetrievedDocument `json:"documents"`
	// Dropped counts hits that had no matching store record
	Dropped int `json:"dropped"`
}

// RetrievalDebug carries timings and the rendered filter for the debug surface
type RetrievalDebug struct {
	RetrievalResult
	Filter             string        `json:"filter,omitempty"`
	Indexes            []string      `json:"indexes"`
	EstimatedTotalHits int           `json:"estimated_total_hits"`
	SearchTime         time.Duration `json:"search_time" swaggertype:"integer" example:"1500000"`
	StoreTime          time.Duration `json:"store_time" swaggertype:"integer" example:"1500000"`
}

// ContextDocument is the document shape handed to the generation layer
type ContextDocument struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Path    string  `json:"path,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
