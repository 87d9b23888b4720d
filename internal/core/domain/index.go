package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FilterOperator selects how a filter rule compares a projection field to its value
type FilterOperator string

const (
	FilterEquals     FilterOperator = "equals"
	FilterContains   FilterOperator = "contains"
	FilterStartsWith FilterOperator = "startsWith"
	FilterEndsWith   FilterOperator = "endsWith"
)

// IsValid reports whether the operator is one of the supported variants.
func (o FilterOperator) IsValid() bool {
	switch o {
	case FilterEquals, FilterContains, FilterStartsWith, FilterEndsWith:
		return true
	}
	return false
}

// FilterRule admits a projection into an index when its field satisfies the operator
type FilterRule struct {
	Field    string         `json:"field" yaml:"field"`
	Operator FilterOperator `json:"operator" yaml:"operator"`
	Value    string         `json:"value" yaml:"value"`
}

// Validate checks that the rule is complete and uses a known operator.
func (r FilterRule) Validate() error {
	if strings.TrimSpace(r.Field) == "" {
		return NewValidationError("filters.field", "must not be empty")
	}
	if !r.Operator.IsValid() {
		return NewValidationError("filters.operator", fmt.Sprintf("unsupported operator %q", r.Operator))
	}
	if r.Value == "" {
		return NewValidationError("filters.value", "must not be empty")
	}
	return nil
}

// Matches evaluates the rule against a projection.
// A missing field never matches.
func (r FilterRule) Matches(p *Projection) bool {
	v, ok := p.Field(r.Field)
	if !ok {
		return false
	}
	switch r.Operator {
	case FilterEquals:
		return v == r.Value
	case FilterContains:
		return strings.Contains(v, r.Value)
	case FilterStartsWith:
		return strings.HasPrefix(v, r.Value)
	case FilterEndsWith:
		return strings.HasSuffix(v, r.Value)
	}
	return false
}

var indexNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,400}$`)

// SearchIndex is the definition of one named projection target in the search engine
type SearchIndex struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Enabled     bool         `json:"enabled"`
	Weight      float64      `json:"weight"`
	Filters     []FilterRule `json:"filters"`
	LastIndexed *time.Time   `json:"last_indexed,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSearchIndex creates an enabled index definition with unit weight.
func NewSearchIndex(name string, filters ...FilterRule) *SearchIndex {
	now := time.Now().UTC()
	return &SearchIndex{
		ID:        GenerateID(),
		Name:      name,
		Enabled:   true,
		Weight:    1,
		Filters:   filters,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the definition before it is persisted.
func (s *SearchIndex) Validate() error {
	if !indexNamePattern.MatchString(s.Name) {
		return NewValidationError("name", "must be 1-400 characters of letters, digits, '-' or '_'")
	}
	if s.Weight < 0 {
		return NewValidationError("weight", "must not be negative")
	}
	for _, f := range s.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Accepts evaluates every filter rule in order; all must match.
func (s *SearchIndex) Accepts(p *Projection) bool {
	for _, f := range s.Filters {
		if !f.Matches(p) {
			return false
		}
	}
	return true
}

// EffectiveWeight returns the ranking multiplier, treating an unset weight as 1.
func (s *SearchIndex) EffectiveWeight() float64 {
	if s.Weight == 0 {
		return 1
	}
	return s.Weight
}

// Settings returns the engine settings required by this index definition.
func (s *SearchIndex) Settings() IndexSettings {
	filterable := []string{FieldPath, FieldLanguage}
	seen := map[string]bool{FieldPath: true, FieldLanguage: true}
	for _, f := range s.Filters {
		if !seen[f.Field] {
			seen[f.Field] = true
			filterable = append(filterable, f.Field)
		}
	}
	return IndexSettings{
		SearchableFields: []string{FieldTitle, FieldContent},
		FilterableFields: filterable,
		SortableFields:   []string{FieldUpdatedAt},
	}
}

// IndexSettings lists which fields the engine searches, filters and sorts on
type IndexSettings struct {
	SearchableFields []string `json:"searchable_fields"`
	FilterableFields []string `json:"filterable_fields"`
	SortableFields   []string `json:"sortable_fields"`
}

// IndexStats is the per-index state reported by the search engine
type IndexStats struct {
	NumberOfDocuments int        `json:"number_of_documents"`
	IsIndexing        bool       `json:"is_indexing"`
	LastUpdate        *time.Time `json:"last_update,omitempty"`
}

// IndexStatus joins engine stats with the local index definition
type IndexStatus struct {
	Name              string     `json:"name"`
	NumberOfDocuments int        `json:"number_of_documents"`
	IsIndexing        bool       `json:"is_indexing"`
	LastUpdate        *time.Time `json:"last_update,omitempty"`
	Error             string     `json:"error,omitempty"`
}
