package ingest

import (
	"sort"
	"strings"
	"sync"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// Source is one raw file found by the loader
type Source struct {
	// Path is relative to the import root and slash-separated
	Path     string
	MIMEType string
	Data     []byte
}

// Normaliser turns a raw source file into a document
type Normaliser interface {
	// SupportedTypes lists the MIME types handled, wildcards allowed
	SupportedTypes() []string

	// Priority breaks ties when several normalisers match; higher wins
	Priority() int

	// Normalise parses the source. The returned document has no ID yet.
	Normalise(src Source) (*domain.Document, error)
}

// Registry selects a normaliser by MIME type with priority-based selection.
// When multiple normalisers match a MIME type, the highest priority one is used.
type Registry struct {
	mu          sync.RWMutex
	normalisers []Normaliser
}

// NewRegistry creates a new normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make([]Normaliser, 0),
	}
}

// DefaultRegistry registers the ELI JSON and plain text normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ELINormaliser{})
	r.Register(TextNormaliser{})
	return r
}

// Register registers a normaliser.
func (r *Registry) Register(normaliser Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, normaliser)
}

// Get retrieves the best-matching normaliser for a MIME type.
// Returns nil if no normaliser is registered for the type.
func (r *Registry) Get(mimeType string) Normaliser {
	matches := r.GetAll(mimeType)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// GetAll retrieves all normalisers that match a MIME type, sorted by priority (highest first).
func (r *Registry) GetAll(mimeType string) []Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Normaliser
	for _, n := range r.normalisers {
		if matchesMIMEType(n.SupportedTypes(), mimeType) {
			matches = append(matches, n)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches
}

// List returns all registered MIME types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, t := range n.SupportedTypes() {
			typeSet[t] = struct{}{}
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// matchesMIMEType checks if any of the supported types match the given MIME type.
// Supports wildcard matching (e.g., "text/*" matches "text/plain").
func matchesMIMEType(supportedTypes []string, mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" {
		return false
	}

	for _, supported := range supportedTypes {
		supported = strings.ToLower(strings.TrimSpace(supported))

		switch {
		case supported == mimeType, supported == "*/*":
			return true
		case strings.HasSuffix(supported, "/*"):
			if strings.HasPrefix(mimeType, supported[:len(supported)-1]) {
				return true
			}
		}
	}
	return false
}
