package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DocumentStatus is the indexing lifecycle state of a document
type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusIndexed DocumentStatus = "indexed"
	DocumentStatusFailed  DocumentStatus = "failed"
	DocumentStatusSkipped DocumentStatus = "skipped"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusIndexed, DocumentStatusFailed, DocumentStatusSkipped:
		return true
	}
	return false
}

// NeedsIndexing reports whether an incremental run should pick the document up.
func (s DocumentStatus) NeedsIndexing() bool {
	return s == DocumentStatusPending || s == DocumentStatusFailed
}

// Projection field names shared by every index
const (
	FieldID        = "id"
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldHash      = "_hash"
	FieldUpdatedAt = "updatedAt"
	FieldPath      = "path"
	FieldLanguage  = "language"
)

// Document is the canonical unit of retrievable content held by the system of record
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	Status      DocumentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	LastIndexed *time.Time     `json:"last_indexed,omitempty"`
}

// NewDocument creates a pending document ready to be persisted.
func NewDocument(title, content string, metadata map[string]any) *Document {
	now := time.Now().UTC()
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Document{
		ID:        GenerateID(),
		Title:     title,
		Content:   content,
		Metadata:  metadata,
		Status:    DocumentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the payload accepted from ingestion or edits.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return NewValidationError("title", "must not be empty")
	}
	if strings.TrimSpace(d.Content) == "" {
		return NewValidationError("content", "must not be empty")
	}
	if d.Status != "" && !d.Status.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", d.Status))
	}
	return nil
}

// Edit replaces the editable payload and resets the document to pending.
func (d *Document) Edit(title, content string, metadata map[string]any) {
	d.Title = title
	d.Content = content
	if metadata != nil {
		d.Metadata = metadata
	}
	d.Status = DocumentStatusPending
	d.UpdatedAt = time.Now().UTC()
}

// Hash derives a fingerprint of the indexable state of the document.
// Any change to title, content, metadata or updatedAt yields a different hash.
func (d *Document) Hash() string {
	payload := struct {
		Title     string         `json:"title"`
		Content   string         `json:"content"`
		Metadata  map[string]any `json:"metadata"`
		UpdatedAt string         `json:"updatedAt"`
	}{
		Title:     d.Title,
		Content:   d.Content,
		Metadata:  d.Metadata,
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	// json.Marshal sorts map keys, which keeps the hash deterministic.
	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte(fmt.Sprintf("%s\x00%s\x00%v\x00%s", payload.Title, payload.Content, payload.Metadata, payload.UpdatedAt))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Project flattens the document into the record evaluated by index filters.
func (d *Document) Project() *Projection {
	fields := make(map[string]any)
	flattenInto(fields, "", d.Metadata)
	return &Projection{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Hash:      d.Hash(),
		UpdatedAt: d.UpdatedAt,
		Metadata:  fields,
	}
}

// Projection is the denormalized, index-ready view of a document.
// Core fields always take precedence over metadata keys of the same name.
type Projection struct {
	ID        string
	Title     string
	Content   string
	Hash      string
	UpdatedAt time.Time
	Metadata  map[string]any
}

// Field returns the string form of a projection field.
func (p *Projection) Field(name string) (string, bool) {
	switch name {
	case FieldID:
		return p.ID, true
	case FieldTitle:
		return p.Title, true
	case FieldContent:
		return p.Content, true
	case FieldHash:
		return p.Hash, true
	case FieldUpdatedAt:
		return p.UpdatedAt.UTC().Format(time.RFC3339Nano), true
	}
	v, ok := p.Metadata[name]
	if !ok || v == nil {
		return "", false
	}
	return stringify(v), true
}

// Record renders the projection as the document written to a search index.
func (p *Projection) Record() IndexRecord {
	rec := make(IndexRecord, len(p.Metadata)+5)
	for k, v := range p.Metadata {
		rec[k] = v
	}
	rec[FieldID] = p.ID
	rec[FieldTitle] = p.Title
	rec[FieldContent] = p.Content
	rec[FieldHash] = p.Hash
	rec[FieldUpdatedAt] = p.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return rec
}

// IndexRecord is a flat document as stored by the search engine, keyed by field name
type IndexRecord map[string]any

// ID returns the primary key of the record.
func (r IndexRecord) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// SortedKeys returns the record field names in a stable order.
func (r IndexRecord) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flattenInto(dst map[string]any, prefix string, src map[string]any) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(dst, key, nested)
			continue
		}
		dst[key] = v
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
