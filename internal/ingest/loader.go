package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

// DefaultBatchSize is the number of documents handed to the sink at once
const DefaultBatchSize = 50

// documentNamespace seeds the name-based IDs of imported documents
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://lexsearch/documents"))

// DocumentID derives a stable document ID from the import-relative path, so
// re-importing a file updates the same record.
func DocumentID(relPath string) string {
	return uuid.NewSHA1(documentNamespace, []byte(filepath.ToSlash(relPath))).String()
}

// BatchFunc receives each batch of normalised documents
type BatchFunc func(ctx context.Context, docs []*domain.Document) error

// Report summarizes an import
type Report struct {
	Files    int
	Imported int
	Skipped  int
	// Failures maps the relative path of every skipped file to its error
	Failures map[string]error
}

// Config configures a Loader
type Config struct {
	Registry  *Registry
	Pipeline  *Pipeline
	BatchSize int
	Logger    *slog.Logger
}

// Loader walks a directory tree and turns every supported file into a pending document
type Loader struct {
	registry  *Registry
	pipeline  *Pipeline
	batchSize int
	logger    *slog.Logger
}

// NewLoader creates a loader, defaulting every unset field.
func NewLoader(cfg Config) *Loader {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Pipeline == nil {
		cfg.Pipeline = DefaultPipeline()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loader{
		registry:  cfg.Registry,
		pipeline:  cfg.Pipeline,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger.With("component", "ingest"),
	}
}

// Load walks dir in lexical order and calls sink for every batch. Files that
// cannot be parsed are logged, counted and skipped; a sink error aborts the walk.
func (l *Loader) Load(ctx context.Context, dir string, sink BatchFunc) (*Report, error) {
	files, err := l.findFiles(dir)
	if err != nil {
		return nil, err
	}

	report := &Report{Files: len(files), Failures: make(map[string]error)}
	batch := make([]*domain.Document, 0, l.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink(ctx, batch); err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		report.Imported += len(batch)
		l.logger.Info("imported batch", "documents", len(batch), "imported", report.Imported, "files", report.Files)
		batch = make([]*domain.Document, 0, l.batchSize)
		return nil
	}

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		doc, err := l.loadFile(dir, rel)
		if err != nil {
			l.logger.Warn("skipping file", "path", rel, "error", err)
			report.Skipped++
			report.Failures[rel] = err
			continue
		}
		batch = append(batch, doc)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}
	return report, nil
}

// LoadLaws reads every supported file under dir with the default loader.
func LoadLaws(ctx context.Context, dir string) ([]*domain.Document, error) {
	var docs []*domain.Document
	_, err := NewLoader(Config{}).Load(ctx, dir, func(_ context.Context, batch []*domain.Document) error {
		docs = append(docs, batch...)
		return nil
	})
	return docs, err
}

func (l *Loader) loadFile(root, rel string) (*domain.Document, error) {
	mimeType := mime.TypeByExtension(path.Ext(rel))
	normaliser := l.registry.Get(mimeType)
	if normaliser == nil {
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidInput, path.Ext(rel))
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}

	doc, err := normaliser.Normalise(Source{Path: rel, MIMEType: mimeType, Data: data})
	if err != nil {
		return nil, err
	}
	out := domain.NewDocument(doc.Title, l.pipeline.Process(doc.Content), doc.Metadata)
	out.ID = DocumentID(rel)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// findFiles lists supported files below dir as sorted slash-separated relative paths
func (l *Loader) findFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, domain.NewValidationError("dir", dir+" is not a directory")
	}

	var files []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if l.registry.Get(mime.TypeByExtension(filepath.Ext(p))) == nil {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
