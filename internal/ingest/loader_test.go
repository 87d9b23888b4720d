package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func quietLoader(batchSize int) *Loader {
	return NewLoader(Config{
		BatchSize: batchSize,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestLoader_Load(t *testing.T) {
	root := writeTree(t, map[string]string{
		"de/bund/mietrrg.json": eliSample,
		"de/bund/broken.json":  "{",
		"at/abgb.txt":          "ABGB\n§ 1 Bürgerliches Recht",
		"at/scan.pdf":          "%PDF",
		".git/config.json":     `{"data":{"attributes":{"text":"x"}}}`,
	})

	var batches [][]*domain.Document
	report, err := quietLoader(1).Load(context.Background(), root, func(ctx context.Context, docs []*domain.Document) error {
		batches = append(batches, docs)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Files)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Contains(t, report.Failures, "de/bund/broken.json")
	require.Len(t, batches, 2)

	// Lexical order: at/ before de/
	first := batches[0][0]
	assert.Equal(t, "ABGB", first.Title)
	assert.Equal(t, DocumentID("at/abgb.txt"), first.ID)
	assert.Equal(t, domain.DocumentStatusPending, first.Status)
	assert.Equal(t, "/de/bund/mietrrg.json", batches[1][0].Metadata[MetaPath])
}

func TestLoader_StableIDs(t *testing.T) {
	assert.Equal(t, DocumentID("de/a.json"), DocumentID("de/a.json"))
	assert.NotEqual(t, DocumentID("de/a.json"), DocumentID("de/b.json"))
}

func TestLoader_SinkErrorAborts(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "A\nbody",
		"b.txt": "B\nbody",
	})
	boom := errors.New("db down")

	calls := 0
	report, err := quietLoader(1).Load(context.Background(), root, func(ctx context.Context, docs []*domain.Document) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, report.Imported)
}

func TestLoader_NotADirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "A\nbody"})

	_, err := quietLoader(0).Load(context.Background(), filepath.Join(root, "a.txt"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoader_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "A\nbody"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietLoader(0).Load(ctx, root, func(ctx context.Context, docs []*domain.Document) error {
		t.Fatal("sink must not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadLaws(t *testing.T) {
	root := writeTree(t, map[string]string{"de/mietrrg.json": eliSample})

	docs, err := LoadLaws(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Mietrechtsreformgesetz", docs[0].Title)
}
