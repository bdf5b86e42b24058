package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPreprocess(t *testing.T) {
	dir := t.TempDir()
	ing := NewFSIngestor(nil)

	png := filepath.Join(dir, "Remito.PNG")
	writeFile(t, png, "fake-png")
	doc, err := ing.Preprocess(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), doc.Bytes)
	assert.Equal(t, "image/png", doc.MimeType)
	assert.Equal(t, "Remito.PNG", doc.Name)
	assert.Equal(t, png, doc.Preview)

	pdf := filepath.Join(dir, "report.pdf")
	writeFile(t, pdf, "%PDF")
	_, err = ing.Preprocess(context.Background(), pdf)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	empty := filepath.Join(dir, "empty.jpg")
	writeFile(t, empty, "")
	_, err = ing.Preprocess(context.Background(), empty)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	ing.MaxBytes = 3
	_, err = ing.Preprocess(context.Background(), png)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = ing.Preprocess(context.Background(), filepath.Join(dir, "missing.jpg"))
	assert.Error(t, err)
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), "a")
	writeFile(t, filepath.Join(root, "sub", "b.webp"), "b")
	writeFile(t, filepath.Join(root, "sub", "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, ".hidden", "c.png"), "c")
	writeFile(t, filepath.Join(root, "bad.png"), "bad")

	var seen []string
	handle := func(_ context.Context, doc entity.ProcessedDocument) error {
		if doc.Name == "bad.png" {
			return errors.New("pipeline failed")
		}
		seen = append(seen, doc.Name)
		return nil
	}

	results, stats, err := NewFSIngestor(nil).IngestDirectory(context.Background(), root, true, handle)
	require.NoError(t, err)
	sort.Strings(seen)
	assert.Equal(t, []string{"a.jpg", "b.webp"}, seen)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.Len(t, results, 3)

	_, _, err = NewFSIngestor(nil).IngestDirectory(context.Background(), " ", true, handle)
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/tmp/.git"))
	assert.False(t, IsHidden("/tmp/a.jpg"))
	assert.False(t, IsHidden("."))
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.jpg"), "x")
	writeFile(t, filepath.Join(root, "ignored.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	assert.Equal(t, filepath.Join(root, "existing.jpg"), next())

	created := filepath.Join(root, "new.png")
	writeFile(t, created, "y")
	assert.Equal(t, created, next())

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
