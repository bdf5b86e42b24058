package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// DefaultMaxBytes caps the size of a single document.
const DefaultMaxBytes = 20 << 20

// FSIngestor reads documents from the local filesystem.
type FSIngestor struct {
	logger   *slog.Logger
	MaxBytes int64
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{logger: logger, MaxBytes: DefaultMaxBytes}
}

// Preprocess validates the extension and size of path and loads it.
func (i *FSIngestor) Preprocess(ctx context.Context, path string) (entity.ProcessedDocument, error) {
	var out entity.ProcessedDocument
	if err := ctx.Err(); err != nil {
		return out, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("ingest.unsupported_extension", "path", abs, "ext", ext)
		return out, common.NewAppError("UNSUPPORTED_FILE",
			fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrInvalidInput)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return out, common.NewAppError("UNSUPPORTED_FILE", abs+" is a directory", common.ErrInvalidInput)
	}
	if i.MaxBytes > 0 && info.Size() > i.MaxBytes {
		return out, common.NewAppError("FILE_TOO_LARGE",
			fmt.Sprintf("%s is %d bytes, limit is %d", abs, info.Size(), i.MaxBytes), common.ErrInvalidInput)
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	if len(b) == 0 {
		return out, common.NewAppError("EMPTY_FILE", abs+" is empty", common.ErrInvalidInput)
	}

	i.logger.Debug("ingest.loaded", "path", abs, "size_bytes", len(b))
	return entity.ProcessedDocument{
		Bytes:    b,
		MimeType: constants.MimeTypes[ext],
		Preview:  abs,
		Name:     filepath.Base(abs),
	}, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and hands
// every matching file to handle. Per-file failures are collected, not fatal.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
	handle Handler,
) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowedPath(path) {
			return nil
		}
		stats.Matched++

		err := i.ingestOne(ctx, path, handle)
		results = append(results, FileResult{Path: path, Err: err})
		if err != nil {
			i.logger.Warn("ingest.file.failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		return nil
	})

	i.logger.Info("ingest.directory.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

func (i *FSIngestor) ingestOne(ctx context.Context, path string, handle Handler) error {
	doc, err := i.Preprocess(ctx, path)
	if err != nil {
		return err
	}
	if handle == nil {
		return nil
	}
	return handle(ctx, doc)
}
