package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// Analyzer is the best-effort offline extractor. Empty results mean "no local
// signal"; errors are reserved for hard I/O failures.
type Analyzer interface {
	AnalyzeTransaction(ctx context.Context, doc entity.ProcessedDocument) (entity.ExtractedTransaction, error)
	AnalyzeControlSheet(ctx context.Context, doc entity.ProcessedDocument) ([]entity.ExtractedControlRow, error)
}

// Disabled is an Analyzer that never finds anything.
type Disabled struct{}

func (Disabled) AnalyzeTransaction(context.Context, entity.ProcessedDocument) (entity.ExtractedTransaction, error) {
	return entity.ExtractedTransaction{}, nil
}

func (Disabled) AnalyzeControlSheet(context.Context, entity.ProcessedDocument) ([]entity.ExtractedControlRow, error) {
	return nil, nil
}

type Config struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Language    string // default "spa"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	TempDir     string
	Timeout     time.Duration
}

// Tesseract runs the tesseract CLI over the document image.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "spa"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}, logger: logger}
}

func (t *Tesseract) AnalyzeTransaction(ctx context.Context, doc entity.ProcessedDocument) (entity.ExtractedTransaction, error) {
	text, err := t.text(ctx, doc)
	if err != nil || text == "" {
		return entity.ExtractedTransaction{}, err
	}
	tx := ParseTransactionText(text)
	t.logger.Info("ocr.transaction.parsed", "doc", doc.Name, "items", len(tx.Items))
	return tx, nil
}

func (t *Tesseract) AnalyzeControlSheet(ctx context.Context, doc entity.ProcessedDocument) ([]entity.ExtractedControlRow, error) {
	text, err := t.text(ctx, doc)
	if err != nil || text == "" {
		return nil, err
	}
	rows := ParseControlSheetText(text)
	t.logger.Info("ocr.control_sheet.parsed", "doc", doc.Name, "rows", len(rows))
	return rows, nil
}

// text writes the document to a temp file and returns tesseract's output.
// A missing binary or a failed recognition yields "" without error.
func (t *Tesseract) text(ctx context.Context, doc entity.ProcessedDocument) (string, error) {
	if len(doc.Bytes) == 0 {
		return "", nil
	}
	f, err := os.CreateTemp(t.cfg.TempDir, "scan-*"+extFor(doc))
	if err != nil {
		return "", fmt.Errorf("ocr temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(doc.Bytes); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("ocr write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("ocr close temp file: %w", err)
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", t.cfg.Language}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, _, err := t.runner.Run(ctx, t.cfg.Binary, t.logger, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			t.logger.Warn("ocr.tesseract.missing", "binary", t.cfg.Binary)
			return "", nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", ctxErr
		}
		t.logger.Warn("ocr.tesseract.failed", "doc", doc.Name, "error", err)
		return "", nil
	}
	return Normalize(string(out)), nil
}

func extFor(doc entity.ProcessedDocument) string {
	if ext := filepath.Ext(doc.Name); ext != "" {
		return ext
	}
	switch doc.MimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
