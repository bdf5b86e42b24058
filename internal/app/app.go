// Package app wires configuration into the pipeline, the assistant and their
// collaborators. Both binaries build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/core"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm/gemini"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm/openai"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm/vertex"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/ocr"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/qr"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
	"github.com/joseph-ayodele/inventory-scanner/internal/export"
	"github.com/joseph-ayodele/inventory-scanner/internal/ingest"
	"github.com/joseph-ayodele/inventory-scanner/internal/metrics"
	"github.com/joseph-ayodele/inventory-scanner/internal/repository"
)

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Cache     repository.AnalysisCache
	Chain     *llm.Chain
	Processor *core.Processor
	Assistant *core.Assistant
	Ingestor  *ingest.FSIngestor
	Export    *export.Service
	Metrics   *metrics.Metrics

	closers []func() error
}

// New validates cfg, opens the cache backend and builds every component.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache, err := repository.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Cache:    cache,
		Ingestor: ingest.NewFSIngestor(logger),
		Export:   export.NewService(logger),
		Metrics:  metrics.New(),
		closers:  []func() error{cache.Close},
	}

	gem := gemini.NewClient(gemini.Config{
		APIKey:      cfg.LLM.GeminiAPIKey,
		Model:       cfg.LLM.GeminiModel,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	vtx := vertex.NewClient(vertex.Config{
		ProjectID:   cfg.LLM.VertexProjectID,
		Region:      cfg.LLM.VertexRegion,
		Model:       cfg.LLM.VertexModel,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	oai := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.OpenAIAPIKey,
		BaseURL:     cfg.LLM.OpenAIBaseURL,
		Model:       cfg.LLM.OpenAIModel,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	a.closers = append(a.closers, gem.Close, vtx.Close)

	a.Chain = llm.NewChain(
		llm.ParsePreference(cfg.LLM.Preference),
		[]llm.Provider{gem, oai, vtx},
		logger,
		llm.WithObserver(a.Metrics),
	)

	var analyzer ocr.Analyzer = ocr.Disabled{}
	if cfg.OCR.Enabled {
		analyzer = ocr.NewTesseract(ocr.Config{
			Binary:      cfg.OCR.Binary,
			Language:    cfg.OCR.Language,
			TessdataDir: cfg.OCR.TessdataDir,
			PSM:         6,
			Timeout:     cfg.OCR.Timeout,
		}, logger)
	}

	a.Processor = core.NewProcessor(logger, cache, qr.NewExtractor(logger), analyzer, a.Chain,
		core.WithRecorder(a.Metrics))
	a.Assistant = core.NewAssistant(logger, a.Chain, core.WithChatRecorder(a.Metrics))

	logger.Info("app.ready",
		"cache_backend", cfg.Cache.Backend,
		"providers", a.Chain.Names(),
		"remote_available", a.Chain.Available(),
		"ocr_enabled", cfg.OCR.Enabled,
	)
	return a, nil
}

// Close releases the cache backend and provider clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ScanPaths runs the pipeline over files and directories. Every matching
// file produces one record; a failed file never stops the batch.
func (a *App) ScanPaths(ctx context.Context, paths []string, docType constants.DocumentType, allowRemote bool) ([]export.ScanRecord, error) {
	if !docType.Valid() {
		return nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("unknown document type %q", docType), common.ErrInvalidInput)
	}
	batchID := uuid.New().String()
	ctx = common.WithBatchID(ctx, batchID)
	log := a.Logger.With("batch_id", batchID)

	var records []export.ScanRecord
	process := func(ctx context.Context, path string, doc entity.ProcessedDocument) {
		res, err := a.Processor.Process(ctx, core.Request{Document: doc, DocType: docType, AllowRemote: allowRemote})
		records = append(records, export.ScanRecord{Path: path, Result: res, Err: err})
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		info, err := os.Stat(p)
		if err != nil {
			records = append(records, export.ScanRecord{Path: p, Err: err})
			continue
		}
		if !info.IsDir() {
			doc, err := a.Ingestor.Preprocess(ctx, p)
			if err != nil {
				records = append(records, export.ScanRecord{Path: p, Err: err})
				continue
			}
			process(ctx, p, doc)
			continue
		}
		results, _, err := a.Ingestor.IngestDirectory(ctx, p, true, func(ctx context.Context, doc entity.ProcessedDocument) error {
			process(ctx, doc.Preview, doc)
			return nil
		})
		for _, r := range results {
			if r.Err != nil {
				records = append(records, export.ScanRecord{Path: r.Path, Err: r.Err})
			}
		}
		if err != nil {
			return records, err
		}
	}
	log.Info("app.scan.done", "records", len(records))
	return records, nil
}
