package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/hash"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/ocr"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
	"github.com/joseph-ayodele/inventory-scanner/internal/normalize"
	"github.com/joseph-ayodele/inventory-scanner/internal/repository"
)

// QRStage reads a payload from a QR code on the document.
type QRStage interface {
	Extract(doc entity.ProcessedDocument, docType constants.DocumentType) entity.StageResult
}

// RemoteExtractor is the provider fallback chain as seen by the processor.
type RemoteExtractor interface {
	Available() bool
	Extract(ctx context.Context, doc entity.ProcessedDocument, docType constants.DocumentType) (entity.Extraction, error)
}

// Recorder receives one call per finished pipeline run.
type Recorder interface {
	ObservePipelineRun(docType constants.DocumentType, state constants.PipelineState, source constants.AnalysisSource, elapsed time.Duration)
}

// Request is one pipeline run.
type Request struct {
	Document    entity.ProcessedDocument
	DocType     constants.DocumentType
	AllowRemote bool
}

// Result is the committed outcome of a successful run.
type Result struct {
	Hash       entity.ContentHash
	DocType    constants.DocumentType
	Source     constants.AnalysisSource
	Extraction entity.Extraction
	FromCache  bool
	SavedAt    time.Time
	State      constants.PipelineState
	Trace      []constants.PipelineState
}

// Processor drives hash -> cache -> QR -> local OCR -> remote -> normalize ->
// cache write. Stages run strictly in sequence; each later stage only runs
// when the previous one came back empty.
type Processor struct {
	logger   *slog.Logger
	cache    repository.AnalysisCache
	qr       QRStage
	local    ocr.Analyzer
	remote   RemoteExtractor
	recorder Recorder
	now      func() time.Time
}

type ProcessorOption func(*Processor)

func WithRecorder(r Recorder) ProcessorOption {
	return func(p *Processor) { p.recorder = r }
}

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(
	logger *slog.Logger,
	cache repository.AnalysisCache,
	qr QRStage,
	local ocr.Analyzer,
	remote RemoteExtractor,
	opts ...ProcessorOption,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if local == nil {
		local = ocr.Disabled{}
	}
	p := &Processor{
		logger: logger,
		cache:  cache,
		qr:     qr,
		local:  local,
		remote: remote,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// run carries the per-invocation state through the stages.
type run struct {
	req   Request
	hash  entity.ContentHash
	start time.Time
	trace []constants.PipelineState
	log   *slog.Logger
}

func (r *run) enter(s constants.PipelineState) {
	r.trace = append(r.trace, s)
}

// Process executes one pipeline run. Failures never write the cache or the
// audit log; storage errors are returned unchanged (wrapped).
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	if !req.DocType.Valid() {
		return nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("unknown document type %q", req.DocType), common.ErrInvalidInput)
	}
	r := &run{req: req, start: time.Now()}
	r.enter(constants.StateReceived)

	r.hash = hash.Hash(req.Document.Bytes)
	r.enter(constants.StateHashed)
	r.log = p.logger.With("hash", string(r.hash), "doc_type", req.DocType, "doc", req.Document.Name)
	if id := common.BatchIDFromContext(ctx); id != "" {
		r.log = r.log.With("batch_id", id)
	}

	entry, err := p.cache.Get(ctx, r.hash, req.DocType)
	if err != nil {
		r.log.Error("processor.cache.get_failed", "error", err)
		return nil, p.fail(r, fmt.Errorf("cache get: %w", err))
	}
	if entry != nil {
		r.enter(constants.StateCacheHit)
		if err := p.audit(ctx, r, entry.Source); err != nil {
			return nil, p.fail(r, err)
		}
		r.log.Info("processor.cache.hit", "source", entry.Source)
		p.observe(r, constants.StateCacheHit, entry.Source)
		return &Result{
			Hash:       r.hash,
			DocType:    req.DocType,
			Source:     entry.Source,
			Extraction: entry.Payload,
			FromCache:  true,
			SavedAt:    entry.SavedAt,
			State:      constants.StateCacheHit,
			Trace:      r.trace,
		}, nil
	}
	r.enter(constants.StateCacheMiss)

	// 1) QR short-circuit
	qrRes := entity.NotAttempted()
	if p.qr != nil {
		qrRes = p.qr.Extract(req.Document, req.DocType)
	}
	if qrRes.Resolved() {
		r.enter(constants.StateQrResolved)
		return p.commit(ctx, r, constants.SourceQR, constants.StateQrResolved, qrRes.Extraction)
	}
	r.enter(constants.StateQrEmpty)
	r.log.Debug("processor.qr.empty", "stage", qrRes.Status.String())

	// 2) local OCR
	localRes, err := p.analyzeLocal(ctx, req)
	if err != nil {
		r.log.Error("processor.ocr.failed", "error", err)
		return nil, p.fail(r, fmt.Errorf("local ocr: %w", err))
	}
	if localRes.Resolved() {
		r.enter(constants.StateLocalNonEmpty)
		return p.commit(ctx, r, constants.SourceOCR, constants.StateLocalNonEmpty, localRes.Extraction)
	}
	r.enter(constants.StateLocalEmpty)

	// 3) remote fallback chain
	if reason := p.remoteSkipReason(req); reason != "" {
		r.enter(constants.StateRemoteSkipped)
		r.log.Warn("processor.remote.skipped", "reason", reason)
		return nil, p.fail(r, common.NewAppError("NO_DATA",
			"no data found by QR or local OCR and "+reason+"; enter the document manually",
			fmt.Errorf("%w: %w", common.ErrNoData, common.ErrRemoteUnavailable)))
	}
	extraction, err := p.remote.Extract(ctx, req.Document, req.DocType)
	if err != nil {
		r.enter(constants.StateRemoteFailed)
		r.log.Error("processor.remote.failed", "error", err)
		return nil, p.fail(r, common.NewAppError("REMOTE_FAILED",
			"no data found locally and every remote provider failed",
			fmt.Errorf("%w: %w", common.ErrNoData, err)))
	}
	extraction = normalize.Extraction(extraction, req.DocType)
	if extraction.IsEmpty(req.DocType) {
		r.enter(constants.StateRemoteFailed)
		r.log.Warn("processor.remote.empty")
		return nil, p.fail(r, common.NewAppError("NO_DATA",
			"remote extraction returned no valid rows; enter the document manually",
			fmt.Errorf("%w: %w", common.ErrNoData, common.ErrValidation)))
	}
	r.enter(constants.StateRemoteResolved)
	return p.commit(ctx, r, constants.SourceRemote, constants.StateRemoteResolved, extraction)
}

// analyzeLocal runs the OCR analyzer and classifies the normalized result,
// so rows dropped by validation never count as a local signal.
func (p *Processor) analyzeLocal(ctx context.Context, req Request) (entity.StageResult, error) {
	var raw entity.Extraction
	if req.DocType == constants.DocControlSheet {
		rows, err := p.local.AnalyzeControlSheet(ctx, req.Document)
		if err != nil {
			return entity.NotAttempted(), err
		}
		raw.Rows = rows
	} else {
		tx, err := p.local.AnalyzeTransaction(ctx, req.Document)
		if err != nil {
			return entity.NotAttempted(), err
		}
		raw.Transaction = &tx
	}
	return entity.StageOf(normalize.Extraction(raw, req.DocType), req.DocType), nil
}

func (p *Processor) remoteSkipReason(req Request) string {
	switch {
	case !req.AllowRemote:
		return "remote analysis was not authorized for this run"
	case p.remote == nil || !p.remote.Available():
		return "no remote provider is enabled and configured (set AI_PROVIDER_PREFERENCE and provider credentials)"
	}
	return ""
}

// commit normalizes once more (a no-op for already normalized input), then
// writes the cache entry and the audit record.
func (p *Processor) commit(ctx context.Context, r *run, source constants.AnalysisSource, state constants.PipelineState, e entity.Extraction) (*Result, error) {
	e = normalize.Extraction(e, r.req.DocType)
	now := p.now()
	entry := entity.CacheEntry{
		Hash:    r.hash,
		DocType: r.req.DocType,
		Source:  source,
		Payload: e,
		SavedAt: now,
	}
	if err := p.cache.Put(ctx, entry); err != nil {
		r.log.Error("processor.cache.put_failed", "error", err)
		return nil, p.fail(r, fmt.Errorf("cache put: %w", err))
	}
	if err := p.audit(ctx, r, source); err != nil {
		return nil, p.fail(r, err)
	}
	r.log.Info("processor.extract.ok",
		"source", source,
		"state", state,
		"units", e.TotalUnits(),
		"elapsed_ms", time.Since(r.start).Milliseconds(),
	)
	p.observe(r, state, source)
	return &Result{
		Hash:       r.hash,
		DocType:    r.req.DocType,
		Source:     source,
		Extraction: e,
		SavedAt:    now,
		State:      state,
		Trace:      r.trace,
	}, nil
}

func (p *Processor) audit(ctx context.Context, r *run, source constants.AnalysisSource) error {
	err := p.cache.AppendAudit(ctx, entity.AuditEntry{
		Hash:        r.hash,
		DocType:     r.req.DocType,
		Source:      source,
		SavedAt:     p.now(),
		SizeInBytes: len(r.req.Document.Bytes),
	})
	if err != nil {
		r.log.Error("processor.audit.failed", "error", err)
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (p *Processor) fail(r *run, err error) error {
	r.enter(constants.StateFailed)
	if r.log != nil {
		r.log.Info("processor.extract.failed", "trace", r.trace, "elapsed_ms", time.Since(r.start).Milliseconds())
	}
	p.observe(r, constants.StateFailed, "")
	return err
}

func (p *Processor) observe(r *run, state constants.PipelineState, source constants.AnalysisSource) {
	if p.recorder != nil {
		p.recorder.ObservePipelineRun(r.req.DocType, state, source, time.Since(r.start))
	}
}
