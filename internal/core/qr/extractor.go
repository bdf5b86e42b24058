package qr

import (
	"log/slog"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// Extractor runs decode and parse as one pipeline stage.
type Extractor struct {
	logger *slog.Logger
	decode func(entity.ProcessedDocument) (string, bool)
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger, decode: TryDecode}
}

// Extract never fails: an unreadable code or unusable payload is an empty stage.
func (x *Extractor) Extract(doc entity.ProcessedDocument, docType constants.DocumentType) entity.StageResult {
	raw, ok := x.decode(doc)
	if !ok {
		x.logger.Debug("qr.decode.none", "doc", doc.Name)
		return entity.StageResult{Status: entity.StageEmpty}
	}
	e, ok := Parse(raw, docType)
	if !ok {
		x.logger.Info("qr.parse.empty", "doc", doc.Name, "payload_len", len(raw))
		return entity.StageResult{Status: entity.StageEmpty}
	}
	x.logger.Info("qr.parse.ok", "doc", doc.Name, "doc_type", docType)
	return entity.StageOf(e, docType)
}
