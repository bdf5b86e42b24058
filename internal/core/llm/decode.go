package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// DecodeExtraction validates a provider reply strictly, falls back to a
// lenient sanitize, and decodes the shape matching docType.
func DecodeExtraction(content string, docType constants.DocumentType, logger *slog.Logger) (entity.Extraction, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw := []byte(CleanJSONBlock(content))

	if err := ValidateExtraction(docType, raw); err != nil {
		cleaned, dropped, sErr := NormalizeAndSanitizeJSON(raw, docType, logger)
		if sErr != nil {
			logger.Error("llm.extract.sanitize_failed", "error", sErr, "content_len", len(raw))
			return entity.Extraction{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateExtraction(docType, cleaned); vErr != nil {
			logger.Error("llm.extract.schema_validation_failed", "error", vErr, "content", string(cleaned))
			return entity.Extraction{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		logger.Warn("llm.extract.lenient_sanitize_applied", "dropped", dropped)
		raw = cleaned
	}

	if docType == constants.DocControlSheet {
		var out struct {
			Rows []entity.ExtractedControlRow `json:"rows"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return entity.Extraction{}, fmt.Errorf("unmarshal rows: %w", err)
		}
		return entity.Extraction{Rows: out.Rows}, nil
	}
	var tx entity.ExtractedTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return entity.Extraction{}, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return entity.Extraction{Transaction: &tx}, nil
}
