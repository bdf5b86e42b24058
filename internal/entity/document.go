package entity

import (
	"time"

	"github.com/joseph-ayodele/inventory-scanner/constants"
)

// ContentHash is the hex SHA-256 digest of a processed document's bytes.
type ContentHash string

// ProcessedDocument is the output of preprocessing, owned by one pipeline run.
type ProcessedDocument struct {
	Bytes    []byte `json:"-"`
	MimeType string `json:"mime_type"`
	// Preview references a human-viewable rendering (usually the source path).
	Preview string `json:"preview"`
	Name    string `json:"name"`
}

// LineItem is one product line of a transaction document.
type LineItem struct {
	ItemName string             `json:"itemName"`
	Quantity int                `json:"quantity"`
	ItemType constants.ItemType `json:"itemType"`
}

// ExtractedTransaction is a delivery note or receipt reduced to its items.
type ExtractedTransaction struct {
	Destination string     `json:"destination,omitempty"`
	Items       []LineItem `json:"items"`
}

// ExtractedControlRow is one row of a control sheet.
type ExtractedControlRow struct {
	DeliveryDate string `json:"deliveryDate"`
	Destination  string `json:"destination,omitempty"`
	Model        string `json:"model"`
	Quantity     int    `json:"quantity"`
}

// Extraction holds the payload of any document type. Exactly one of
// Transaction or Rows is meaningful, depending on the document type.
type Extraction struct {
	Transaction *ExtractedTransaction `json:"transaction,omitempty"`
	Rows        []ExtractedControlRow `json:"rows,omitempty"`
}

// IsEmpty applies the per-document-type emptiness rule.
func (e Extraction) IsEmpty(docType constants.DocumentType) bool {
	if docType == constants.DocControlSheet {
		return len(e.Rows) == 0
	}
	return e.Transaction == nil || len(e.Transaction.Items) == 0
}

// TotalUnits sums the quantities of the payload.
func (e Extraction) TotalUnits() int {
	total := 0
	if e.Transaction != nil {
		for _, it := range e.Transaction.Items {
			total += it.Quantity
		}
	}
	for _, r := range e.Rows {
		total += r.Quantity
	}
	return total
}

// CacheEntry is a committed extraction keyed by (Hash, DocType).
type CacheEntry struct {
	Hash    ContentHash              `json:"hash"`
	DocType constants.DocumentType   `json:"docType"`
	Source  constants.AnalysisSource `json:"source"`
	Payload Extraction               `json:"payload"`
	SavedAt time.Time                `json:"savedAt"`
}

// AuditEntry is appended once per successful pipeline run, hit or miss.
type AuditEntry struct {
	Hash        ContentHash              `json:"hash"`
	DocType     constants.DocumentType   `json:"docType"`
	Source      constants.AnalysisSource `json:"source"`
	SavedAt     time.Time                `json:"savedAt"`
	SizeInBytes int                      `json:"sizeInBytes"`
}
