package constants

import "strings"

// DocumentType selects the extraction shape and schema for a document.
type DocumentType string

const (
	DocTransactionIncome  DocumentType = "TRANSACTION_INCOME"
	DocTransactionOutcome DocumentType = "TRANSACTION_OUTCOME"
	DocControlSheet       DocumentType = "CONTROL_SHEET"
)

// DocumentTypes lists every supported document type.
var DocumentTypes = []DocumentType{DocTransactionIncome, DocTransactionOutcome, DocControlSheet}

// IsTransaction reports whether the document carries a single transaction.
func (d DocumentType) IsTransaction() bool {
	return d == DocTransactionIncome || d == DocTransactionOutcome
}

// Valid reports whether d is one of the known document types.
func (d DocumentType) Valid() bool {
	for _, t := range DocumentTypes {
		if d == t {
			return true
		}
	}
	return false
}

// ParseDocumentType accepts the canonical names plus the short forms
// "income", "outcome" and "control".
func ParseDocumentType(s string) (DocumentType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transaction_income", "income", "in":
		return DocTransactionIncome, true
	case "transaction_outcome", "outcome", "out":
		return DocTransactionOutcome, true
	case "control_sheet", "control", "sheet":
		return DocControlSheet, true
	}
	return "", false
}

// AnalysisSource records which pipeline stage produced a result.
type AnalysisSource string

const (
	SourceQR     AnalysisSource = "qr"
	SourceOCR    AnalysisSource = "ocr"
	SourceRemote AnalysisSource = "remote"
)

// ItemType is the coarse product family of a line item.
type ItemType string

const (
	ItemTypeSheet  ItemType = "chapa"
	ItemTypeModule ItemType = "modulo"
	ItemTypeOther  ItemType = "otro"
)

// ParseItemType maps free text to a known item type.
func ParseItemType(s string) (ItemType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chapa", "chapas", "sheet":
		return ItemTypeSheet, true
	case "modulo", "módulo", "modulos", "módulos", "module":
		return ItemTypeModule, true
	case "otro", "other":
		return ItemTypeOther, true
	}
	return "", false
}

// TransactionType is the direction of an inventory movement.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionOutcome TransactionType = "OUTCOME"
)

// TransactionTypeFor maps a transaction document type to its movement direction.
func TransactionTypeFor(d DocumentType) TransactionType {
	if d == DocTransactionIncome {
		return TransactionIncome
	}
	return TransactionOutcome
}
