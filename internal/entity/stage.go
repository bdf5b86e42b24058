package entity

import "github.com/joseph-ayodele/inventory-scanner/constants"

// StageStatus separates "not attempted" from "attempted and found nothing".
type StageStatus int

const (
	StageNotAttempted StageStatus = iota
	StageEmpty
	StageNonEmpty
)

func (s StageStatus) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageNonEmpty:
		return "non_empty"
	default:
		return "not_attempted"
	}
}

// StageResult is the outcome of one extraction stage.
type StageResult struct {
	Status     StageStatus
	Extraction Extraction
}

// NotAttempted is the result of a stage that did not run.
func NotAttempted() StageResult {
	return StageResult{Status: StageNotAttempted}
}

// StageOf classifies e with the emptiness rule of docType.
func StageOf(e Extraction, docType constants.DocumentType) StageResult {
	if e.IsEmpty(docType) {
		return StageResult{Status: StageEmpty}
	}
	return StageResult{Status: StageNonEmpty, Extraction: e}
}

// Resolved reports whether the stage produced a usable extraction.
func (r StageResult) Resolved() bool {
	return r.Status == StageNonEmpty
}
