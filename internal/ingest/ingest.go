// Package ingest turns files on disk into documents for the extraction
// pipeline: single files, directory walks and a watched inbox.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// FileResult is the per-file outcome of a directory ingest.
type FileResult struct {
	Path string
	Err  error
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Handler consumes one preprocessed document.
type Handler func(ctx context.Context, doc entity.ProcessedDocument) error

// Preprocessor is the behavior the pipeline depends on.
type Preprocessor interface {
	// Preprocess reads path and returns the document ready for hashing.
	Preprocess(ctx context.Context, path string) (entity.ProcessedDocument, error)
}
