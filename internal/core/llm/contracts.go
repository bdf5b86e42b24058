// Package llm holds the remote provider contract and the ordered fallback
// chain that tries configured providers one after another.
package llm

import (
	"context"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// Turn is one message of a chat history.
type Turn struct {
	Role string `json:"role"` // "user" | "assistant"
	Text string `json:"text"`
}

// AnswerRequest carries a free-text question plus the inventory context the
// provider should answer from.
type AnswerRequest struct {
	Context  string
	Question string
	History  []Turn
}

// Provider is a remote extraction and question-answering capability.
// Configured reports whether credentials are present; unconfigured providers
// are never called by the chain.
type Provider interface {
	Name() string
	Configured() bool
	ExtractTransaction(ctx context.Context, doc entity.ProcessedDocument, docType constants.DocumentType) (entity.ExtractedTransaction, error)
	ExtractControlSheet(ctx context.Context, doc entity.ProcessedDocument) ([]entity.ExtractedControlRow, error)
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}
