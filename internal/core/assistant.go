package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/resolver"
)

type Route string

const (
	RouteLocal  Route = "local"
	RouteRemote Route = "remote"
)

// summaryRows bounds the movements listed in the remote context.
const summaryRows = 20

// Answerer is the remote side of the chat flow.
type Answerer interface {
	Available() bool
	Answer(ctx context.Context, req llm.AnswerRequest) (string, error)
	LastSuccessful() string
}

// ChatRecorder receives one call per answered question.
type ChatRecorder interface {
	ObserveChat(route string, elapsed time.Duration, err error)
}

// Reply is the assistant's answer to one question.
type Reply struct {
	Route    Route
	Text     string
	Provider string           // set for remote replies
	Local    *resolver.Answer // set for local replies
}

// Assistant answers inventory questions from the snapshot when it can and
// falls back to the provider chain otherwise.
type Assistant struct {
	logger   *slog.Logger
	remote   Answerer
	recorder ChatRecorder
}

type AssistantOption func(*Assistant)

func WithChatRecorder(r ChatRecorder) AssistantOption {
	return func(a *Assistant) { a.recorder = r }
}

func NewAssistant(logger *slog.Logger, remote Answerer, opts ...AssistantOption) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assistant{logger: logger, remote: remote}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Ask resolves question against snap. A nil snapshot skips local resolution.
func (a *Assistant) Ask(ctx context.Context, snap *resolver.Snapshot, question string, history []llm.Turn) (Reply, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" {
		return Reply{}, common.NewAppError("INVALID_INPUT", "question is empty", common.ErrInvalidInput)
	}

	if snap != nil {
		if ans, ok := snap.Resolve(question); ok {
			a.logger.Info("assistant.local.answer", "kind", ans.Kind, "elapsed_ms", time.Since(start).Milliseconds())
			a.observe(RouteLocal, start, nil)
			return Reply{Route: RouteLocal, Text: ans.Text, Local: &ans}, nil
		}
	}

	if a.remote == nil || !a.remote.Available() {
		err := common.NewAppError("REMOTE_UNAVAILABLE",
			"question needs a remote provider but none is configured", common.ErrRemoteUnavailable)
		a.observe(RouteRemote, start, err)
		return Reply{}, err
	}

	var summary string
	if snap != nil {
		summary = snap.Summary(summaryRows)
	}
	text, err := a.remote.Answer(ctx, llm.AnswerRequest{
		Context:  summary,
		Question: question,
		History:  history,
	})
	if err != nil {
		a.logger.Error("assistant.remote.failed", "error", err)
		a.observe(RouteRemote, start, err)
		return Reply{}, fmt.Errorf("remote answer: %w", err)
	}
	provider := a.remote.LastSuccessful()
	a.logger.Info("assistant.remote.answer", "provider", provider, "elapsed_ms", time.Since(start).Milliseconds())
	a.observe(RouteRemote, start, nil)
	return Reply{Route: RouteRemote, Text: strings.TrimSpace(text), Provider: provider}, nil
}

func (a *Assistant) observe(route Route, start time.Time, err error) {
	if a.recorder != nil {
		a.recorder.ObserveChat(string(route), time.Since(start), err)
	}
}
