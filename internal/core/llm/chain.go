package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/common"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

// ProviderAttemptError is the failure of a single provider call.
type ProviderAttemptError struct {
	Provider string
	Err      error
}

func (e *ProviderAttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderAttemptError) Unwrap() error { return e.Err }

// ChainError is returned when every configured provider failed. Attempts are
// kept in the order they were made.
type ChainError struct {
	Op       string
	Attempts []*ProviderAttemptError
}

func (e *ChainError) Error() string {
	msgs := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		msgs[i] = a.Error()
	}
	return fmt.Sprintf("all providers failed to %s: %s", e.Op, strings.Join(msgs, "; "))
}

func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}

// Observer receives one call per provider attempt.
type Observer interface {
	ObserveProviderAttempt(provider, op string, elapsed time.Duration, err error)
}

// Chain tries the configured providers strictly in preference order.
type Chain struct {
	pref      Preference
	providers []Provider
	observer  Observer
	logger    *slog.Logger

	mu             sync.Mutex
	lastSuccessful string
}

type ChainOption func(*Chain)

func WithObserver(o Observer) ChainOption {
	return func(c *Chain) { c.observer = o }
}

// NewChain keeps, in preference order, the providers that are both listed
// and configured. Providers named in the list but missing from providers are
// ignored.
func NewChain(pref Preference, providers []Provider, logger *slog.Logger, opts ...ChainOption) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p != nil {
			byName[strings.ToLower(p.Name())] = p
		}
	}
	c := &Chain{pref: pref, logger: logger}
	if !pref.Disabled {
		for _, name := range pref.Order {
			p, ok := byName[name]
			if !ok {
				logger.Warn("llm.chain.unknown_provider", "provider", name)
				continue
			}
			if !p.Configured() {
				logger.Info("llm.chain.provider_unconfigured", "provider", name)
				continue
			}
			c.providers = append(c.providers, p)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	logger.Info("llm.chain.ready", "preference", pref.String(), "configured", c.Names())
	return c
}

// Available reports whether at least one remote attempt can be made.
func (c *Chain) Available() bool {
	return c != nil && !c.pref.Disabled && len(c.providers) > 0
}

// Names lists the configured providers in attempt order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// LastSuccessful is the provider that answered most recently. It is kept
// for telemetry and does not affect ordering.
func (c *Chain) LastSuccessful() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSuccessful
}

func (c *Chain) unavailable() error {
	if c != nil && c.pref.Disabled {
		return common.NewAppError("REMOTE_UNAVAILABLE", "remote providers are disabled by AI_PROVIDER_PREFERENCE", common.ErrRemoteUnavailable)
	}
	return common.NewAppError("REMOTE_UNAVAILABLE", "no remote provider has credentials configured", common.ErrRemoteUnavailable)
}

// Extract asks each provider in turn for the document payload.
func (c *Chain) Extract(ctx context.Context, doc entity.ProcessedDocument, docType constants.DocumentType) (entity.Extraction, error) {
	var out entity.Extraction
	err := c.run(ctx, "extract", func(ctx context.Context, p Provider) error {
		if docType == constants.DocControlSheet {
			rows, err := p.ExtractControlSheet(ctx, doc)
			if err != nil {
				return err
			}
			out = entity.Extraction{Rows: rows}
			return nil
		}
		tx, err := p.ExtractTransaction(ctx, doc, docType)
		if err != nil {
			return err
		}
		out = entity.Extraction{Transaction: &tx}
		return nil
	})
	return out, err
}

// Answer asks each provider in turn to answer a free-text question.
func (c *Chain) Answer(ctx context.Context, req AnswerRequest) (string, error) {
	var out string
	err := c.run(ctx, "answer", func(ctx context.Context, p Provider) error {
		text, err := p.Answer(ctx, req)
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

func (c *Chain) run(ctx context.Context, op string, call func(context.Context, Provider) error) error {
	if !c.Available() {
		return c.unavailable()
	}
	attempts := make([]*ProviderAttemptError, 0, len(c.providers))
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := call(ctx, p)
		elapsed := time.Since(start)
		if c.observer != nil {
			c.observer.ObserveProviderAttempt(p.Name(), op, elapsed, err)
		}
		if err == nil {
			c.mu.Lock()
			c.lastSuccessful = p.Name()
			c.mu.Unlock()
			c.logger.Info("llm.chain.ok", "op", op, "provider", p.Name(), "attempt", len(attempts)+1, "elapsed_ms", elapsed.Milliseconds())
			return nil
		}
		c.logger.Warn("llm.chain.attempt_failed", "op", op, "provider", p.Name(), "error", err, "elapsed_ms", elapsed.Milliseconds())
		attempts = append(attempts, &ProviderAttemptError{Provider: p.Name(), Err: err})
	}
	c.logger.Error("llm.chain.exhausted", "op", op, "attempts", len(attempts))
	return &ChainError{Op: op, Attempts: attempts}
}
