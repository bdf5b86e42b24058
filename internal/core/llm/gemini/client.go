// Package gemini implements the remote provider contract on the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

type Config struct {
	APIKey      string
	Model       string // e.g., "gemini-1.5-flash"
	Temperature float32
}

// Client creates the underlying genai client on first use, so an
// unconfigured provider never opens a connection.
type Client struct {
	cfg Config
	log *slog.Logger

	mu     sync.Mutex
	client *genai.Client
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, log: logger.With("provider", constants.ProviderGemini)}
}

func (c *Client) Name() string { return constants.ProviderGemini }

func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

func (c *Client) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

func (c *Client) model(ctx context.Context, system string, jsonOut bool) (*genai.GenerativeModel, error) {
	client, err := c.genaiClient(ctx)
	if err != nil {
		return nil, err
	}
	model := client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(c.cfg.Temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	if jsonOut {
		model.ResponseMIMEType = "application/json"
	}
	return model, nil
}

func (c *Client) ExtractTransaction(ctx context.Context, doc entity.ProcessedDocument, docType constants.DocumentType) (entity.ExtractedTransaction, error) {
	e, err := c.extract(ctx, doc, docType)
	if err != nil {
		return entity.ExtractedTransaction{}, err
	}
	return *e.Transaction, nil
}

func (c *Client) ExtractControlSheet(ctx context.Context, doc entity.ProcessedDocument) ([]entity.ExtractedControlRow, error) {
	e, err := c.extract(ctx, doc, constants.DocControlSheet)
	if err != nil {
		return nil, err
	}
	return e.Rows, nil
}

func (c *Client) extract(ctx context.Context, doc entity.ProcessedDocument, docType constants.DocumentType) (entity.Extraction, error) {
	log := c.log.With("req_id", uuid.New().String(), "doc_type", docType)
	start := time.Now()
	log.Info("llm.extract.start", "model", c.cfg.Model, "image_bytes", len(doc.Bytes))

	model, err := c.model(ctx, llm.ExtractionSystemPrompt(docType), true)
	if err != nil {
		return entity.Extraction{}, err
	}
	resp, err := model.GenerateContent(ctx,
		genai.ImageData(llm.ImageFormat(doc), doc.Bytes),
		genai.Text(llm.ExtractionUserPrompt(docType)),
	)
	if err != nil {
		log.Error("llm.extract.generate_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.Extraction{}, fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return entity.Extraction{}, err
	}
	out, err := llm.DecodeExtraction(text, docType, log)
	if err != nil {
		return entity.Extraction{}, err
	}
	log.Info("llm.extract.ok", "units", out.TotalUnits(), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (c *Client) Answer(ctx context.Context, req llm.AnswerRequest) (string, error) {
	start := time.Now()
	model, err := c.model(ctx, llm.AnswerSystemPrompt, false)
	if err != nil {
		return "", err
	}
	resp, err := model.GenerateContent(ctx, genai.Text(llm.AnswerUserPrompt(req)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	c.log.Info("llm.answer.ok", "answer_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(text), nil
}

// Close releases resources held by the client
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
