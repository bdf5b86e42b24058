// Package vertex implements the remote provider contract on Vertex AI.
package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

type Config struct {
	ProjectID   string
	Region      string
	Model       string // e.g., "gemini-1.5-flash-002"
	Temperature float32
}

// Client uses application default credentials for the configured project.
type Client struct {
	cfg Config
	log *slog.Logger

	mu     sync.Mutex
	client *genai.Client
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-002"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, log: logger.With("provider", constants.ProviderVertex)}
}

func (c *Client) Name() string { return constants.ProviderVertex }

func (c *Client) Configured() bool { return c.cfg.ProjectID != "" && c.cfg.Region != "" }

func (c *Client) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	client, err := genai.NewClient(ctx, c.cfg.ProjectID, c.cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
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
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](c.cfg.Temperature),
	}
	if jsonOut {
		model.GenerationConfig.ResponseMIMEType = "application/json"
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
		return entity.Extraction{}, fmt.Errorf("vertex generate: %w", err)
	}
	text, err := responseText(resp)
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
	model, err := c.model(ctx, llm.AnswerSystemPrompt, false)
	if err != nil {
		return "", err
	}
	resp, err := model.GenerateContent(ctx, genai.Text(llm.AnswerUserPrompt(req)))
	if err != nil {
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vertex: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("vertex: no text parts in response")
	}
	return b.String(), nil
}
