package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractTransaction sends the document image to chat/completions and decodes
// the JSON reply.
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
	rid := uuid.New().String()
	start := time.Now()
	log := c.log.With("req_id", rid, "doc_type", docType)

	log.Info("llm.extract.start",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"image_bytes", len(doc.Bytes),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.ExtractionSystemPrompt(docType)},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": llm.ExtractionUserPrompt(docType)},
				{"type": "image_url", "image_url": map[string]any{"url": llm.DataURL(doc)}},
			}},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		log.Error("llm.extract.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.Extraction{}, err
	}

	out, err := llm.DecodeExtraction(content, docType, log)
	if err != nil {
		return entity.Extraction{}, err
	}
	log.Info("llm.extract.ok",
		"units", out.TotalUnits(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Answer sends the inventory context and question as a text-only chat.
func (c *Client) Answer(ctx context.Context, req llm.AnswerRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.AnswerSystemPrompt},
			{"role": "user", "content": llm.AnswerUserPrompt(req)},
		},
	}
	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.answer.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	c.log.Info("llm.answer.ok", "req_id", rid, "answer_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

// complete posts a chat/completions request and returns the first choice.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}
	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty openai response")
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, truncate(buf.String(), 512))
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
