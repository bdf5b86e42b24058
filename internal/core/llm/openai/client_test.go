package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/inventory-scanner/constants"
	"github.com/joseph-ayodele/inventory-scanner/internal/core/llm"
	"github.com/joseph-ayodele/inventory-scanner/internal/entity"
)

func chatServer(t *testing.T, status int, content string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestClient_Configured(t *testing.T) {
	assert.False(t, NewClient(Config{}, nil).Configured())
	assert.True(t, NewClient(Config{APIKey: "k"}, nil).Configured())
	assert.Equal(t, constants.ProviderOpenAI, NewClient(Config{}, nil).Name())
}

func TestClient_ExtractTransaction(t *testing.T) {
	srv, got := chatServer(t, http.StatusOK, "```json\n{\"destination\":\"obra\",\"items\":[{\"itemName\":\"Chapa JC 250\",\"quantity\":\"5\"}]}\n```")
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

	tx, err := c.ExtractTransaction(context.Background(), entity.ProcessedDocument{Bytes: []byte{0xff, 0xd8}, MimeType: "image/jpeg"}, constants.DocTransactionOutcome)
	require.NoError(t, err)
	require.Len(t, tx.Items, 1)
	assert.Equal(t, "Chapa JC 250", tx.Items[0].ItemName)
	assert.Equal(t, 5, tx.Items[0].Quantity)
	assert.Equal(t, "json_object", (*got)["response_format"].(map[string]any)["type"])
}

func TestClient_ExtractControlSheet(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, `[{"fecha":"01/03","modelo":"Modulo Hex","cantidad":2}]`)
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

	rows, err := c.ExtractControlSheet(context.Background(), entity.ProcessedDocument{Bytes: []byte{1}, MimeType: "image/png"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.ExtractedControlRow{DeliveryDate: "01/03", Model: "Modulo Hex", Quantity: 2}, rows[0])
}

func TestClient_StatusError(t *testing.T) {
	srv, _ := chatServer(t, http.StatusTooManyRequests, "")
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

	_, err := c.Answer(context.Background(), llm.AnswerRequest{Question: "hola"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai status 429")
}

func TestClient_Answer(t *testing.T) {
	srv, got := chatServer(t, http.StatusOK, "Hay 7 unidades.")
	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL}, nil)

	text, err := c.Answer(context.Background(), llm.AnswerRequest{Context: "Modulo Hex: 7", Question: "stock?"})
	require.NoError(t, err)
	assert.Equal(t, "Hay 7 unidades.", text)
	msgs := (*got)["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].(map[string]any)["content"], "Modulo Hex: 7")
}
