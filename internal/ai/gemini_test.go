package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiServer(t *testing.T, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), "path %s", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": `{"label":"yes"}`}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 4,
				"totalTokenCount":      16,
			},
			"modelVersion": "gemini-test-001",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiProvider_SendsSchema(t *testing.T) {
	var got map[string]any
	srv := geminiServer(t, &got)

	p, err := NewGeminiProvider(context.Background(), "test-key", "",
		WithGeminiBaseURL(srv.URL), WithGeminiHTTPClient(srv.Client()))
	require.NoError(t, err)

	schema := map[string]any{"type": "object"}
	resp, err := p.Complete(context.Background(), &Request{
		Operation:   "sample.check",
		Prompt:      "hello",
		Schema:      schema,
		Temperature: 0.5,
		MaxTokens:   64,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"label":"yes"}`, resp.Text)
	assert.Equal(t, "gemini-test-001", resp.Model)
	assert.Equal(t, int64(12), resp.InputTokens)
	assert.Equal(t, int64(4), resp.OutputTokens)

	gen, ok := got["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing: %v", got)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Equal(t, schema, gen["responseJsonSchema"])
	assert.Equal(t, float64(64), gen["maxOutputTokens"])
	assert.Equal(t, 0.5, gen["temperature"])
}

func TestGeminiProvider_NoSchema(t *testing.T) {
	var got map[string]any
	srv := geminiServer(t, &got)

	p, err := NewGeminiProvider(context.Background(), "test-key", "gemini-test",
		WithGeminiBaseURL(srv.URL), WithGeminiHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), &Request{Operation: "sample.check", Prompt: "hello"})
	require.NoError(t, err)

	gen := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.NotContains(t, gen, "responseJsonSchema")
}

func TestGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "", "")
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}
