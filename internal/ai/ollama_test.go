package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Complete(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":             "qwen3:1.7b",
			"response":          `{"label":"yes"}`,
			"done":              true,
			"prompt_eval_count": 42,
			"eval_count":        7,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", WithHTTPClient(srv.Client()))
	schema := map[string]any{"type": "object"}

	resp, err := p.Complete(context.Background(), &Request{
		Operation:   "sample.check",
		Prompt:      "hello",
		Schema:      schema,
		Temperature: 0.3,
		MaxTokens:   128,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"label":"yes"}`, resp.Text)
	assert.Equal(t, "qwen3:1.7b", resp.Model)
	assert.Equal(t, int64(42), resp.InputTokens)
	assert.Equal(t, int64(7), resp.OutputTokens)

	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.Equal(t, "hello", got.Prompt)
	assert.False(t, got.Stream)
	assert.Equal(t, schema, got.Format)
	assert.Equal(t, 0.3, got.Options["temperature"])
	assert.Equal(t, float64(128), got.Options["num_predict"])
}

func TestOllamaProvider_FormatFallsBackToJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"{}","done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, WithOllamaModel("llama3.2"))
	resp, err := p.Complete(context.Background(), &Request{Prompt: "x"})
	require.NoError(t, err)

	assert.Equal(t, "json", got["format"])
	assert.Equal(t, "llama3.2", got["model"])
	assert.Equal(t, "llama3.2", resp.Model)
	_, hasPredict := got["options"].(map[string]any)["num_predict"]
	assert.False(t, hasPredict)
}

func TestOllamaProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL)
	_, err := p.Complete(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)

	var se *statusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.False(t, isRetriableError(err))
}

func TestOllamaProvider_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL).Complete(context.Background(), &Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestOllamaProvider_ThroughClientAndInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"{\"label\":\"no\",\"score\":4,\"notes\":[\"n\"]}","done":true,"prompt_eval_count":3,"eval_count":2}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{Provider: NewOllamaProvider(srv.URL)})
	require.NoError(t, err)

	v, err := Invoke[sampleVerdict](context.Background(), c, Call{Operation: "sample.check"})
	require.NoError(t, err)
	assert.Equal(t, "no", v.Label)
	assert.Equal(t, 1, c.Usage().Snapshot().Calls)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, p.Name())

	_, err = NewProvider(context.Background(), ProviderConfig{Name: ProviderAnthropic})
	assert.Error(t, err, "anthropic requires an API key")

	_, err = NewProvider(context.Background(), ProviderConfig{Name: ProviderGemini})
	assert.Error(t, err, "gemini requires an API key")

	_, err = NewProvider(context.Background(), ProviderConfig{Name: "openai"})
	assert.ErrorContains(t, err, "unknown provider")
}
