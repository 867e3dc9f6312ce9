// ABOUTME: Tests for the OpenAI client against a local HTTP server
// ABOUTME: Covers completions, embeddings with dimensions, retries and gateway base URLs
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1/"
	cfg.EmbeddingDimensions = 3
	cfg.RetryDelay = time.Millisecond

	client, err := NewOpenAIClientWithConfig(cfg)
	require.NoError(t, err)
	return client
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("")
	assert.Error(t, err)
}

func TestOpenAIComplete(t *testing.T) {
	var gotRequest map[string]any
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  [\"ok\"]  "}}]}`))
	})

	out, err := client.Complete(context.Background(), "be terse", "hello")
	require.NoError(t, err)
	assert.Equal(t, `["ok"]`, out)

	assert.Equal(t, DefaultChatModel, gotRequest["model"])
	messages, ok := gotRequest["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
	assert.Equal(t, "openai:"+DefaultChatModel, client.Name())
}

func TestOpenAICompleteIsSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusInternalServerError)
	})

	_, err := client.Complete(context.Background(), "", "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), "", "hello")
	assert.Error(t, err)
}

func TestOpenAIGenerateEmbedding(t *testing.T) {
	var gotRequest map[string]any
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25,-1]}]}`))
	})

	vec, err := client.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25, -1}, vec)
	assert.EqualValues(t, 3, gotRequest["dimensions"])
}

func TestOpenAIGenerateEmbeddingRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":{"message":"busy"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0,0]}]}`))
	})

	vec, err := client.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, vec)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIGenerateEmbeddingGivesUp(t *testing.T) {
	var calls atomic.Int32
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := client.GenerateEmbedding(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
}
