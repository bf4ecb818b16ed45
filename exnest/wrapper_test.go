package exnest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWrapper(t *testing.T, serverURL string) *Wrapper {
	t.Helper()
	w, err := NewWrapper("test-key", WithBaseURL(serverURL))
	require.NoError(t, err)
	w.client.sleeper = &fakeSleeper{}
	return w
}

func TestNewWrapperRequiresAPIKey(t *testing.T) {
	_, err := NewWrapper("")
	require.Error(t, err)

	var confErr *ConfigurationError
	assert.ErrorAs(t, err, &confErr)
}

func TestNewWrapperUsesDefaults(t *testing.T) {
	w, err := NewWrapper("test-key")
	require.NoError(t, err)

	cfg := w.Client().Config()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	require.NotNil(t, cfg.Retries)
	assert.Equal(t, DefaultRetries, *cfg.Retries)
}

func TestWrapperChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Write([]byte(`{"success":true,"status_code":200,"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer server.Close()

	wrapper := newTestWrapper(t, server.URL)

	resp, err := wrapper.Chat(context.Background(), "model-x", []Message{UserMessage("hi")})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "hello", resp.Text())
}

func TestWrapperCompletionMaxTokens(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var received map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		body = received
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	wrapper := newTestWrapper(t, server.URL)

	_, err := wrapper.Completion(context.Background(), "model-x", "finish this", 100)
	require.NoError(t, err)
	assert.Equal(t, float64(100), body["max_tokens"])

	_, err = wrapper.Completion(context.Background(), "model-x", "finish this", 0)
	require.NoError(t, err)
	_, present := body["max_tokens"]
	assert.False(t, present)
}

func TestWrapperResponseIsSingleTurnChat(t *testing.T) {
	var req completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	wrapper := newTestWrapper(t, server.URL)

	_, err := wrapper.Response(context.Background(), "model-x", "What is Go?")
	require.NoError(t, err)

	require.Len(t, req.Messages, 1)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.Equal(t, "What is Go?", req.Messages[0].Content)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, defaultResponseMaxTokens, *req.MaxTokens)
}

func TestWrapperModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`[{"id":"1","name":"gpt-4o-mini"}]`))
	}))
	defer server.Close()

	wrapper := newTestWrapper(t, server.URL)

	models, err := wrapper.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "gpt-4o-mini", models[0].Name)
}
