package llm

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

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = srv.URL + "/v1/"
	if mutate != nil {
		mutate(cfg)
	}

	client, err := NewOpenAIClient(cfg, "sk-server", srv.Client())
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got chatCompletionRequest
	var authHeader string
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"# Privacy Policy\n\nBody"}}]}`))
	}, nil)

	text, err := client.Generate(context.Background(), Request{
		System:          "system text",
		User:            "user text",
		Temperature:     0.7,
		MaxOutputTokens: 2000,
		Credential:      "caller-token",
	})
	require.NoError(t, err)

	assert.Equal(t, "# Privacy Policy\n\nBody", text)
	assert.Equal(t, "Bearer sk-server", authHeader)
	assert.Equal(t, "gpt-4.1-nano", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 0.0001)
	assert.Equal(t, int32(2000), got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "system text"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "user text"}, got.Messages[1])
}

func TestOpenAIClient_UsesCallerCredential(t *testing.T) {
	var authHeader string
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}, func(c *Config) { c.UseCallerCredential = true })

	_, err := client.Generate(context.Background(), Request{User: "u", Credential: "caller-token"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer caller-token", authHeader)
}

func TestOpenAIClient_ProviderError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}, nil)

	_, err := client.Generate(context.Background(), Request{User: "u"})
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.True(t, perr.RateLimited())
	assert.Contains(t, perr.Body, "slow down")
}

func TestOpenAIClient_MalformedBody(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, nil)

	_, err := client.Generate(context.Background(), Request{User: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode provider response")
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}, nil)

	_, err := client.Generate(context.Background(), Request{User: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIClient_ContextCanceled(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, Request{User: "u"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
