package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-qa-rag-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 300, req.MaxTokens)
		if assert.NotNil(t, req.Temperature) {
			assert.Equal(t, 0.1, *req.Temperature)
		}
		assert.Len(t, req.Messages, 2)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"The answer."}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("key", srv.URL, "test-model")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "q"},
	}, llm.WithTemperature(0.1), llm.WithMaxTokens(300))

	require.NoError(t, err)
	assert.Equal(t, "The answer.", out)
}

func TestOpenAIProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("key", srv.URL, "m")
	_, err := p.Generate(context.Background(), "q")

	var statusErr *llm.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.Retryable())
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("key", srv.URL, "m")
	_, err := p.Generate(context.Background(), "q")
	assert.Error(t, err)
}
