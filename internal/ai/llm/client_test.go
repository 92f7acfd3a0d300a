package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"formgen-workers/internal/common/config"
	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatClient(t *testing.T, handler http.HandlerFunc) *ChatClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewChatClient(config.LLMConfig{APIKey: "gsk_test", BaseURL: server.URL + "/", Timeout: 5000})
}

func TestChatClient_Complete(t *testing.T) {
	client := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "m", body["model"])
		assert.Equal(t, 0.3, body["temperature"])
		assert.EqualValues(t, 4000, body["max_tokens"])

		msgs := body["messages"].([]interface{})
		require.Len(t, msgs, 2)
		assert.Equal(t, "be helpful", msgs[0].(map[string]interface{})["content"])
		parts := msgs[1].(map[string]interface{})["content"].([]interface{})
		assert.Equal(t, "image_url", parts[1].(map[string]interface{})["type"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"schema\":{}}"}}]}`))
	})

	out, err := client.Complete(context.Background(), CompletionRequest{
		Model:       "m",
		Temperature: 0.3,
		MaxTokens:   4000,
		Messages: []models.Message{
			models.TextMessage(models.RoleSystem, "be helpful"),
			{Role: models.RoleUser, Content: models.PartsContent(
				models.ContentPart{Type: models.PartText, Text: "look"},
				models.ContentPart{Type: models.PartImageURL, ImageURL: &models.ImageURL{URL: "data:image/png;base64,AA"}},
			)},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"schema":{}}`, out)
}

func TestChatClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantCode errors.ErrorCode
		wantMsg  string
		wantKind ErrorKind
	}{
		{http.StatusBadRequest, errors.ErrCodeLLMAuthFailed, "bad request", KindAuth},
		{http.StatusUnauthorized, errors.ErrCodeLLMAuthFailed, "unauthorized", KindAuth},
		{http.StatusForbidden, errors.ErrCodeLLMAuthFailed, "forbidden", KindAuth},
		{http.StatusRequestTimeout, errors.ErrCodeLLMGenerationFailed, "upstream returned 408", KindTransient},
		{http.StatusTooManyRequests, errors.ErrCodeLLMGenerationFailed, "upstream returned 429", KindTransient},
		{http.StatusInternalServerError, errors.ErrCodeLLMGenerationFailed, "upstream returned 500", KindTransient},
		{http.StatusServiceUnavailable, errors.ErrCodeLLMGenerationFailed, "upstream returned 503", KindTransient},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			})

			_, err := client.Complete(context.Background(), CompletionRequest{Model: "m"})

			require.Error(t, err)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
			assert.Contains(t, stdErr.Details, "nope (type: invalid_request_error)")
			assert.Equal(t, tt.wantKind, Classify(err))
		})
	}
}

func TestChatClient_BadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices":[]}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), CompletionRequest{Model: "m"})
			assert.True(t, errors.HasCode(err, errors.ErrCodeLLMGenerationFailed))
		})
	}
}

func TestChatClient_TransportErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewChatClient(config.LLMConfig{APIKey: "k", BaseURL: url, Timeout: 5000})
	_, err := client.Complete(context.Background(), CompletionRequest{Model: "m"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeLLMGenerationFailed))
	assert.Equal(t, KindTransient, Classify(err))
}

func TestChatClient_CancelledContext(t *testing.T) {
	client := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, CompletionRequest{Model: "m"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindCanceled, Classify(err))
}
