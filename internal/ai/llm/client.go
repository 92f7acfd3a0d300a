package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"formgen-workers/internal/common/config"
	"formgen-workers/internal/common/errors"
	commonhttp "formgen-workers/internal/common/http"
	"formgen-workers/internal/models"
)

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	Model       string
	Messages    []models.Message
	Temperature float64
	MaxTokens   int
}

// Completer sends a chat-completion request and returns the assistant text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// ChatClient talks to an OpenAI-compatible /chat/completions endpoint.
type ChatClient struct {
	http    *commonhttp.Client
	baseURL string
	apiKey  string
}

// NewChatClient builds a client for cfg. The per-attempt deadline comes from the
// caller's context; the transport timeout is only a backstop.
func NewChatClient(cfg config.LLMConfig) *ChatClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	backstop := config.GetDuration(cfg.Timeout) * 2
	if backstop <= 0 {
		backstop = 60 * time.Second
	}
	return &ChatClient{
		http:    commonhttp.NewClient(backstop),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends req and returns choices[0].message.content.
func (c *ChatClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, body)
	if err != nil {
		return "", errors.NewLLMGenerationError("chat completion request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", mapStatus(resp.StatusCode, upstreamMessage(resp.Body))
	}

	var decoded chatResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return "", errors.NewLLMGenerationError("undecodable chat completion response", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.NewLLMGenerationError("chat completion returned no choices", nil)
	}
	return decoded.Choices[0].Message.Content, nil
}

// mapStatus converts a non-2xx status into an application error.
func mapStatus(status int, msg string) error {
	cause := fmt.Errorf("status %d: %s", status, msg)
	switch {
	case status == http.StatusBadRequest:
		return errors.NewLLMAuthError("bad request", cause)
	case status == http.StatusUnauthorized:
		return errors.NewLLMAuthError("unauthorized", cause)
	case status == http.StatusForbidden:
		return errors.NewLLMAuthError("forbidden", cause)
	default:
		return errors.NewLLMGenerationError(fmt.Sprintf("upstream returned %d", status), cause)
	}
}

// upstreamMessage pulls error.message out of an error body, falling back to the raw text.
func upstreamMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		if er.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", er.Error.Message, er.Error.Type)
		}
		return er.Error.Message
	}
	return strings.TrimSpace(string(body))
}
