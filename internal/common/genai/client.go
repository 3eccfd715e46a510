// Package genai is a small client for Groq's OpenAI-compatible chat completions API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apphttp "mealmatch-workers/internal/common/http"
	"mealmatch-workers/internal/common/logger"
)

var (
	ErrTimeout          = errors.New("GENAI_TIMEOUT")
	ErrCompletionFailed = errors.New("GENAI_COMPLETION_FAILED")
)

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type Client struct {
	config *Config
	http   *apphttp.Client
	logger logger.Logger
}

// NewClient relies on the caller's context for deadlines; Config.Timeout only
// caps a single HTTP attempt.
func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		http:   apphttp.NewClient(config.Timeout),
		logger: log,
	}
}

// Complete returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body := chatRequest{
		Model:       c.config.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/openai/v1/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrTimeout
			}
		}

		var resp chatResponse
		lastErr = c.http.DoJSON(ctx, http.MethodPost, endpoint, headers, body, &resp)
		if lastErr == nil {
			if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
				return "", fmt.Errorf("%w: empty completion", ErrCompletionFailed)
			}
			return resp.Choices[0].Message.Content, nil
		}

		if ctx.Err() != nil {
			return "", ErrTimeout
		}

		c.logger.Warn("completion attempt failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr,
		})
	}

	return "", fmt.Errorf("%w: %v", ErrCompletionFailed, lastErr)
}
