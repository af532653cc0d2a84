// Package openrouter implements the model client against the OpenRouter
// OpenAI-compatible chat completions API.
package openrouter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/code-review-trainer/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/code-review-trainer/internal/adapter/observability"
	"github.com/fairyhunter13/code-review-trainer/internal/config"
	"github.com/fairyhunter13/code-review-trainer/internal/domain"
)

// Client implements domain.AIClient via OpenRouter chat completions.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

// New constructs a client with an instrumented transport and the configured
// chat timeout.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.ChatTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompt as a single user message and returns the raw
// assistant content. Transient transport failures are retried with
// exponential backoff; the caller's context aborts the whole attempt.
func (c *Client) Complete(ctx domain.Context, prompt string) (string, error) {
	if c.cfg.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY missing", domain.ErrNotConfigured)
	}

	if n, err := tokencount.CountTokensDefault(prompt, c.cfg.OpenRouterModel); err == nil {
		slog.Debug("prompt assembled",
			slog.String("model", c.cfg.OpenRouterModel),
			slog.Int("prompt_tokens", n))
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.OpenRouterModel,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxCompletionTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime, expo.InitialInterval, expo.MaxInterval, expo.Multiplier = c.cfg.GetAIBackoffConfig()

	var content string
	start := time.Now()
	operation := func() error {
		out, err := c.doChat(ctx, body)
		if err != nil {
			return err
		}
		content = out
		return nil
	}
	err = backoff.Retry(operation, backoff.WithContext(expo, ctx))
	observability.AIRequestDuration.WithLabelValues("openrouter").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.AIRequestsTotal.WithLabelValues("openrouter", "error").Inc()
		return "", err
	}
	observability.AIRequestsTotal.WithLabelValues("openrouter", "ok").Inc()
	return content, nil
}

func (c *Client) doChat(ctx domain.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
	if c.cfg.OpenRouterReferer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.OpenRouterReferer)
	}
	if c.cfg.OpenRouterTitle != "" {
		req.Header.Set("X-Title", c.cfg.OpenRouterTitle)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		slog.Warn("openrouter transient failure",
			slog.Int("status", resp.StatusCode),
			slog.String("body", snippet(raw, 256)))
		return "", fmt.Errorf("openrouter status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", backoff.Permanent(fmt.Errorf("openrouter status %d: %s", resp.StatusCode, snippet(raw, 256)))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode chat response: %w", err))
	}
	if out.Error != nil {
		return "", backoff.Permanent(fmt.Errorf("openrouter error: %s", out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return "", backoff.Permanent(fmt.Errorf("openrouter response has no choices"))
	}
	return out.Choices[0].Message.Content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
