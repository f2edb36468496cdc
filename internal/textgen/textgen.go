// Package textgen is the HTTP client for the text-generation provider.
// It does exactly one call per Generate; retry policy belongs to the caller.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned (wrapped in a ProviderError) when the client
// has no credential. It is checked before any network I/O happens.
var ErrMissingAPIKey = errors.New("text generation API key is not set")

// ProviderError describes a failed provider call: a non-2xx response with
// its body attached, or a missing credential.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text generation provider: %v", e.Err)
	}
	return fmt.Sprintf("text generation provider returned status %d: %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Options contains per-call generation parameters.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client calls an Anthropic-style messages API.
type Client struct {
	apiKey     string
	baseURL    string
	system     string
	httpClient *http.Client
}

// NewClient creates a text-generation client. An empty baseURL selects the
// public endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		system:     "You write production-quality SEO content and respond in the exact format requested.",
		httpClient: &http.Client{Timeout: timeout},
	}
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends one prompt to the provider and returns the raw response
// text. Any non-2xx status is a *ProviderError carrying the body.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if c.apiKey == "" {
		return "", &ProviderError{Err: ErrMissingAPIKey}
	}

	request := messageRequest{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		System:      c.system,
		Messages:    []message{{Role: "user", Content: prompt}},
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var msgResp messageResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(msgResp.Content) == 0 || msgResp.Content[0].Text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return msgResp.Content[0].Text, nil
}
