package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerate_Success(t *testing.T) {
	var gotRequest map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %q, want /messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"content":[{"text":"generated article"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, 5*time.Second)
	text, err := client.Generate(context.Background(), "write something", Options{
		Model:       "test-model",
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "generated article" {
		t.Errorf("text = %q", text)
	}

	if gotRequest["model"] != "test-model" {
		t.Errorf("request model = %v", gotRequest["model"])
	}
	messages, ok := gotRequest["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("messages = %v, want one user message", gotRequest["messages"])
	}
	msg := messages[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "write something" {
		t.Errorf("message = %v", msg)
	}
}

func TestGenerate_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, 5*time.Second)
	_, err := client.Generate(context.Background(), "prompt", Options{})

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if pe.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", pe.StatusCode)
	}
	if pe.Body == "" {
		t.Error("Body should carry the response text")
	}
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient("", server.URL, 5*time.Second)
	_, err := client.Generate(context.Background(), "prompt", Options{})

	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Errorf("missing credential should still be a ProviderError")
	}
	if called {
		t.Error("no HTTP call should happen without a credential")
	}
}

func TestGenerate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, 5*time.Second)
	if _, err := client.Generate(context.Background(), "prompt", Options{}); err == nil {
		t.Error("expected an error for an empty content array")
	}
}
