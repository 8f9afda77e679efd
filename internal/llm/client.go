// ABOUTME: Shared construction for OpenAI-compatible clients (OpenAI, Ollama)
// ABOUTME: Holds endpoint settings and decides which API errors are worth retrying
package llm

import (
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/ragdoc/internal/util"
)

// ollamaPlaceholderKey is sent when no API key is configured; Ollama ignores it
const ollamaPlaceholderKey = "ollama"

// ClientConfig holds configuration shared by the embedding and chat clients
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultClientConfig targets a local Ollama server
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    "http://localhost:11434/v1",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

func newOpenAIClient(cfg ClientConfig) *openai.Client {
	key := cfg.APIKey
	if key == "" {
		key = ollamaPlaceholderKey
	}
	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(oc)
}

// classify marks client errors as permanent so the retry loop gives up.
// Rate limiting and server errors stay retryable.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests && status != http.StatusRequestTimeout {
		return util.Permanent(err)
	}
	return err
}
