// Package llm talks to the vision model that reads menu photos.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrCollaboratorCallFailed wraps every transport or upstream failure.
var ErrCollaboratorCallFailed = errors.New("collaborator call failed")

// Image is the photo attached to a request. Data is raw bytes; providers
// base64 them on the wire.
type Image struct {
	MediaType string
	Data      []byte
}

// Client sends one image and one prompt and returns the model's text.
type Client interface {
	Analyze(ctx context.Context, img Image, prompt string) (string, error)
}

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Provider  string        `yaml:"provider"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Provider:  ProviderAnthropic,
		MaxTokens: 2048,
		Timeout:   60 * time.Second,
	}
}

func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderGemini:
		if c.APIKey == "" {
			return fmt.Errorf("missing API key for %s", c.Provider)
		}
	case ProviderOpenAI:
		if c.APIKey == "" && c.BaseURL == "" {
			return errors.New("openai provider needs an API key or a self-hosted base URL")
		}
	default:
		return fmt.Errorf("unknown collaborator provider %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return errors.New("max tokens must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("collaborator timeout must be positive")
	}
	return nil
}

// New builds the client for cfg.Provider. httpClient may be nil.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(cfg, httpClient, logger), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, httpClient, logger), nil
	default:
		return NewAnthropicClient(cfg, httpClient, logger), nil
	}
}

// APIError is a non-2xx reply from the provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: status %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 512))
}

func callFailed(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCollaboratorCallFailed, provider, err)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
