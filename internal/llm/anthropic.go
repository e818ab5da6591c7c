package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL      = "https://api.anthropic.com"
	anthropicVersion      = "2023-06-01"
	anthropicDefaultModel = "claude-3-5-sonnet-20241022"
)

type AnthropicClient struct {
	apiKey    string
	model     string
	url       string
	maxTokens int
	http      *http.Client
	logger    *slog.Logger
}

func NewAnthropicClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *AnthropicClient {
	model := cfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	base := cfg.BaseURL
	if base == "" {
		base = anthropicBaseURL
	}
	return &AnthropicClient{
		apiKey:    cfg.APIKey,
		model:     model,
		url:       strings.TrimSuffix(base, "/") + "/v1/messages",
		maxTokens: cfg.MaxTokens,
		http:      httpClient,
		logger:    logger,
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Analyze sends the image block followed by the prompt as a single user turn.
func (a *AnthropicClient) Analyze(ctx context.Context, img Image, prompt string) (string, error) {
	payload := anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicBlock{
					{
						Type: "image",
						Source: &anthropicSource{
							Type:      "base64",
							MediaType: img.MediaType,
							Data:      base64.StdEncoding.EncodeToString(img.Data),
						},
					},
					{Type: "text", Text: prompt},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", callFailed(ProviderAnthropic, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		a.url,
		bytes.NewReader(body),
	)
	if err != nil {
		return "", callFailed(ProviderAnthropic, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", callFailed(ProviderAnthropic, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", callFailed(ProviderAnthropic, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", callFailed(ProviderAnthropic, &APIError{
			Provider:   ProviderAnthropic,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		})
	}

	var result anthropicResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", callFailed(ProviderAnthropic, err)
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", callFailed(ProviderAnthropic, errors.New("response has no text content"))
	}

	a.logger.DebugContext(ctx, "anthropic response",
		"model", a.model,
		"stop_reason", result.StopReason,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
		"chars", text.Len(),
	)

	return text.String(), nil
}
