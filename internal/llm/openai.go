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
	openAIBaseURL      = "https://api.openai.com/v1"
	openAIDefaultModel = "gpt-4o-mini"
)

// OpenAIClient speaks the chat completions dialect, which self-hosted LLaMA
// and Ollama servers also expose. The API key is optional for those.
type OpenAIClient struct {
	apiKey    string
	model     string
	url       string
	maxTokens int
	http      *http.Client
	logger    *slog.Logger
}

func NewOpenAIClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = openAIDefaultModel
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = openAIBaseURL
	}
	if !strings.HasSuffix(base, "/chat/completions") {
		base += "/chat/completions"
	}
	return &OpenAIClient{
		apiKey:    cfg.APIKey,
		model:     model,
		url:       base,
		maxTokens: cfg.MaxTokens,
		http:      httpClient,
		logger:    logger,
	}
}

func (o *OpenAIClient) Analyze(ctx context.Context, img Image, prompt string) (string, error) {
	dataURL := "data:" + img.MediaType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)

	payload := map[string]any{
		"model":       o.model,
		"max_tokens":  o.maxTokens,
		"temperature": 0.1,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", callFailed(ProviderOpenAI, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		o.url,
		bytes.NewReader(body),
	)
	if err != nil {
		return "", callFailed(ProviderOpenAI, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return "", callFailed(ProviderOpenAI, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", callFailed(ProviderOpenAI, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", callFailed(ProviderOpenAI, &APIError{
			Provider:   ProviderOpenAI,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		})
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", callFailed(ProviderOpenAI, err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", callFailed(ProviderOpenAI, errors.New("empty completion"))
	}

	o.logger.DebugContext(ctx, "openai response",
		"model", o.model,
		"finish_reason", result.Choices[0].FinishReason,
		"chars", len(result.Choices[0].Message.Content),
	)

	return result.Choices[0].Message.Content, nil
}
