package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com"
	geminiDefaultModel = "gemini-1.5-flash"
)

type GeminiClient struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	http      *http.Client
	logger    *slog.Logger
}

func NewGeminiClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	base := cfg.BaseURL
	if base == "" {
		base = geminiBaseURL
	}
	return &GeminiClient{
		apiKey:    cfg.APIKey,
		model:     model,
		baseURL:   strings.TrimSuffix(base, "/"),
		maxTokens: cfg.MaxTokens,
		http:      httpClient,
		logger:    logger,
	}
}

// Analyze sends the photo as inline_data next to the prompt text.
func (g *GeminiClient) Analyze(ctx context.Context, img Image, prompt string) (string, error) {
	endpoint := fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL,
		url.PathEscape(g.model),
		url.QueryEscape(g.apiKey),
	)

	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{
						"inline_data": map[string]string{
							"mime_type": img.MediaType,
							"data":      base64.StdEncoding.EncodeToString(img.Data),
						},
					},
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":     0.2,
			"maxOutputTokens": g.maxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", callFailed(ProviderGemini, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		bytes.NewReader(body),
	)
	if err != nil {
		return "", callFailed(ProviderGemini, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", callFailed(ProviderGemini, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", callFailed(ProviderGemini, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", callFailed(ProviderGemini, &APIError{
			Provider:   ProviderGemini,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		})
	}

	// Gemini response shape
	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return "", callFailed(ProviderGemini, err)
	}

	if len(result.Candidates) == 0 ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", callFailed(ProviderGemini, errors.New("empty gemini response"))
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	g.logger.DebugContext(ctx, "gemini response",
		"model", g.model,
		"finish_reason", result.Candidates[0].FinishReason,
		"chars", text.Len(),
	)

	return text.String(), nil
}
