// Package client uploads menu photos to the analyze API on behalf of the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/maxpollack/Menu/internal/analysis"
	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/preferences"
)

var (
	// ErrImageUnusable means the photo could not be brought under the
	// upload budget. The user should try a different image.
	ErrImageUnusable = errors.New("image could not be prepared for upload")

	// ErrUnreachable covers transport failures. Retrying may help.
	ErrUnreachable = errors.New("analysis service unreachable")

	ErrNoPreferences = errors.New("select at least one dietary preference")
)

// ServerError is a non-200 reply from the API.
type ServerError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

type Client struct {
	baseURL    string
	http       *http.Client
	compressor *imagebudget.Compressor
	budget     imagebudget.Budget
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBudget(b imagebudget.Budget) Option {
	return func(c *Client) { c.budget = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		budget:  imagebudget.ClientBudget,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.budget.Validate(); err != nil {
		return nil, err
	}

	compressor, err := imagebudget.New(imagebudget.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.compressor = compressor
	return c, nil
}

// Request is what the CLI collects before uploading.
type Request struct {
	Image       []byte
	Filename    string
	Preferences []string
	Feedback    preferences.Feedback
}

// Result mirrors the 200 body of the analyze endpoint.
type Result struct {
	Success       bool            `json:"success"`
	Analysis      analysis.Result `json:"analysis"`
	OriginalImage string          `json:"originalImage"`
	Compression   *struct {
		OriginalBytes int     `json:"originalBytes"`
		FinalBytes    int     `json:"finalBytes"`
		Scale         float64 `json:"scale"`
		Quality       int     `json:"quality"`
		Width         int     `json:"width"`
		Height        int     `json:"height"`
	} `json:"compression,omitempty"`

	// UploadedBytes is what left this machine after local compression.
	UploadedBytes int `json:"-"`
}

// Analyze shrinks the photo under the client budget if needed, then uploads it.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	if len(req.Preferences) == 0 {
		return nil, ErrNoPreferences
	}

	data, mediaType, err := c.prepare(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	filename := req.Filename
	if filename == "" {
		filename = "menu"
	}
	if !strings.HasPrefix(mediaType, "image/") {
		if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
			mediaType = byExt
		}
	}
	if mediaType == imagebudget.OutputMediaType {
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
	}

	body, contentType, err := encodeForm(data, filename, mediaType, req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze-menu", body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: e.Error, Detail: e.Message}
	}

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	out.UploadedBytes = len(data)
	return &out, nil
}

func (c *Client) prepare(ctx context.Context, image []byte) ([]byte, string, error) {
	if len(image) == 0 {
		return nil, "", fmt.Errorf("%w: empty file", ErrImageUnusable)
	}
	if !c.budget.Exceeds(len(image)) {
		return image, http.DetectContentType(image), nil
	}

	res, err := c.compressor.Compress(ctx, image, c.budget.Target())
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrImageUnusable, err)
	}
	c.logger.Debug("compressed before upload",
		"original_bytes", len(image),
		"final_bytes", len(res.Data),
		"attempt", res.Attempt.String(),
	)
	return res.Data, res.MediaType, nil
}

func encodeForm(data []byte, filename, mediaType string, req Request) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="menu"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", mediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"dietaryPreferences", preferences.JoinList(req.Preferences)},
		{"likedItems", preferences.JoinList(req.Feedback.Liked())},
		{"dislikedItems", preferences.JoinList(req.Feedback.Disliked())},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}
