package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maxpollack/Menu/internal/analysis"
	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/llm"
)

type Compressor interface {
	Compress(ctx context.Context, data []byte, maxBytes int) (*imagebudget.Result, error)
}

// Metrics is the subset of internal/metrics the analyze path reports to.
type Metrics interface {
	AnalyzeOutcome(outcome string)
	CollaboratorCall(provider string, d time.Duration, err error)
}

type nopMetrics struct{}

func (nopMetrics) AnalyzeOutcome(string)                          {}
func (nopMetrics) CollaboratorCall(string, time.Duration, error) {}

type ServiceConfig struct {
	Budget   imagebudget.Budget
	Timeout  time.Duration
	Provider string
}

type Service struct {
	compressor   Compressor
	collaborator llm.Client
	cfg          ServiceConfig
	metrics      Metrics
	logger       *slog.Logger
}

func NewService(
	compressor Compressor,
	collaborator llm.Client,
	cfg ServiceConfig,
	metrics Metrics,
	logger *slog.Logger,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Service{
		compressor:   compressor,
		collaborator: collaborator,
		cfg:          cfg,
		metrics:      metrics,
		logger:       logger,
	}
}

// --------------------------------------------------
// Analyze menu photo
// --------------------------------------------------

// Analyze fits the photo under the budget, asks the collaborator once and
// normalizes whatever text comes back. Malformed model output is not an
// error; it comes back as a raw result.
func (s *Service) Analyze(ctx context.Context, up Upload) (*Analysis, error) {
	if len(up.Image) == 0 {
		return nil, ErrMissingImage
	}
	if len(up.Preferences) == 0 {
		return nil, ErrMissingPreferences
	}

	mediaType, err := DetectMediaType(up.Image, up.DeclaredType)
	if err != nil {
		return nil, err
	}

	out := &Analysis{
		Image:     up.Image,
		MediaType: mediaType,
	}

	if s.cfg.Budget.Exceeds(len(up.Image)) {
		res, err := s.compressor.Compress(ctx, up.Image, s.cfg.Budget.Target())
		if err != nil {
			return nil, fmt.Errorf("compress menu image: %w", err)
		}
		out.Image = res.Data
		out.MediaType = res.MediaType
		out.Compression = compressionFrom(res)

		s.logger.InfoContext(ctx, "menu image compressed",
			"original_bytes", len(up.Image),
			"final_bytes", len(res.Data),
			"attempt", res.Attempt.String(),
		)
	}

	text, err := s.call(ctx, up.request(out.Image, out.MediaType))
	if err != nil {
		return nil, err
	}

	result, err := analysis.Parse(text)
	if err != nil {
		s.logger.WarnContext(ctx, "collaborator response is not schema JSON, returning raw text",
			"chars", len(text),
			"error", err,
		)
		result = analysis.Fallback(text)
	}
	out.Result = result

	return out, nil
}

func (s *Service) call(ctx context.Context, req analysis.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	img := llm.Image{MediaType: req.MediaType, Data: req.Image}

	start := time.Now()
	text, err := s.collaborator.Analyze(ctx, img, req.Prompt())
	s.metrics.CollaboratorCall(s.cfg.Provider, time.Since(start), err)

	if err != nil {
		if !errors.Is(err, llm.ErrCollaboratorCallFailed) {
			err = fmt.Errorf("%w: %w", llm.ErrCollaboratorCallFailed, err)
		}
		return "", err
	}
	return text, nil
}
