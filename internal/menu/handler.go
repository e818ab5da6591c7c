package menu

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/metrics"
	"github.com/maxpollack/Menu/internal/middleware"
	"github.com/maxpollack/Menu/internal/preferences"
)

// Form fields of POST /api/analyze-menu.
const (
	FieldMenu          = "menu"
	FieldPreferences   = "dietaryPreferences"
	FieldLikedItems    = "likedItems"
	FieldDislikedItems = "dislikedItems"
)

type Handler struct {
	service *Service
	metrics Metrics
	logger  *slog.Logger
}

func NewHandler(service *Service, m Metrics, logger *slog.Logger) *Handler {
	if m == nil {
		m = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, metrics: m, logger: logger}
}

// --------------------------------------------------
// Diner uploads a menu photo
// --------------------------------------------------
func (h *Handler) Analyze(c *gin.Context) {
	file, header, err := c.Request.FormFile(FieldMenu)
	if err != nil {
		h.fail(c, formError(err))
		return
	}
	defer file.Close()

	prefs := preferences.SplitList(c.PostForm(FieldPreferences))
	if len(prefs) == 0 {
		h.fail(c, ErrMissingPreferences)
		return
	}

	data, err := readUpload(file)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), Upload{
		Image:        data,
		DeclaredType: header.Header.Get("Content-Type"),
		Preferences:  prefs,
		Feedback: preferences.ParseFeedback(
			c.PostForm(FieldLikedItems),
			c.PostForm(FieldDislikedItems),
		),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	outcome := metrics.OutcomeOK
	if result.Result.IsRaw() {
		outcome = metrics.OutcomeRaw
	}
	h.metrics.AnalyzeOutcome(outcome)

	c.JSON(http.StatusOK, Response{
		Success:       true,
		Analysis:      result.Result,
		OriginalImage: result.DataURI(),
		Compression:   result.Compression,
	})
}

func readUpload(file multipart.File) ([]byte, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, formError(err)
	}
	if len(data) == 0 {
		return nil, ErrMissingImage
	}
	return data, nil
}

// formError maps multipart parsing failures. A body cut off by the size cap
// is ErrUploadTooLarge; anything else means no usable file was sent.
func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrUploadTooLarge
	}
	return ErrMissingImage
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		h.metrics.AnalyzeOutcome(metrics.OutcomeFailed)
		h.logger.ErrorContext(c.Request.Context(), "menu analysis failed",
			"request_id", middleware.GetRequestID(c),
			"error", err,
		)
	} else {
		h.metrics.AnalyzeOutcome(metrics.OutcomeClientError)
	}

	c.JSON(status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrMissingImage):
		return http.StatusBadRequest, ErrorResponse{Error: "No menu image provided"}
	case errors.Is(err, ErrMissingPreferences):
		return http.StatusBadRequest, ErrorResponse{Error: "No dietary preferences provided"}
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Menu image too large"}
	case errors.Is(err, imagebudget.ErrInvalidImage):
		return http.StatusBadRequest, ErrorResponse{Error: "Invalid menu image", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Failed to analyze menu", Message: err.Error()}
	}
}
