package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/llm"
	"github.com/maxpollack/Menu/internal/logging"
	"github.com/maxpollack/Menu/internal/menu"
	"github.com/maxpollack/Menu/internal/metrics"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	compressor, err := imagebudget.New()
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.New()
	collab, err := llm.New(llm.Config{
		Provider:  llm.ProviderAnthropic,
		APIKey:    "unused",
		MaxTokens: 16,
		Timeout:   1,
	}, nil, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}

	svc := menu.NewService(compressor, collab, menu.ServiceConfig{Budget: imagebudget.ServerBudget}, m, logging.Discard())
	return NewRouter(menu.NewHandler(svc, m, logging.Discard()), Options{
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: 1 << 20,
		Metrics:        m.Handler(),
		Logger:         logging.Discard(),
	})
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["message"] != "Server is running" {
		t.Errorf("unexpected health body: %v", body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Errorf("expected a request id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze-menu", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}

func TestAnalyzeRouteRejectsMissingImage(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-menu", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}
