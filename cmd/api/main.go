package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/maxpollack/Menu/internal/config"
	"github.com/maxpollack/Menu/internal/imagebudget"
	"github.com/maxpollack/Menu/internal/llm"
	"github.com/maxpollack/Menu/internal/logging"
	"github.com/maxpollack/Menu/internal/menu"
	"github.com/maxpollack/Menu/internal/metrics"
	"github.com/maxpollack/Menu/internal/router"
)

func main() {

	// ───────────────────────── CONFIG ─────────────────────────
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", "text").Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ───────────────────────── METRICS ─────────────────────────
	m := metrics.New()

	// ───────────────────────── COMPRESSOR ─────────────────────────
	compressor, err := imagebudget.New(
		imagebudget.WithObserver(m),
		imagebudget.WithLogger(logger),
		imagebudget.WithMaxPixels(cfg.MaxImagePixels),
	)
	if err != nil {
		logger.Error("compressor init failed", "error", err)
		os.Exit(1)
	}

	// ───────────────────────── COLLABORATOR ─────────────────────────
	collaborator, err := llm.New(cfg.Collaborator, &http.Client{}, logger)
	if err != nil {
		logger.Error("collaborator init failed", "error", err)
		os.Exit(1)
	}

	// ───────────────────────── SERVICES ─────────────────────────
	menuService := menu.NewService(
		compressor,
		collaborator,
		menu.ServiceConfig{
			Budget:   cfg.Budget,
			Timeout:  cfg.Collaborator.Timeout,
			Provider: cfg.Collaborator.Provider,
		},
		m,
		logger,
	)
	menuHandler := menu.NewHandler(menuService, m, logger)

	// ───────────────────────── ROUTES ─────────────────────────
	r := router.NewRouter(menuHandler, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Metrics:        m.Handler(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ───────────────────────── START ─────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("API running",
			"addr", srv.Addr,
			"provider", cfg.Collaborator.Provider,
			"budget_target_bytes", cfg.Budget.Target(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
