package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbonduro/menuorder/internal/config"
	"github.com/vbonduro/menuorder/internal/db"
	"github.com/vbonduro/menuorder/internal/photostore/local"
	"github.com/vbonduro/menuorder/internal/service"
	"github.com/vbonduro/menuorder/internal/store"
	"github.com/vbonduro/menuorder/internal/transcribe"
	claudetranscribe "github.com/vbonduro/menuorder/internal/transcribe/claude"
	ollamatranscribe "github.com/vbonduro/menuorder/internal/transcribe/ollama"
	"github.com/vbonduro/menuorder/internal/web"
	"github.com/vbonduro/menuorder/internal/web/templates"
)

const shutdownTimeout = 30 * time.Second

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		return err
	}

	menuService := service.NewMenuService(
		store.NewMenuStore(database),
		store.NewMenuItemStore(database),
		store.NewOrderStore(database),
		store.NewPhotoStore(database),
		photoStg,
		newTranscriber(cfg, logger),
		cfg.DeliveryFee,
		logger,
	)
	srv := web.NewServer(menuService, templates.FS, logger).NewHTTPServer(cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr, "delivery_fee", cfg.DeliveryFee.StringFixed(2))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newTranscriber picks the screenshot transcription backend. A nil result
// disables the import-from-photo feature.
func newTranscriber(cfg *config.Config, logger *slog.Logger) transcribe.Transcriber {
	switch cfg.TranscribeBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when TRANSCRIBE_BACKEND=claude; photo import disabled")
			return nil
		}
		logger.Info("using Claude transcription backend", "model", cfg.ClaudeModel)
		return claudetranscribe.NewClaudeTranscriber(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama transcription backend", "model", cfg.OllamaModel)
		return ollamatranscribe.NewOllamaTranscriber(cfg.OllamaHost, cfg.OllamaModel)
	case "", "none":
		logger.Info("photo import disabled")
		return nil
	default:
		logger.Warn("unknown transcription backend; photo import disabled", "backend", cfg.TranscribeBackend)
		return nil
	}
}
