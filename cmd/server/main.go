package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/recon/internal/config"
	"github.com/JonMunkholm/recon/internal/core"
	_ "github.com/JonMunkholm/recon/internal/core/sources" // Register payments and settlements
	"github.com/JonMunkholm/recon/internal/logging"
	"github.com/JonMunkholm/recon/internal/staging"
	"github.com/JonMunkholm/recon/internal/storage"
	"github.com/JonMunkholm/recon/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"buffer_lines", cfg.Upload.BufferLines,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	pool, err := storage.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dir, err := staging.New(cfg.Upload.StagingDir)
	if err != nil {
		slog.Error("failed to prepare staging directory", "error", err)
		os.Exit(1)
	}

	service := core.NewService(pool, core.Options{
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		BufferLines:   cfg.Upload.BufferLines,
	})

	for _, def := range service.Sources() {
		slog.Debug("source registered", "source", def.Source, "delimiter", string(def.Delimiter))
	}

	server := web.NewServer(service, pool, dir, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running pipelines so no COPY is cut off mid-stream
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for pipelines to complete", "active", status.Active)
			if err := service.WaitForPipelines(shutdownCtx); err != nil {
				slog.Warn("pipelines did not complete in time", "error", err)
			} else {
				slog.Info("all pipelines completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr(), "staging_dir", dir.Path())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
