package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fxdesk/internal/config"
	"github.com/JonMunkholm/fxdesk/internal/core"
	_ "github.com/JonMunkholm/fxdesk/internal/core/tables" // Register built-in schemas
	"github.com/JonMunkholm/fxdesk/internal/database"
	"github.com/JonMunkholm/fxdesk/internal/logging"
	"github.com/JonMunkholm/fxdesk/internal/transport"
	"github.com/JonMunkholm/fxdesk/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"preview_rows", cfg.Upload.PreviewRows,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history", historyBackend(cfg),
		"transport", cfg.Transport.URL != "",
	)

	ctx := context.Background()

	var history core.HistoryStore
	if cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, database.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if u, err := url.Parse(cfg.Database.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		}

		store := database.NewHistoryStore(pool)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate history table", "error", err)
			os.Exit(1)
		}
		history = store
	} else {
		history = core.NewMemoryHistory(cfg.Database.HistoryCapacity)
	}

	var tr core.Transport
	if cfg.Transport.URL != "" {
		httpTransport, err := transport.NewHTTP(transport.Config{
			URL:       cfg.Transport.URL,
			Timeout:   cfg.Transport.Timeout,
			FileField: cfg.Transport.FileField,
			TypeField: cfg.Transport.TypeField,
			AuthToken: cfg.Transport.AuthToken,
		}, nil)
		if err != nil {
			slog.Error("failed to configure transport", "error", err)
			os.Exit(1)
		}
		tr = httpTransport
	} else {
		slog.Warn("TRANSPORT_URL not set; submissions will be rejected")
	}

	service := core.NewService(core.ServiceConfig{
		PreviewRows:        cfg.Upload.PreviewRows,
		MaxFileSize:        cfg.Upload.MaxFileSize,
		SubmitTimeout:      cfg.Transport.Timeout,
		SessionIdleTimeout: cfg.Session.IdleTimeout,
	}, tr, history)
	service.SetLimiter(core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime))

	slog.Info("schemas registered", "count", len(core.All()), "groups", len(core.Groups()))
	for _, group := range core.Groups() {
		slog.Debug("schema group", "group", group, "schemas", len(core.ByGroup(group)))
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if err := service.StartSessionJanitor(jobCtx, core.JanitorConfig{
		Schedule: cfg.Session.JanitorSchedule,
		TimeZone: cfg.Session.TimeZone,
	}); err != nil {
		slog.Error("failed to start session janitor", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight upload batches finish
		if limiter := service.Limiter(); limiter != nil && limiter.ActiveCount() > 0 {
			slog.Info("waiting for uploads to complete", "active", limiter.ActiveCount())
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func historyBackend(cfg *config.Config) string {
	if cfg.Database.Enabled() {
		return "postgres"
	}
	return "memory"
}
