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

	"github.com/qartha/idfportal/internal/auth"
	"github.com/qartha/idfportal/internal/config"
	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/store/postgres"
	"github.com/qartha/idfportal/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"proxy_mode", cfg.ProxyMode(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	var (
		service *core.Service
		tokens  *auth.Manager
	)
	if !cfg.ProxyMode() {
		var closeDB func()
		service, tokens, closeDB = setupLocal(cfg)
		defer closeDB()
	}

	server, err := web.NewServer(service, tokens, cfg)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active uploads to complete (with timeout)
		if service != nil {
			if active := service.Limiter().ActiveCount(); active > 0 {
				slog.Info("waiting for uploads to complete", "active", active)
				if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
					slog.Warn("uploads did not complete in time", "error", err)
				} else {
					slog.Info("all uploads completed")
				}
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// setupLocal connects to the database, applies migrations and builds the
// service that backs the local API.
func setupLocal(cfg *config.Config) (*core.Service, *auth.Manager, func()) {
	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, cfg.Database.URL); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	pool, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	catalog, err := config.LoadCatalog(cfg.Catalog.File)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "clusters", len(catalog.Clusters()))

	service, err := core.NewService(postgres.New(pool), catalog, core.Options{
		StaticDir:      cfg.Static.Dir,
		PublicBaseURL:  cfg.Static.PublicBaseURL,
		MaxUploadBytes: cfg.Upload.MaxFileSize,
		Limiter:        core.NewUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
	if err != nil {
		slog.Error("failed to create token manager", "error", err)
		os.Exit(1)
	}

	return service, tokens, pool.Close
}
