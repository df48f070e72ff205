// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/gitstore"
	"github.com/starford/ansuz/internal/journal"
	"github.com/starford/ansuz/internal/mcpserver"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger on stderr; stdout may carry the
	// stdio MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("transport", cfg.App.Transport),
		slog.String("repo", cfg.GitHub.Repo),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Connect the remote content store.
	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	store, err := gitstore.NewGitHub(setupCtx, cfg.GitHub.Repo, cfg.GitHub.Token, cfg.GitHub.Branch)
	if err != nil {
		return fmt.Errorf("init content store: %w", err)
	}

	// Startup probe: confirm the working branch is reachable.
	if info, err := store.BranchInfo(setupCtx, ""); err != nil {
		logger.Warn("branch probe failed", slog.String("error", err.Error()))
	} else {
		logger.Info("Connected to repository",
			slog.String("branch", info.Name),
			slog.String("head", info.CommitSHA))
	}

	// Optional operation journal.
	managerOpts := []catalog.ManagerOption{
		catalog.WithCategories(cfg.Catalog.Categories),
		catalog.WithLogger(logger),
	}
	var j *journal.DB
	if cfg.Journal.Path != "" {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		defer j.Close()
		managerOpts = append(managerOpts, catalog.WithRecorder(j))
	}

	manager := catalog.NewManager(store, managerOpts...)
	srv := mcpserver.New(manager, store, j, cfg.Catalog.DefaultCategory)

	if cfg.App.Transport == TransportStdio {
		logger.Info("Serving MCP on stdio")
		return srv.ServeStdio()
	}

	r := api.NewRouter(srv.HTTPHandler(), cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
