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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/rehearse/internal/api"
	"github.com/starford/rehearse/internal/index"
	"github.com/starford/rehearse/internal/mcpserver"
	"github.com/starford/rehearse/internal/reviewservice"
	"github.com/starford/rehearse/internal/schedule"
	"github.com/starford/rehearse/internal/sse"
	"github.com/starford/rehearse/internal/storage"
)

// Runtime holds the components shared by the server and the CLI commands.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	Store   *storage.FS
	DB      *index.DB
	Service *reviewservice.Service

	engines *schedule.Engines
	clock   reviewservice.Clock
}

// Open initialises logging, storage and the index, syncs the vault and
// builds the review service.
func Open(opts ...Option) (*Runtime, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	out := app.logWriter
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("strategy", cfg.Review.Strategy),
		slog.String("log_level", cfg.App.LogLevel.String()))

	engines, err := cfg.Review.Engines()
	if err != nil {
		return nil, fmt.Errorf("init schedulers: %w", err)
	}

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		DB:      db,
		engines: engines,
		clock:   app.clock,
	}
	rt.Service = rt.newService()
	return rt, nil
}

func (rt *Runtime) newService(extra ...reviewservice.Option) *reviewservice.Service {
	rc := rt.Config.Review
	opts := []reviewservice.Option{
		reviewservice.WithEngines(rt.engines),
		reviewservice.WithLogger(rt.Logger),
		reviewservice.WithDefaultStrategy(schedule.Strategy(rc.Strategy)),
		reviewservice.WithDefaultUser(rc.DefaultUser),
		reviewservice.WithDueLimit(rc.DueLimit),
		reviewservice.WithMaxAttempts(uint(rc.MaxAttempts)),
		reviewservice.WithClock(rt.clock),
	}
	return reviewservice.New(rt.DB, append(opts, extra...)...)
}

// Close releases the index.
func (rt *Runtime) Close() error {
	return rt.DB.Close()
}

// Run starts the HTTP server and the vault watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := Open(opts...)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.Config
	logger := rt.Logger

	// SSE broker; reviews and watcher changes are pushed through it.
	broker := sse.NewBroker(cfg.Review.DueEventThrottle)
	defer broker.Close()

	svc := rt.newService(reviewservice.WithNotifier(broker))
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := rt.DB.AllChecksums(); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := index.Watch(gCtx, rt.DB, rt.Store, cfg.Vault.Path, logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path)
		}); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

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

// RunMCP serves the review tools over stdio. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := Open(append([]Option{WithLogWriter(os.Stderr)}, opts...)...)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := index.Watch(gCtx, rt.DB, rt.Store, rt.Config.Vault.Path, rt.Logger, nil); err != nil {
			rt.Logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		// The watcher stops once stdin closes.
		defer cancel()
		return mcpserver.New(rt.Store, rt.Service).ServeStdio()
	})
	return g.Wait()
}
