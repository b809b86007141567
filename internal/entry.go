// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/prdboard/internal/api"
	"github.com/starford/prdboard/internal/metrics"
	"github.com/starford/prdboard/internal/prdsource"
	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
	"github.com/starford/prdboard/internal/sse"
	"github.com/starford/prdboard/internal/web"
)

var errConfigRequired = errors.New("config is required")

func (a *application) logger() *slog.Logger {
	out := a.logOutput
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP dashboard with the given options and blocks until
// ctx is cancelled or a termination signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("prd_path", cfg.PRD.Path),
		slog.Duration("poll_interval", cfg.PRD.PollInterval),
		slog.Bool("watch", cfg.PRD.Watch),
		slog.String("prefs_path", cfg.Prefs.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := prefs.OpenSQLite(cfg.Prefs.Path)
	if err != nil {
		return fmt.Errorf("init preferences: %w", err)
	}
	defer store.Close()

	m := metrics.New()

	broker := sse.NewBroker(cfg.SSE.Throttle)
	defer broker.Close()
	m.TrackClients(broker.ClientCount)

	loop := refresh.New(prdsource.NewFileSource(cfg.PRD.Path),
		refresh.WithInterval(cfg.PRD.PollInterval),
		refresh.WithLogger(logger),
		refresh.WithRecorder(m),
		refresh.WithObserver(func(s refresh.Snapshot) {
			broker.PublishUpdate(sse.Update{State: string(s.State), Checksum: s.Checksum, LoadedAt: s.LoadedAt})
		}),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if loop.Snapshot().State == refresh.StateInitialLoading {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	r.Mount("/api", api.NewRouter(loop, store, broker))
	web.NewHandler(loop, store,
		web.WithPollInterval(cfg.PRD.PollInterval),
		web.WithPRDPath(cfg.PRD.Path),
		web.WithLogger(logger),
	).Routes(r)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(gCtx)
	})

	if cfg.PRD.Watch {
		g.Go(func() error {
			if err := refresh.Watch(gCtx, cfg.PRD.Path, logger, loop.Trigger); err != nil {
				logger.Warn("watcher disabled, relying on polling", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
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

// newSource picks the HTTP source when a server URL is configured and the
// local file otherwise.
func newSource(cfg *Config) prdsource.Source {
	if cfg.TUI.URL != "" {
		return prdsource.NewHTTPSource(cfg.TUI.URL, &http.Client{Timeout: cfg.TUI.HTTPTimeout})
	}
	return prdsource.NewFileSource(cfg.PRD.Path)
}

// discardLogger is used where stdout and stderr both belong to the user
// interface.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
