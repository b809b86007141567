package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/prdboard/internal/board"
	"github.com/starford/prdboard/internal/mcpserver"
	"github.com/starford/prdboard/internal/prdsource"
	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
	"github.com/starford/prdboard/internal/tui"
)

// RunTUI opens the terminal dashboard. Logs are discarded because the
// terminal is the interface.
func RunTUI(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	store, err := prefs.OpenSQLite(cfg.Prefs.Path)
	if err != nil {
		return fmt.Errorf("init preferences: %w", err)
	}
	defer store.Close()

	loop := refresh.New(newSource(cfg),
		refresh.WithInterval(cfg.PRD.PollInterval),
		refresh.WithLogger(discardLogger()),
	)

	location := cfg.PRD.Path
	if cfg.TUI.URL != "" {
		location = strings.TrimRight(cfg.TUI.URL, "/") + "/api/prd"
	}
	m := tui.New(ctx, loop, store,
		tui.WithAmbientTheme(tui.AmbientTheme()),
		tui.WithLocation(location),
	)
	return tui.Run(ctx, m)
}

// RunMCP serves the MCP tools on stdin/stdout until stdin closes. Logs go to
// stderr unless WithLogOutput says otherwise.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == nil {
		app.logOutput = os.Stderr
	}
	cfg := app.config
	logger := app.logger()

	loop := refresh.New(newSource(cfg),
		refresh.WithInterval(cfg.PRD.PollInterval),
		refresh.WithLogger(logger),
	)
	// Tools should see a document on their first call.
	loop.Reload(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(gCtx)
	})
	if cfg.PRD.Watch && cfg.TUI.URL == "" {
		g.Go(func() error {
			if err := refresh.Watch(gCtx, cfg.PRD.Path, logger, loop.Trigger); err != nil {
				logger.Warn("watcher disabled, relying on polling", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	srv := mcpserver.New(loop, app.version)
	serveErr := srv.ServeStdio()
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return serveErr
}

// ErrNoDocument is returned by RunSummary when there is nothing to report.
var ErrNoDocument = errors.New("no document")

// RunSummary loads the document once and prints overall progress, the
// per-status counts and one line per feature.
func RunSummary(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src := newSource(cfg)
	res, err := src.Load(ctx)
	if err != nil {
		switch prdsource.Classify(err) {
		case prdsource.OutcomeMissing:
			return fmt.Errorf("prd.json not found: %w", ErrNoDocument)
		case prdsource.OutcomeMalformed:
			return fmt.Errorf("invalid JSON in prd.json: %w", ErrNoDocument)
		default:
			return fmt.Errorf("failed to read prd.json: %v: %w", err, ErrNoDocument)
		}
	}

	sum := board.Summarize(res.Document)
	fmt.Fprintf(w, "%s: %d of %d stories complete (%d%%)\n",
		sum.Project, sum.Overall.Completed, sum.Overall.Total, sum.Percent)
	for _, st := range board.Statuses {
		fmt.Fprintf(w, "  %-12s %d\n", st.Label()+":", sum.Counts.Get(st))
	}
	if sum.Empty {
		fmt.Fprintln(w, "No features found.")
		return nil
	}
	fmt.Fprintln(w)
	for _, sec := range sum.Sections {
		fmt.Fprintf(w, "  %-8s %-30s %d/%d\n", sec.FeatureID, sec.Name, sec.Progress.Completed, sec.Progress.Total)
	}
	return nil
}
