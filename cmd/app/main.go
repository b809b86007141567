package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/prdboard/internal"
	pkgconfig "github.com/starford/prdboard/pkg/config"
)

var version = "dev"

// loadConfig reads the config file (defaults when it does not exist) and
// applies command-line overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if f := cmd.String("file"); f != "" {
		cfg.PRD.Path = f
	}
	if u := cmd.String("url"); u != "" {
		cfg.TUI.URL = u
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunTUI(ctx, internal.WithConfig(cfg))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func summary(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunSummary(ctx, os.Stdout, internal.WithConfig(cfg))
}

func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "url",
		Usage:   "Read the document from a running prdboard server instead of the local file",
		Sources: cli.EnvVars("PRDBOARD_URL"),
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "prdboard",
		Usage:   "Read-only Kanban dashboard for a prd.json project requirements document",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to prd.json (overrides prd.path)",
				Sources: cli.EnvVars("PRDBOARD_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the web dashboard, JSON API and metrics",
				Action: serve,
			},
			{
				Name:   "tui",
				Usage:  "Show the dashboard in the terminal",
				Flags:  []cli.Flag{urlFlag()},
				Action: runTUI,
			},
			{
				Name:   "mcp",
				Usage:  "Expose progress tools to LLM clients over stdio",
				Flags:  []cli.Flag{urlFlag()},
				Action: runMCP,
			},
			{
				Name:   "summary",
				Usage:  "Print overall progress and per-status counts once",
				Flags:  []cli.Flag{urlFlag()},
				Action: summary,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
