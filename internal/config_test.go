package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/prdboard/pkg/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.App.HTTP.Port = 0 }, "Port"},
		{"port too large", func(c *Config) { c.App.HTTP.Port = 70000 }, "Port"},
		{"empty prd path", func(c *Config) { c.PRD.Path = "" }, "prd"},
		{"poll too fast", func(c *Config) { c.PRD.PollInterval = 10 * time.Millisecond }, "prd"},
		{"empty prefs path", func(c *Config) { c.Prefs.Path = "" }, "prefs"},
		{"negative throttle", func(c *Config) { c.SSE.Throttle = -time.Second }, "sse"},
		{"bad tui url", func(c *Config) { c.TUI.URL = "not a url" }, "tui"},
		{"zero tui timeout", func(c *Config) { c.TUI.HTTPTimeout = 0 }, "tui"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_LoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("PRDBOARD_TEST_PORT", "9090")
	content := `
app:
  log_level: DEBUG
  http:
    port: ${PRDBOARD_TEST_PORT}
prd:
  path: /srv/prd.json
  poll_interval: 5s
  watch: false
tui:
  url: http://localhost:9090
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
	if cfg.PRD.Path != "/srv/prd.json" || cfg.PRD.PollInterval != 5*time.Second || cfg.PRD.Watch {
		t.Errorf("prd = %+v", cfg.PRD)
	}
	// Untouched sections keep their defaults.
	if cfg.Prefs.Path != "./prdboard.db" || cfg.SSE.Throttle != 2*time.Second {
		t.Errorf("defaults lost: prefs %+v sse %+v", cfg.Prefs, cfg.SSE)
	}
	if cfg.TUI.URL != "http://localhost:9090" || cfg.TUI.HTTPTimeout != 10*time.Second {
		t.Errorf("tui = %+v", cfg.TUI)
	}
}
