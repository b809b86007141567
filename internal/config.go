package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	PRD   PRDConfig         `yaml:"prd"`
	Prefs PrefsConfig       `yaml:"prefs"`
	SSE   SSEConfig         `yaml:"sse"`
	TUI   TUIConfig         `yaml:"tui"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.PRD.Validate(); err != nil {
		return fmt.Errorf("prd: %w", err)
	}
	if err := c.Prefs.Validate(); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	if err := c.SSE.Validate(); err != nil {
		return fmt.Errorf("sse: %w", err)
	}
	if err := c.TUI.Validate(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// PRDConfig says where the document lives and how often to re-read it.
type PRDConfig struct {
	Path         string        `yaml:"path"`
	PollInterval time.Duration `yaml:"poll_interval"`
	// Watch additionally reloads as soon as the file changes on disk.
	Watch bool `yaml:"watch"`
}

// Validate validates the document configuration.
func (c *PRDConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// PrefsConfig holds the preference database location.
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the preference store configuration.
func (c *PrefsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SSEConfig holds the event stream throttle.
type SSEConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the SSE configuration.
func (c *SSEConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// TUIConfig configures the terminal dashboard. When URL is set the TUI
// reads the document from a running server instead of the local file.
type TUIConfig struct {
	URL         string        `yaml:"url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// Validate validates the TUI configuration.
func (c *TUIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, is.URL),
		validation.Field(&c.HTTPTimeout, validation.Required, validation.Min(time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		PRD: PRDConfig{
			Path:         "./prd.json",
			PollInterval: 30 * time.Second,
			Watch:        true,
		},
		Prefs: PrefsConfig{
			Path: "./prdboard.db",
		},
		SSE: SSEConfig{
			Throttle: 2 * time.Second,
		},
		TUI: TUIConfig{
			HTTPTimeout: 10 * time.Second,
		},
	}
}
