// Package web renders the server-side HTML dashboard.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/prdboard/internal/board"
	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// DefaultPRDPath is shown in the setup guidance when no path is configured.
const DefaultPRDPath = "./prd.json"

// Loader is the part of the refresh loop the page reads from.
type Loader interface {
	Snapshot() refresh.Snapshot
}

// Option configures a Handler.
type Option func(*Handler)

// WithPollInterval sets the fallback page refresh used when the browser
// cannot subscribe to server events.
func WithPollInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.poll = d
		}
	}
}

// WithPRDPath sets the document location shown in the setup guidance.
func WithPRDPath(path string) Option {
	return func(h *Handler) {
		if path != "" {
			h.prdPath = path
		}
	}
}

// WithLogger sets the logger used for render failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Handler serves the dashboard page and its preference forms.
type Handler struct {
	loader  Loader
	prefs   prefs.Store
	poll    time.Duration
	prdPath string
	logger  *slog.Logger
	tmpl    *template.Template
	md      goldmark.Markdown
}

// NewHandler parses the embedded templates. It panics if they are invalid,
// which can only happen with a broken build.
func NewHandler(loader Loader, store prefs.Store, opts ...Option) *Handler {
	h := &Handler{
		loader:  loader,
		prefs:   store,
		poll:    refresh.DefaultInterval,
		prdPath: DefaultPRDPath,
		logger:  slog.Default(),
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.tmpl = template.Must(template.New("page.html").Funcs(template.FuncMap{
		"markdown": h.markdown,
		"pct": func(p board.Progress) int {
			return p.RoundedPercent()
		},
	}).ParseFS(templateFS, "templates/*.html"))
	return h
}

// Routes mounts the page, the preference forms and the static assets.
func (h *Handler) Routes(r chi.Router) {
	static, _ := fs.Sub(staticFS, "static")
	r.Get("/", h.Index)
	r.Post("/prefs/view", h.SetView)
	r.Post("/prefs/theme", h.SetTheme)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

// markdown renders a story description. Raw HTML in the source is dropped.
func (h *Handler) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
