package web

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/board"
	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
)

// emptyState is shown instead of the board when there is nothing to render.
type emptyState struct {
	Title   string
	Message string
	// Location is the expected document path. When set, the page adds
	// setup guidance.
	Location string
	// Loading marks the page that is shown until the first load completes.
	Loading bool
}

type pageData struct {
	View        prefs.ViewMode
	Theme       prefs.Theme
	State       refresh.State
	PollSeconds int
	Empty       *emptyState
	Summary     board.Summary
}

func (d pageData) Board() bool { return d.View == prefs.ViewBoard }

// emptyFor returns the empty state for snap, or nil when the board can be
// rendered. location is the configured document path.
func emptyFor(snap refresh.Snapshot, location string) *emptyState {
	switch snap.State {
	case refresh.StateInitialLoading:
		return &emptyState{Title: "Loading…", Message: "Reading prd.json.", Loading: true}
	case refresh.StateMissing:
		return &emptyState{
			Title:    "No PRD Found",
			Message:  "The prd.json file is missing or could not be loaded.",
			Location: location,
		}
	case refresh.StateError:
		msg := "There was a problem loading the prd.json file. Please check the server log for details."
		if errors.Is(snap.Err, apperr.ErrMalformed) {
			msg = "The prd.json file is not a valid document. Please check the server log for details."
		}
		return &emptyState{Title: "Error Loading PRD", Message: msg}
	}
	if snap.Document == nil || len(snap.Document.Features) == 0 {
		return &emptyState{
			Title:   "No Features Found",
			Message: "The prd.json file exists but contains no features. Add some features to get started.",
		}
	}
	return nil
}

// Index handles GET /. A view query parameter overrides the stored view for
// this request only.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := h.loader.Snapshot()

	view := prefs.LoadView(ctx, h.prefs)
	if q := r.URL.Query().Get("view"); q != "" {
		if v, err := prefs.ParseView(q); err == nil {
			view = v
		}
	}
	ambient := prefs.AmbientTheme(r.Header.Get("Sec-CH-Prefers-Color-Scheme"))

	data := pageData{
		View:        view,
		Theme:       prefs.LoadTheme(ctx, h.prefs, ambient),
		State:       snap.State,
		PollSeconds: int(h.poll.Seconds()),
		Empty:       emptyFor(snap, h.prdPath),
	}
	if data.Empty == nil {
		data.Summary = board.Summarize(snap.Document)
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "page.html", data); err != nil {
		h.logger.Error("web: render failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	_, _ = w.Write(buf.Bytes())
}

// SetView handles POST /prefs/view. An empty value toggles the stored view.
func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	value := r.FormValue("value")
	if value == "" {
		value = string(prefs.LoadView(ctx, h.prefs).Toggle())
	}
	if _, err := prefs.SaveView(ctx, h.prefs, value); err != nil {
		h.prefError(w, "view", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SetTheme handles POST /prefs/theme. An empty value toggles the effective
// theme.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	value := r.FormValue("value")
	if value == "" {
		ambient := prefs.AmbientTheme(r.Header.Get("Sec-CH-Prefers-Color-Scheme"))
		value = string(prefs.LoadTheme(ctx, h.prefs, ambient).Toggle())
	}
	if _, err := prefs.SaveTheme(ctx, h.prefs, value); err != nil {
		h.prefError(w, "theme", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) prefError(w http.ResponseWriter, key string, err error) {
	if errors.Is(err, apperr.ErrInvalid) {
		http.Error(w, "invalid "+key, http.StatusBadRequest)
		return
	}
	h.logger.Error("web: save preference failed", slog.String("key", key), slog.String("error", err.Error()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
