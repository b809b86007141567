package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
)

// Loader is the part of the refresh loop the API reads from.
type Loader interface {
	Snapshot() refresh.Snapshot
	Reload(ctx context.Context) refresh.Snapshot
}

// NewRouter creates a chi router with all API routes mounted.
// events, if non-nil, is mounted at GET /events.
func NewRouter(loader Loader, store prefs.Store, events http.Handler) chi.Router {
	h := NewHandler(loader, store)

	r := chi.NewRouter()
	r.Use(NoCache)

	// Document and derived views.
	r.Get("/prd", h.GetPRD)
	r.Get("/summary", h.Summary)
	r.Get("/board", h.Board)
	r.Post("/reload", h.Reload)

	// Preferences.
	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences/{key}", h.PutPreference)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
