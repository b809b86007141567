package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/board"
	"github.com/starford/prdboard/internal/checksum"
	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
)

// Handler holds API route handlers.
type Handler struct {
	loader Loader
	prefs  prefs.Store
}

// NewHandler creates a new Handler.
func NewHandler(loader Loader, store prefs.Store) *Handler {
	return &Handler{loader: loader, prefs: store}
}

func stateOf(snap refresh.Snapshot) StateResponse {
	resp := StateResponse{State: string(snap.State), Checksum: snap.Checksum}
	if !snap.LoadedAt.IsZero() {
		t := snap.LoadedAt
		resp.LoadedAt = &t
	}
	if !snap.Ready() {
		_, resp.Error = unavailable(snap)
	}
	return resp
}

// GetPRD handles GET /api/prd.
//
//	@Summary		Get the current document
//	@Tags			prd
//	@Produce		json
//	@Param			If-None-Match	header	string	false	"ETag from a previous response"
//	@Success		200	{object}	models.Document
//	@Success		304	"Not modified"
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		500	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Router			/prd [get]
func (h *Handler) GetPRD(w http.ResponseWriter, r *http.Request) {
	snap := h.loader.Snapshot()
	if !snap.Ready() {
		writeUnavailable(w, snap)
		return
	}

	etag := checksum.ETag(snap.Checksum)
	w.Header().Set("ETag", etag)
	if checksum.MatchETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, snap.Document)
}

// Summary handles GET /api/summary.
//
//	@Summary		Progress, counts, columns and sections for the current document
//	@Tags			prd
//	@Produce		json
//	@Success		200	{object}	SummaryResponse
//	@Router			/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	snap := h.loader.Snapshot()
	writeJSON(w, http.StatusOK, SummaryResponse{
		StateResponse: stateOf(snap),
		Summary:       board.Summarize(snap.Document),
	})
}

// Board handles GET /api/board.
//
//	@Summary		Board columns, optionally a single status
//	@Tags			prd
//	@Produce		json
//	@Param			status	query		string	false	"Column status"	Enums(backlog, in-progress, done)
//	@Success		200		{object}	BoardResponse
//	@Failure		400		{object}	errResponse
//	@Router			/board [get]
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	snap := h.loader.Snapshot()
	if !snap.Ready() {
		writeUnavailable(w, snap)
		return
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := board.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, msgBadStatus)
			return
		}
		writeJSON(w, http.StatusOK, BoardResponse{Columns: []board.Column{board.ColumnFor(snap.Document, st)}})
		return
	}
	writeJSON(w, http.StatusOK, BoardResponse{Columns: board.Columns(snap.Document)})
}

// Reload handles POST /api/reload.
//
//	@Summary		Reload the document now
//	@Tags			prd
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Router			/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	snap := h.loader.Reload(r.Context())
	writeJSON(w, http.StatusOK, stateOf(snap))
}

// GetPreferences handles GET /api/preferences.
//
//	@Summary		Effective view and theme
//	@Tags			preferences
//	@Produce		json
//	@Param			Sec-CH-Prefers-Color-Scheme	header	string	false	"Ambient colour scheme"
//	@Success		200	{object}	PreferencesResponse
//	@Router			/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ambient := prefs.AmbientTheme(r.Header.Get("Sec-CH-Prefers-Color-Scheme"))
	writeJSON(w, http.StatusOK, PreferencesResponse{
		View:  string(prefs.LoadView(r.Context(), h.prefs)),
		Theme: string(prefs.LoadTheme(r.Context(), h.prefs, ambient)),
	})
}

// PutPreference handles PUT /api/preferences/{key}.
//
//	@Summary		Store the view or the theme
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string				true	"Preference key"	Enums(view, theme)
//	@Param			body	body		PreferenceRequest	true	"New value"
//	@Success		200		{object}	PreferenceRequest
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/preferences/{key} [put]
func (h *Handler) PutPreference(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)
	var req PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	key := chi.URLParam(r, "key")
	var (
		value string
		err   error
	)
	switch key {
	case prefs.KeyView:
		var v prefs.ViewMode
		v, err = prefs.SaveView(r.Context(), h.prefs, req.Value)
		value = string(v)
	case prefs.KeyTheme:
		var t prefs.Theme
		t, err = prefs.SaveTheme(r.Context(), h.prefs, req.Value)
		value = string(t)
	default:
		writeError(w, http.StatusNotFound, msgUnknownPref)
		return
	}

	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			writeError(w, http.StatusBadRequest, "invalid "+key)
		} else {
			slog.Error("api: save preference", slog.String("key", key), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}
	writeJSON(w, http.StatusOK, PreferenceRequest{Value: value})
}
