package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/refresh"
)

// Error messages for a document that cannot be shown.
const (
	msgNotFound = "prd.json not found"
	msgInvalid  = "Invalid JSON in prd.json"
	msgFailed   = "Failed to read prd.json"
	msgLoading  = "loading"

	msgBadStatus   = "status must be one of backlog, in-progress, done"
	msgBadBody     = "invalid JSON body"
	msgUnknownPref = "unknown preference"
	msgInternal    = "internal error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encode response", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" example:"prd.json not found"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResponse{Error: msg})
}

// unavailable maps a snapshot without a document to a status and message.
func unavailable(snap refresh.Snapshot) (int, string) {
	switch snap.State {
	case refresh.StateMissing:
		return http.StatusNotFound, msgNotFound
	case refresh.StateError:
		if errors.Is(snap.Err, apperr.ErrMalformed) {
			return http.StatusBadRequest, msgInvalid
		}
		return http.StatusInternalServerError, msgFailed
	default:
		return http.StatusServiceUnavailable, msgLoading
	}
}

// writeUnavailable answers a request that needs a document when snap has
// none.
func writeUnavailable(w http.ResponseWriter, snap refresh.Snapshot) {
	status, msg := unavailable(snap)
	writeError(w, status, msg)
}
