package api

import (
	"time"

	"github.com/starford/prdboard/internal/board"
)

// StateResponse describes the refresh loop.
type StateResponse struct {
	State    string     `json:"state" example:"ready" validate:"required"`
	Checksum string     `json:"checksum,omitempty" example:"9f86d081884c7d65..."`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Error    string     `json:"error,omitempty" example:"prd.json not found"`
}

// SummaryResponse is the full view model plus the loader state.
type SummaryResponse struct {
	StateResponse
	board.Summary
}

// BoardResponse wraps the requested columns.
type BoardResponse struct {
	Columns []board.Column `json:"columns" validate:"required"`
}

// PreferencesResponse holds the effective view and theme.
type PreferencesResponse struct {
	View  string `json:"view" example:"board" validate:"required"`
	Theme string `json:"theme" example:"dark" validate:"required"`
}

// PreferenceRequest is the body of PUT /api/preferences/{key}.
type PreferenceRequest struct {
	Value string `json:"value" example:"list" validate:"required"`
}
