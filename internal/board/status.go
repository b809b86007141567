// Package board derives story status and computes the groupings and
// progress figures shown by every prdboard view.
//
// Everything here is a pure function of an already-loaded document.
// Nothing is cached: callers recompute on every render, which keeps the
// per-status counts and the story total consistent by construction.
package board

import (
	"fmt"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/models"
)

// Status is the derived state of a story.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every status in board column order.
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusDone}

// StatusOf derives a story's status from Passes and StartedAt only.
func StatusOf(s models.Story) Status {
	if s.Passes {
		return StatusDone
	}
	if s.StartedAt != "" {
		return StatusInProgress
	}
	return StatusBacklog
}

// Label returns the human-readable column title.
func (s Status) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s == StatusBacklog || s == StatusInProgress || s == StatusDone
}

// ParseStatus converts a wire name ("backlog", "in-progress", "done").
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("board: unknown status %q: %w", v, apperr.ErrInvalid)
	}
	return s, nil
}
