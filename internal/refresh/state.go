// Package refresh keeps the current document up to date: it loads it once,
// re-loads it on a fixed interval or on demand, and exposes the result as
// an immutable Snapshot.
package refresh

import (
	"errors"
	"time"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/models"
	"github.com/starford/prdboard/internal/prdsource"
)

// State is the loader state shown to the user.
type State string

const (
	StateInitialLoading State = "initial-loading"
	StateReady          State = "ready"
	StateMissing        State = "load-failed-missing"
	StateError          State = "load-failed-error"
)

// Snapshot is an immutable view of the loop. Document is non-nil only in
// StateReady and is never modified after publication.
type Snapshot struct {
	State    State
	Document *models.Document
	Checksum string
	LoadedAt time.Time
	// Err is the failure behind StateMissing or StateError.
	Err error
}

// Ready reports whether a document is available for display.
func (s Snapshot) Ready() bool {
	return s.State == StateReady && s.Document != nil
}

// transition applies one load result to cur. changed reports whether the
// state or the document content differs from cur.
//
// Once ready, failures never leave the ready state: the previous document
// stays authoritative.
func transition(cur Snapshot, res *prdsource.Result, err error, now time.Time) (next Snapshot, changed bool) {
	if err == nil {
		next = Snapshot{
			State:    StateReady,
			Document: res.Document,
			Checksum: res.Checksum,
			LoadedAt: now,
		}
		return next, cur.State != StateReady || cur.Checksum != res.Checksum
	}

	if cur.State == StateReady {
		return cur, false
	}

	next = Snapshot{State: StateError, Err: err}
	if errors.Is(err, apperr.ErrNotFound) {
		next.State = StateMissing
	}
	return next, next.State != cur.State
}
