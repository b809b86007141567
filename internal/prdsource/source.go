// Package prdsource loads the project-requirements document from a file or
// from a running prdboard server.
package prdsource

import (
	"context"
	"errors"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/models"
)

// Source loads the current document.
//
// Errors wrapping apperr.ErrNotFound mean the document does not exist;
// errors wrapping apperr.ErrMalformed mean it exists but cannot be used.
// Anything else is a transient failure.
type Source interface {
	Load(ctx context.Context) (*Result, error)
}

// Result is one successfully loaded document.
type Result struct {
	Document *models.Document
	// Checksum is the SHA-256 digest of the raw document bytes.
	Checksum string
}

// Outcome labels a load attempt for logs and metrics.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeMissing   Outcome = "missing"
	OutcomeMalformed Outcome = "malformed"
	OutcomeError     Outcome = "error"
)

// Classify maps a Load error to its Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, apperr.ErrNotFound):
		return OutcomeMissing
	case errors.Is(err, apperr.ErrMalformed):
		return OutcomeMalformed
	default:
		return OutcomeError
	}
}
