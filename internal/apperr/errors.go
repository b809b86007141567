// Package apperr holds the sentinel errors shared across prdboard packages.
package apperr

import "errors"

var (
	// ErrNotFound reports that the document source has nothing to return.
	ErrNotFound = errors.New("not found")
	// ErrMalformed reports a document that is not valid JSON or does not match the expected shape.
	ErrMalformed = errors.New("malformed document")
	// ErrInvalid reports a rejected input value (status filter, preference value).
	ErrInvalid = errors.New("invalid value")
)
