package prdsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/checksum"
)

// FileSource reads the document from a local JSON file.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file the source reads.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and decodes the file. A missing file wraps apperr.ErrNotFound.
func (s *FileSource) Load(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("prdsource: read %s: %w", s.path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("prdsource: read %s: %w", s.path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("prdsource: decode %s: %w", s.path, err)
	}
	return &Result{Document: doc, Checksum: checksum.Sum(data)}, nil
}
