package prdsource

import (
	"bytes"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/models"
)

// Decode parses raw bytes into a Document and checks its shape. Every
// failure wraps apperr.ErrMalformed; a partially valid document is never
// returned.
func Decode(data []byte) (*models.Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", apperr.ErrMalformed)
	}

	var doc models.Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	if err := Validate(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	return &doc, nil
}

// Validate checks the structural rules the views depend on: a features
// list must be present, and every feature and story carries an id and
// (for features) a userStories list. Dangling dependsOn references and
// duplicate ids are tolerated.
func Validate(doc *models.Document) error {
	if err := validation.ValidateStruct(doc,
		validation.Field(&doc.Features, validation.NotNil),
	); err != nil {
		return err
	}

	for i := range doc.Features {
		f := &doc.Features[i]
		if err := validation.ValidateStruct(f,
			validation.Field(&f.ID, validation.Required),
			validation.Field(&f.UserStories, validation.NotNil),
		); err != nil {
			return fmt.Errorf("features[%d]: %w", i, err)
		}
		for j := range f.UserStories {
			s := &f.UserStories[j]
			if err := validation.ValidateStruct(s,
				validation.Field(&s.ID, validation.Required),
			); err != nil {
				return fmt.Errorf("features[%d].userStories[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}
