package board

import "github.com/starford/prdboard/internal/models"

// Summary is the complete view model for one render of a document.
type Summary struct {
	Project     string    `json:"project"`
	Description string    `json:"description"`
	Overall     Progress  `json:"overall"`
	Percent     int       `json:"percent"`
	Counts      Counts    `json:"counts"`
	Columns     []Column  `json:"columns"`
	Sections    []Section `json:"sections"`
	// Empty marks a loaded document with no features, which renders its own
	// "no features" state. It is false when there is no document at all.
	Empty bool `json:"empty"`
}

// Summarize computes every figure the views need from doc. A nil doc gives
// the zero Summary.
func Summarize(doc *models.Document) Summary {
	if doc == nil {
		return Summary{}
	}
	overall := OverallProgress(doc)
	return Summary{
		Project:     doc.Project,
		Description: doc.Description,
		Overall:     overall,
		Percent:     overall.RoundedPercent(),
		Counts:      CountAll(doc),
		Columns:     Columns(doc),
		Sections:    Sections(doc),
		Empty:       len(doc.Features) == 0,
	}
}
