package board

import "github.com/starford/prdboard/internal/models"

// Item is a story together with its derived display fields.
type Item struct {
	Story    models.Story `json:"story"`
	Status   Status       `json:"status"`
	Label    string       `json:"label"`
	Duration string       `json:"duration"`
}

func newItem(s models.Story) Item {
	st := StatusOf(s)
	return Item{Story: s, Status: st, Label: st.Label(), Duration: StoryDuration(s)}
}

// StoriesByStatus returns the feature's stories whose status matches,
// in their original order.
func StoriesByStatus(f models.Feature, status Status) []models.Story {
	var out []models.Story
	for _, s := range f.UserStories {
		if StatusOf(s) == status {
			out = append(out, s)
		}
	}
	return out
}

// FeatureGroup is one feature's slice of a board column. Progress covers
// all of the feature's stories, not only the ones in the column.
type FeatureGroup struct {
	FeatureID string   `json:"feature_id"`
	Name      string   `json:"name"`
	Progress  Progress `json:"progress"`
	Items     []Item   `json:"items"`
}

// FeaturesForStatus returns a group for every feature that has at least
// one story in status. Features without matching stories are left out.
func FeaturesForStatus(doc *models.Document, status Status) []FeatureGroup {
	if doc == nil {
		return nil
	}
	var groups []FeatureGroup
	for _, f := range doc.Features {
		stories := StoriesByStatus(f, status)
		if len(stories) == 0 {
			continue
		}
		items := make([]Item, 0, len(stories))
		for _, s := range stories {
			items = append(items, newItem(s))
		}
		groups = append(groups, FeatureGroup{
			FeatureID: f.ID,
			Name:      f.Name,
			Progress:  FeatureProgress(f),
			Items:     items,
		})
	}
	return groups
}

// Column is one status column of the board.
type Column struct {
	Status Status         `json:"status"`
	Label  string         `json:"label"`
	Count  int            `json:"count"`
	Groups []FeatureGroup `json:"groups"`
	// Empty is set when no feature has a story in this status; the column
	// then shows a single placeholder.
	Empty bool `json:"empty"`
}

// ColumnFor builds the column for one status.
func ColumnFor(doc *models.Document, status Status) Column {
	count := CountByStatus(doc, status)
	return Column{
		Status: status,
		Label:  status.Label(),
		Count:  count,
		Groups: FeaturesForStatus(doc, status),
		Empty:  count == 0,
	}
}

// Columns builds all three board columns in display order.
func Columns(doc *models.Document) []Column {
	cols := make([]Column, 0, len(Statuses))
	for _, st := range Statuses {
		cols = append(cols, ColumnFor(doc, st))
	}
	return cols
}

// Section is one feature in the list view.
type Section struct {
	FeatureID  string   `json:"feature_id"`
	Name       string   `json:"name"`
	BranchName string   `json:"branch_name"`
	Progress   Progress `json:"progress"`
	Items      []Item   `json:"items"`
}

// Sections groups the document by feature for the list view. Every feature
// is present, including ones with no stories, and stories keep their
// original order regardless of status or priority.
func Sections(doc *models.Document) []Section {
	if doc == nil {
		return nil
	}
	out := make([]Section, 0, len(doc.Features))
	for _, f := range doc.Features {
		items := make([]Item, 0, len(f.UserStories))
		for _, s := range f.UserStories {
			items = append(items, newItem(s))
		}
		out = append(out, Section{
			FeatureID:  f.ID,
			Name:       f.Name,
			BranchName: f.BranchName,
			Progress:   FeatureProgress(f),
			Items:      items,
		})
	}
	return out
}
