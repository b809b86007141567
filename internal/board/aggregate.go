package board

import (
	"math"

	"github.com/starford/prdboard/internal/models"
)

// Progress is a completed/total pair. Completed counts stories with Passes set.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent returns the exact completion percentage; 0 when Total is 0.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// RoundedPercent returns Percent rounded to the nearest integer.
func (p Progress) RoundedPercent() int {
	return int(math.Round(p.Percent()))
}

// FeatureProgress reports how many of a feature's stories pass.
func FeatureProgress(f models.Feature) Progress {
	p := Progress{Total: len(f.UserStories)}
	for _, s := range f.UserStories {
		if s.Passes {
			p.Completed++
		}
	}
	return p
}

// OverallProgress is the progress of the whole document: done stories out
// of every story.
func OverallProgress(doc *models.Document) Progress {
	return Progress{
		Completed: CountByStatus(doc, StatusDone),
		Total:     TotalStories(doc),
	}
}

// CountByStatus counts stories across all features whose derived status is status.
func CountByStatus(doc *models.Document, status Status) int {
	if doc == nil {
		return 0
	}
	n := 0
	for _, f := range doc.Features {
		for _, s := range f.UserStories {
			if StatusOf(s) == status {
				n++
			}
		}
	}
	return n
}

// TotalStories counts every story in the document.
func TotalStories(doc *models.Document) int {
	if doc == nil {
		return 0
	}
	n := 0
	for _, f := range doc.Features {
		n += len(f.UserStories)
	}
	return n
}

// Counts holds the number of stories in each status.
type Counts struct {
	Backlog    int `json:"backlog"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// CountAll tallies every story by status in a single pass.
func CountAll(doc *models.Document) Counts {
	var c Counts
	if doc == nil {
		return c
	}
	for _, f := range doc.Features {
		for _, s := range f.UserStories {
			switch StatusOf(s) {
			case StatusBacklog:
				c.Backlog++
			case StatusInProgress:
				c.InProgress++
			case StatusDone:
				c.Done++
			}
		}
	}
	return c
}

// Get returns the count for one status.
func (c Counts) Get(s Status) int {
	switch s {
	case StatusBacklog:
		return c.Backlog
	case StatusInProgress:
		return c.InProgress
	case StatusDone:
		return c.Done
	}
	return 0
}

// Total is the sum over all three statuses.
func (c Counts) Total() int {
	return c.Backlog + c.InProgress + c.Done
}
