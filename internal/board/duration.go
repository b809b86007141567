package board

import (
	"fmt"
	"math"

	"github.com/starford/prdboard/internal/models"
)

// FormatDuration renders seconds as "2h 15m", "45m", "1h" or "0m".
// Partial minutes are truncated. A nil duration renders as "-".
func FormatDuration(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	s := *seconds
	if s <= 0 {
		return "0m"
	}

	hours := int64(math.Floor(s / 3600))
	minutes := int64(math.Floor(math.Mod(s, 3600) / 60))

	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

// StoryDuration is the duration shown next to a story: only done stories
// that recorded a duration show one.
func StoryDuration(s models.Story) string {
	if StatusOf(s) != StatusDone || s.DurationSeconds == nil {
		return "-"
	}
	return FormatDuration(s.DurationSeconds)
}
