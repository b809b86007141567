// Package prefs persists the dashboard's view and theme choices.
package prefs

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/prdboard/internal/apperr"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the stored value and whether one exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Preference keys. View and theme are stored independently.
const (
	KeyView  = "view"
	KeyTheme = "theme"
)

// ViewMode selects the board or the list layout.
type ViewMode string

const (
	ViewBoard ViewMode = "board"
	ViewList  ViewMode = "list"
)

// Toggle returns the other view mode.
func (v ViewMode) Toggle() ViewMode {
	if v == ViewList {
		return ViewBoard
	}
	return ViewList
}

// Theme selects the light or dark palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseView validates a stored or submitted view mode.
func ParseView(v string) (ViewMode, error) {
	if err := validation.Validate(v, validation.Required, validation.In(string(ViewBoard), string(ViewList))); err != nil {
		return "", fmt.Errorf("prefs: view %q: %v: %w", v, err, apperr.ErrInvalid)
	}
	return ViewMode(v), nil
}

// ParseTheme validates a stored or submitted theme.
func ParseTheme(v string) (Theme, error) {
	if err := validation.Validate(v, validation.Required, validation.In(string(ThemeLight), string(ThemeDark))); err != nil {
		return "", fmt.Errorf("prefs: theme %q: %v: %w", v, err, apperr.ErrInvalid)
	}
	return Theme(v), nil
}

// LoadView returns the stored view mode, or ViewBoard when none is stored,
// the stored value is unrecognised or the store fails.
func LoadView(ctx context.Context, s Store) ViewMode {
	raw, ok, err := s.Get(ctx, KeyView)
	if err != nil || !ok {
		return ViewBoard
	}
	v, err := ParseView(raw)
	if err != nil {
		return ViewBoard
	}
	return v
}

// LoadTheme returns the stored theme, or ambient when none is stored, the
// stored value is unrecognised or the store fails.
func LoadTheme(ctx context.Context, s Store, ambient Theme) Theme {
	raw, ok, err := s.Get(ctx, KeyTheme)
	if err != nil || !ok {
		return ambient
	}
	t, err := ParseTheme(raw)
	if err != nil {
		return ambient
	}
	return t
}

// SaveView validates and stores a view mode.
func SaveView(ctx context.Context, s Store, v string) (ViewMode, error) {
	mode, err := ParseView(v)
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, KeyView, string(mode)); err != nil {
		return "", err
	}
	return mode, nil
}

// SaveTheme validates and stores a theme.
func SaveTheme(ctx context.Context, s Store, v string) (Theme, error) {
	theme, err := ParseTheme(v)
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, KeyTheme, string(theme)); err != nil {
		return "", err
	}
	return theme, nil
}

// AmbientTheme maps a Sec-CH-Prefers-Color-Scheme client hint to a theme.
// Browsers that send no hint get ThemeLight; the page stylesheet still
// follows prefers-color-scheme for them.
func AmbientTheme(hint string) Theme {
	if strings.EqualFold(strings.Trim(strings.TrimSpace(hint), `"`), "dark") {
		return ThemeDark
	}
	return ThemeLight
}
