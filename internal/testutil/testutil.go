// Package testutil provides shared test helpers: fixture documents,
// prd.json writers and a throwaway preference database.
package testutil

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/prdboard/internal/models"
	"github.com/starford/prdboard/internal/prefs"
)

// Seconds returns a pointer to v for DurationSeconds fields.
func Seconds(v float64) *float64 {
	return &v
}

// SampleDocument returns a document with one finished feature, one feature
// in flight and one feature with no stories.
//
//	F-001 Auth:      US-001 done, US-002 done
//	F-002 Dashboard: US-003 backlog, US-004 in-progress, US-005 done, US-006 backlog
//	F-003 Export:    (no stories)
func SampleDocument() *models.Document {
	dep := "F-001"
	return &models.Document{
		Project:     "Kanban Tracker",
		Description: "Visualise prd.json as a board",
		Features: []models.Feature{
			{
				ID:         "F-001",
				Name:       "Auth",
				BranchName: "feature/auth",
				UserStories: []models.Story{
					{ID: "US-001", Title: "Login", Description: "As a user I can **log in**", Priority: 1, Passes: true,
						StartedAt: "2024-01-01T10:00:00Z", CompletedAt: "2024-01-01T12:15:00Z", DurationSeconds: Seconds(8100)},
					{ID: "US-002", Title: "Logout", Priority: 2, Passes: true, StartedAt: "2024-01-02T10:00:00Z"},
				},
			},
			{
				ID:         "F-002",
				Name:       "Dashboard",
				BranchName: "feature/dashboard",
				DependsOn:  &dep,
				UserStories: []models.Story{
					{ID: "US-003", Title: "Columns", Priority: 3},
					{ID: "US-004", Title: "Cards", Priority: 1, StartedAt: "2024-01-03T09:00:00Z"},
					{ID: "US-005", Title: "Header", Priority: 2, Passes: true, DurationSeconds: Seconds(2700)},
					{ID: "US-006", Title: "Polling", Priority: 4},
				},
			},
			{
				ID:          "F-003",
				Name:        "Export",
				BranchName:  "feature/export",
				UserStories: []models.Story{},
			},
		},
	}
}

// WritePRD marshals doc to dir/prd.json and returns the file path.
func WritePRD(t *testing.T, dir string, doc *models.Document) string {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	return WriteRaw(t, dir, string(data))
}

// WriteRaw writes content verbatim to dir/prd.json and returns the file path.
func WriteRaw(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "prd.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestPrefs opens a SQLite preference store in a temp directory.
func TestPrefs(t *testing.T) *prefs.SQLiteStore {
	t.Helper()
	store, err := prefs.OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Logger returns a logger that discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
