package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/prdsource"
	"github.com/starford/prdboard/internal/refresh"
	"github.com/starford/prdboard/internal/testutil"
)

// testEnv builds a loop over dir/prd.json and a router in front of it.
// Nothing is loaded until the test calls loop.Reload.
func testEnv(t *testing.T) (dir string, loop *refresh.Loop, router http.Handler) {
	t.Helper()
	dir = t.TempDir()
	loop = refresh.New(prdsource.NewFileSource(filepath.Join(dir, "prd.json")), refresh.WithLogger(testutil.Logger()))
	router = NewRouter(loop, testutil.TestPrefs(t), nil)
	return dir, loop, router
}

func do(t *testing.T, router http.Handler, method, target string, body []byte, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestGetPRD_Loading(t *testing.T) {
	_, _, router := testEnv(t)
	w := do(t, router, http.MethodGet, "/prd", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	if got := errorOf(t, w); got != "loading" {
		t.Errorf("error = %q", got)
	}
}

func TestGetPRD_FailureStates(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		status  int
		message string
	}{
		{"missing", func(*testing.T, string) {}, http.StatusNotFound, "prd.json not found"},
		{"malformed", func(t *testing.T, dir string) { testutil.WriteRaw(t, dir, "{not json") }, http.StatusBadRequest, "Invalid JSON in prd.json"},
		{"unreadable", func(t *testing.T, dir string) {
			if err := os.Mkdir(filepath.Join(dir, "prd.json"), 0o755); err != nil {
				t.Fatal(err)
			}
		}, http.StatusInternalServerError, "Failed to read prd.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, loop, router := testEnv(t)
			tt.setup(t, dir)
			loop.Reload(context.Background())

			w := do(t, router, http.MethodGet, "/prd", nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if got := errorOf(t, w); got != tt.message {
				t.Errorf("error = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestGetPRD_ReadyAndETag(t *testing.T) {
	dir, loop, router := testEnv(t)
	testutil.WritePRD(t, dir, testutil.SampleDocument())
	loop.Reload(context.Background())

	w := do(t, router, http.MethodGet, "/prd", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
	var doc struct {
		Project  string            `json:"project"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Project != "Kanban Tracker" || len(doc.Features) != 3 {
		t.Errorf("doc = %+v", doc)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	w = do(t, router, http.MethodGet, "/prd", nil, "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", w.Code)
	}

	// A changed file produces a new ETag.
	doc2 := testutil.SampleDocument()
	doc2.Project = "Renamed"
	testutil.WritePRD(t, dir, doc2)
	loop.Reload(context.Background())
	w = do(t, router, http.MethodGet, "/prd", nil, "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Errorf("status after change = %d, want 200", w.Code)
	}
}

func TestGetPRD_KeepsDocumentAfterFailure(t *testing.T) {
	dir, loop, router := testEnv(t)
	testutil.WritePRD(t, dir, testutil.SampleDocument())
	loop.Reload(context.Background())

	testutil.WriteRaw(t, dir, "[1,2")
	loop.Reload(context.Background())

	w := do(t, router, http.MethodGet, "/prd", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with previous document", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Kanban Tracker") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSummary(t *testing.T) {
	dir, loop, router := testEnv(t)
	testutil.WritePRD(t, dir, testutil.SampleDocument())
	loop.Reload(context.Background())

	w := do(t, router, http.MethodGet, "/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		State   string `json:"state"`
		Percent int    `json:"percent"`
		Counts  struct {
			Backlog    int `json:"backlog"`
			InProgress int `json:"in_progress"`
			Done       int `json:"done"`
		} `json:"counts"`
		Columns  []json.RawMessage `json:"columns"`
		Sections []json.RawMessage `json:"sections"`
		Empty    bool              `json:"empty"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.State != "ready" || resp.Percent != 50 {
		t.Errorf("state = %q, percent = %d", resp.State, resp.Percent)
	}
	if resp.Counts.Backlog != 2 || resp.Counts.InProgress != 1 || resp.Counts.Done != 3 {
		t.Errorf("counts = %+v", resp.Counts)
	}
	if len(resp.Columns) != 3 || len(resp.Sections) != 3 || resp.Empty {
		t.Errorf("columns = %d, sections = %d, empty = %v", len(resp.Columns), len(resp.Sections), resp.Empty)
	}
}

func TestSummary_Missing(t *testing.T) {
	_, loop, router := testEnv(t)
	loop.Reload(context.Background())

	w := do(t, router, http.MethodGet, "/summary", nil)
	var resp struct {
		State string `json:"state"`
		Error string `json:"error"`
		Empty bool   `json:"empty"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.State != "load-failed-missing" || resp.Error != "prd.json not found" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Empty {
		t.Error("missing document reported as empty")
	}
}

func TestBoard(t *testing.T) {
	dir, loop, router := testEnv(t)
	testutil.WritePRD(t, dir, testutil.SampleDocument())
	loop.Reload(context.Background())

	type column struct {
		Status string `json:"status"`
		Label  string `json:"label"`
		Count  int    `json:"count"`
		Groups []struct {
			FeatureID string `json:"feature_id"`
		} `json:"groups"`
	}
	var resp struct {
		Columns []column `json:"columns"`
	}

	w := do(t, router, http.MethodGet, "/board?status=in-progress", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Columns) != 1 || resp.Columns[0].Label != "In Progress" || resp.Columns[0].Count != 1 {
		t.Fatalf("columns = %+v", resp.Columns)
	}
	if len(resp.Columns[0].Groups) != 1 || resp.Columns[0].Groups[0].FeatureID != "F-002" {
		t.Errorf("groups = %+v", resp.Columns[0].Groups)
	}

	w = do(t, router, http.MethodGet, "/board", nil)
	resp.Columns = nil
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Columns) != 3 {
		t.Errorf("all columns = %d", len(resp.Columns))
	}

	w = do(t, router, http.MethodGet, "/board?status=blocked", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid status code = %d", w.Code)
	}
}

func TestReload(t *testing.T) {
	dir, _, router := testEnv(t)

	w := do(t, router, http.MethodPost, "/reload", nil)
	if !strings.Contains(w.Body.String(), `"state":"load-failed-missing"`) {
		t.Errorf("before write: %s", w.Body.String())
	}

	testutil.WritePRD(t, dir, testutil.SampleDocument())
	w = do(t, router, http.MethodPost, "/reload", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"state":"ready"`) {
		t.Errorf("after write: %d %s", w.Code, w.Body.String())
	}
}

func TestPreferences(t *testing.T) {
	_, _, router := testEnv(t)

	var prefs PreferencesResponse
	w := do(t, router, http.MethodGet, "/preferences", nil, "Sec-CH-Prefers-Color-Scheme", "dark")
	if err := json.Unmarshal(w.Body.Bytes(), &prefs); err != nil {
		t.Fatal(err)
	}
	if prefs.View != "board" || prefs.Theme != "dark" {
		t.Errorf("defaults = %+v", prefs)
	}

	w = do(t, router, http.MethodPut, "/preferences/view", []byte(`{"value":"list"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("put view = %d %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodPut, "/preferences/theme", []byte(`{"value":"light"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("put theme = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/preferences", nil, "Sec-CH-Prefers-Color-Scheme", "dark")
	if err := json.Unmarshal(w.Body.Bytes(), &prefs); err != nil {
		t.Fatal(err)
	}
	if prefs.View != "list" || prefs.Theme != "light" {
		t.Errorf("stored = %+v", prefs)
	}
}

func TestPutPreference_Errors(t *testing.T) {
	_, _, router := testEnv(t)

	tests := []struct {
		target string
		body   string
		status int
	}{
		{"/preferences/view", `{"value":"grid"}`, http.StatusBadRequest},
		{"/preferences/theme", `{"value":""}`, http.StatusBadRequest},
		{"/preferences/view", `not json`, http.StatusBadRequest},
		{"/preferences/font", `{"value":"mono"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodPut, tt.target, []byte(tt.body))
		if w.Code != tt.status {
			t.Errorf("PUT %s %s = %d, want %d", tt.target, tt.body, w.Code, tt.status)
		}
	}
}

func TestEventsMounted(t *testing.T) {
	dir := t.TempDir()
	loop := refresh.New(prdsource.NewFileSource(filepath.Join(dir, "prd.json")))
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(loop, testutil.TestPrefs(t), events)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusTeapot {
		t.Errorf("events status = %d", w.Code)
	}
}

func TestWriteUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		snap   refresh.Snapshot
		status int
		msg    string
	}{
		{"loading", refresh.Snapshot{State: refresh.StateInitialLoading}, http.StatusServiceUnavailable, msgLoading},
		{"missing", refresh.Snapshot{State: refresh.StateMissing, Err: apperr.ErrNotFound}, http.StatusNotFound, msgNotFound},
		{"malformed", refresh.Snapshot{State: refresh.StateError, Err: fmt.Errorf("decode: %w", apperr.ErrMalformed)}, http.StatusBadRequest, msgInvalid},
		{"read error", refresh.Snapshot{State: refresh.StateError, Err: errors.New("permission denied")}, http.StatusInternalServerError, msgFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeUnavailable(w, tt.snap)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := errorOf(t, w); got != tt.msg {
				t.Errorf("error = %q, want %q", got, tt.msg)
			}
		})
	}
}
