package prdsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/testutil"
)

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePRD(t, dir, testutil.SampleDocument())

	res, err := NewFileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Document.Project != "Kanban Tracker" || len(res.Document.Features) != 3 {
		t.Errorf("document = %+v", res.Document)
	}
	if len(res.Checksum) != 64 {
		t.Errorf("checksum = %q", res.Checksum)
	}
}

func TestFileSource_ChecksumTracksContent(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WritePRD(t, dir, testutil.SampleDocument())
	src := NewFileSource(path)

	first, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	again, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Checksum != again.Checksum {
		t.Error("checksum changed without a file change")
	}

	doc := testutil.SampleDocument()
	doc.Features[1].UserStories[0].StartedAt = "2024-02-01"
	testutil.WritePRD(t, dir, doc)
	changed, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if changed.Checksum == first.Checksum {
		t.Error("checksum did not change after edit")
	}
}

func TestFileSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"syntax error", `{"project": `, apperr.ErrMalformed},
		{"array", `[]`, apperr.ErrMalformed},
		{"empty", ``, apperr.ErrMalformed},
		{"missing features", `{"project":"p"}`, apperr.ErrMalformed},
		{"feature without id", `{"features":[{"name":"x","userStories":[]}]}`, apperr.ErrMalformed},
		{"feature without stories", `{"features":[{"id":"F"}]}`, apperr.ErrMalformed},
		{"story without id", `{"features":[{"id":"F","userStories":[{"title":"t","passes":false}]}]}`, apperr.ErrMalformed},
		{"wrong type", `{"features":"none"}`, apperr.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteRaw(t, t.TempDir(), tt.content)
			_, err := NewFileSource(path).Load(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFileSource_Tolerated(t *testing.T) {
	content := `{"project":"p","description":"","features":[
		{"id":"F-1","name":"a","branchName":"b","dependsOn":"F-404","userStories":[]},
		{"id":"F-1","name":"dup","branchName":"b","dependsOn":null,"userStories":[{"id":"US-1","title":"t","passes":false,"startedAt":7}]}
	]}`
	path := testutil.WriteRaw(t, t.TempDir(), content)
	res, err := NewFileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := res.Document.Features[1].UserStories[0].StartedAt; got != "" {
		t.Errorf("malformed startedAt should be absent, got %q", got)
	}
}

func TestFileSource_Missing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "prd.json")).Load(context.Background())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if Classify(err) != OutcomeMissing {
		t.Errorf("Classify = %q", Classify(err))
	}
}

func TestFileSource_Directory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prd.json")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileSource(path).Load(context.Background())
	if err == nil {
		t.Fatal("expected error reading a directory")
	}
	if Classify(err) != OutcomeError {
		t.Errorf("Classify = %q, want error", Classify(err))
	}
}

func TestFileSource_CancelledContext(t *testing.T) {
	path := testutil.WritePRD(t, t.TempDir(), testutil.SampleDocument())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFileSource(path).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestHTTPSource_Load(t *testing.T) {
	var mu sync.Mutex
	status := http.StatusOK
	body := `{"project":"remote","features":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/prd" {
			t.Errorf("path = %s", r.URL.Path)
		}
		mu.Lock()
		code, payload := status, body
		mu.Unlock()
		w.WriteHeader(code)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/", nil)

	res, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Document.Project != "remote" || len(res.Document.Features) != 0 {
		t.Errorf("document = %+v", res.Document)
	}

	tests := []struct {
		status int
		body   string
		want   Outcome
	}{
		{http.StatusNotFound, `{"error":"prd.json not found"}`, OutcomeMissing},
		{http.StatusBadRequest, `{"error":"Invalid JSON in prd.json"}`, OutcomeMalformed},
		{http.StatusInternalServerError, `{"error":"Failed to read prd.json"}`, OutcomeError},
		{http.StatusServiceUnavailable, `{"error":"loading"}`, OutcomeError},
		{http.StatusOK, `not json`, OutcomeMalformed},
	}
	for _, tt := range tests {
		mu.Lock()
		status, body = tt.status, tt.body
		mu.Unlock()
		_, err := src.Load(context.Background())
		if got := Classify(err); got != tt.want {
			t.Errorf("status %d: outcome = %q, want %q (err %v)", tt.status, got, tt.want, err)
		}
	}
}

func TestHTTPSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url, nil).Load(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if Classify(err) != OutcomeError {
		t.Errorf("Classify = %q, want error", Classify(err))
	}
}
