package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "board")
	path := writeFile(t, "name: ${SAMPLE_NAME}\ncount: 3\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "board" || s.Count != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_Errors(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Error("expected error for missing file")
	}
	if err := Load(writeFile(t, "name: [unclosed"), &s); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("parse error = %v", err)
	}
	if err := Load(writeFile(t, "count: -1"), &s); err == nil || !strings.Contains(err.Error(), "validation") {
		t.Errorf("validation error = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	s := sample{Name: "default", Count: 1}
	found, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &s)
	if err != nil || found {
		t.Fatalf("missing file: found %v, err %v", found, err)
	}
	if s.Name != "default" {
		t.Errorf("defaults changed: %+v", s)
	}

	found, err = LoadOptional(writeFile(t, "count: 7\n"), &s)
	if err != nil || !found {
		t.Fatalf("present file: found %v, err %v", found, err)
	}
	if s.Name != "default" || s.Count != 7 {
		t.Errorf("merged = %+v", s)
	}

	bad := sample{Count: -1}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &bad); err == nil {
		t.Error("defaults should still be validated")
	}
}
