package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
start_url: http://localhost:3000
headless: false
default_threshold: 0.9
variables:
  user: alice
some_future_field: ignored
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.StartURL != "http://localhost:3000" {
		t.Errorf("StartURL = %q", p.StartURL)
	}
	if p.Headless {
		t.Error("expected headless=false from file")
	}
	if p.DefaultThreshold != 0.9 {
		t.Errorf("DefaultThreshold = %v", p.DefaultThreshold)
	}
	if p.KeyDelayMs != 20 {
		t.Errorf("KeyDelayMs default lost: %d", p.KeyDelayMs)
	}
	if p.Variables["user"] != "alice" {
		t.Errorf("Variables = %v", p.Variables)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/profile.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
