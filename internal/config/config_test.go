package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phplite.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxIncludeDepth != DefaultMaxIncludeDepth {
		t.Errorf("expected depth %d, got %d", DefaultMaxIncludeDepth, cfg.MaxIncludeDepth)
	}
	if len(cfg.IncludePath) != 1 || cfg.IncludePath[0] != "." {
		t.Errorf("expected include_path ['.'], got %v", cfg.IncludePath)
	}
	if cfg.HistoryFile == "" {
		t.Error("expected a default history file")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
include_path:
  - lib
  - vendor
max_include_depth: 8
history_file: /tmp/hist
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.IncludePath) != 2 || cfg.IncludePath[0] != "lib" || cfg.IncludePath[1] != "vendor" {
		t.Errorf("include_path mismatch: %v", cfg.IncludePath)
	}
	if cfg.MaxIncludeDepth != 8 {
		t.Errorf("expected depth 8, got %d", cfg.MaxIncludeDepth)
	}
	if cfg.HistoryFile != "/tmp/hist" {
		t.Errorf("expected /tmp/hist, got %q", cfg.HistoryFile)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "max_include_depth: 3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxIncludeDepth != 3 {
		t.Errorf("expected depth 3, got %d", cfg.MaxIncludeDepth)
	}
	if len(cfg.IncludePath) != 1 || cfg.IncludePath[0] != "." {
		t.Errorf("expected default include_path, got %v", cfg.IncludePath)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxIncludeDepth != DefaultMaxIncludeDepth {
		t.Errorf("expected defaults for empty file, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "inclde_path: ['.']\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for the misspelled key")
	}
}

func TestLoadRejectsBadDepth(t *testing.T) {
	path := writeConfig(t, "max_include_depth: -2\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a negative depth")
	}
}
