package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(BackendURLEnv, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BackendURL != DefaultBackendURL {
		t.Fatalf("expected default backend url, got %q", cfg.BackendURL)
	}
	if cfg.PageSize != 10 || cfg.TopK != 100 {
		t.Fatalf("unexpected page size/top_k: %d/%d", cfg.PageSize, cfg.TopK)
	}
	if cfg.Debounce.Duration != 300*time.Millisecond {
		t.Fatalf("unexpected debounce: %v", cfg.Debounce)
	}
	if cfg.HistoryPath != "" {
		t.Fatalf("history must be disabled by default, got %q", cfg.HistoryPath)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv(BackendURLEnv, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
backend_url = "http://search.internal:9000/"
page_size = 25
debounce = "150ms"
author_order = ["The Mother"]

[group_labels]
CWM = "Mother's works"

[rate_limit]
web_rps = 5.0
web_burst = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BackendURL != "http://search.internal:9000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BackendURL)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("expected page size 25, got %d", cfg.PageSize)
	}
	if cfg.Debounce.Duration != 150*time.Millisecond {
		t.Fatalf("expected 150ms debounce, got %v", cfg.Debounce)
	}
	if len(cfg.AuthorOrder) != 1 || cfg.AuthorOrder[0] != "The Mother" {
		t.Fatalf("unexpected author order: %v", cfg.AuthorOrder)
	}
	if cfg.GroupLabels["CWM"] != "Mother's works" {
		t.Fatalf("unexpected group labels: %v", cfg.GroupLabels)
	}
	if cfg.TopK != 100 {
		t.Fatalf("expected default top_k for unset key, got %d", cfg.TopK)
	}
	if cfg.RateLimit.WebRPS != 5 {
		t.Fatalf("expected web_rps 5, got %v", cfg.RateLimit.WebRPS)
	}
}

func TestEnvironmentOverridesBackendURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`backend_url = "http://from-file:1"`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(BackendURLEnv, "https://from-env:2")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BackendURL != "https://from-env:2" {
		t.Fatalf("expected env override, got %q", cfg.BackendURL)
	}
}

func TestLoadConfigRejectsInvalidBackend(t *testing.T) {
	t.Setenv(BackendURLEnv, "ftp://nope")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for non-http backend url")
	}
}

func TestSaveTemplateConfigRoundTrips(t *testing.T) {
	t.Setenv(BackendURLEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := GetDefaultConfig()
	cfg.HistoryPath = filepath.Join(dir, "history.db")
	if err := cfg.SaveTemplateConfig(path); err != nil {
		t.Fatalf("SaveTemplateConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.HistoryPath != cfg.HistoryPath {
		t.Fatalf("expected history path %q, got %q", cfg.HistoryPath, loaded.HistoryPath)
	}
	if !loaded.Breaker.Enabled {
		t.Fatal("expected breaker enabled in sample config")
	}
}
