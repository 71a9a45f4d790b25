package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.MinSeverity != "minor" {
		t.Errorf("MinSeverity = %q", cfg.MinSeverity)
	}
	if cfg.TimeoutSeconds != 25 {
		t.Errorf("TimeoutSeconds = %d", cfg.TimeoutSeconds)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("RedactSecrets should default to true")
	}
}

func TestLoad_FileMerge(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	content := "provider: ollama\nmodel: llama3\nmaxFindings: 7\ncache:\n  ttlSeconds: 60\n"
	cfgDir := filepath.Join(dir, "scorn")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "scorn.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.Model != "llama3" {
		t.Errorf("Model = %q, want llama3", cfg.Model)
	}
	if cfg.MaxFindings != 7 {
		t.Errorf("MaxFindings = %d, want 7", cfg.MaxFindings)
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Errorf("Cache.TTLSeconds = %d, want 60", cfg.Cache.TTLSeconds)
	}
	// Unset fields keep defaults.
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want default text", cfg.Format)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q", cfg.Provider)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfgDir := filepath.Join(dir, "scorn")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "scorn.yaml"), []byte("provider: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(nil); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SCORN_PROVIDER", "gemini")
	t.Setenv("SCORN_MAX_FINDINGS", "3")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.Provider)
	}
	if cfg.MaxFindings != 3 {
		t.Errorf("MaxFindings = %d, want 3", cfg.MaxFindings)
	}
}

func TestLoad_FlagOverridesEverything(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SCORN_PROVIDER", "gemini")

	cfg, err := Load(map[string]string{"provider": "openai", "minSeverity": "critical"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.MinSeverity != "critical" {
		t.Errorf("MinSeverity = %q, want critical", cfg.MinSeverity)
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "model", "gpt-5"); err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "gpt-5" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if err := SetField(&cfg, "maxFindings", "nope"); err == nil {
		t.Error("expected parse error")
	}
	if err := SetField(&cfg, "bogusKey", "x"); err == nil {
		t.Error("expected unknown key error")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Provider = "ollama"
	cfg.Model = "qwen"
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFile()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Provider != "ollama" || loaded.Model != "qwen" {
		t.Errorf("round trip: %+v", loaded)
	}
}
