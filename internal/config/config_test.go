package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DAIC.DefaultMode != "discussion" {
		t.Errorf("DefaultMode = %q, want discussion", cfg.DAIC.DefaultMode)
	}
	if len(cfg.DAIC.BlockedTools) == 0 {
		t.Error("expected default blocked tools")
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	doc := `
[daic]
enabled = true
default_mode = "implementation"
blocked_tools = ["Edit"]
trigger_phrases = ["go"]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DAIC.DefaultMode != "implementation" {
		t.Errorf("DefaultMode = %q, want implementation", cfg.DAIC.DefaultMode)
	}
	if len(cfg.DAIC.BlockedTools) != 1 || cfg.DAIC.BlockedTools[0] != "Edit" {
		t.Errorf("BlockedTools = %v", cfg.DAIC.BlockedTools)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.DAIC.DefaultMode = "implementation"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if loaded.DAIC.DefaultMode != "implementation" {
		t.Errorf("round-tripped DefaultMode = %q, want implementation", loaded.DAIC.DefaultMode)
	}
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.toml" {
		t.Errorf("directory contains unexpected entries: %v", entries)
	}
}
