package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsDefaultsWhenFileAbsent(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	want := Default()
	if *cfg != *want {
		t.Fatalf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverlaysPartialManifestOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	manifest := "screen:\n  width: 1024\n  height: 768\nview:\n  cols: 120\n"
	if err := os.WriteFile(filepath.Join(dir, "vight.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile() err = %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if cfg.Screen.Width != 1024 || cfg.Screen.Height != 768 {
		t.Fatalf("Screen = %+v, want overridden 1024x768", cfg.Screen)
	}
	if cfg.View.Cols != 120 {
		t.Fatalf("View.Cols = %d, want overridden 120", cfg.View.Cols)
	}
	if cfg.View.Rows != DefaultViewRows {
		t.Fatalf("View.Rows = %d, want default %d (untouched by manifest)", cfg.View.Rows, DefaultViewRows)
	}
	if cfg.ArenaQuota != DefaultArenaQuota {
		t.Fatalf("ArenaQuota = %d, want default %d (untouched by manifest)", cfg.ArenaQuota, DefaultArenaQuota)
	}
}

func TestLoadRejectsInvalidScreenSize(t *testing.T) {
	dir := t.TempDir()
	manifest := "screen:\n  width: 0\n  height: 600\n"
	if err := os.WriteFile(filepath.Join(dir, "vight.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile() err = %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("Load() err = nil, want error for zero screen width")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vight.yaml"), []byte("screen: [this is not a mapping"), 0o644); err != nil {
		t.Fatalf("WriteFile() err = %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("Load() err = nil, want parse error")
	}
}
