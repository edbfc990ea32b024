package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Window.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Window.Width)
	}
	if cfg.Window.Height != 800 {
		t.Errorf("expected height 800, got %d", cfg.Window.Height)
	}
	if !cfg.Window.VSync {
		t.Error("expected vsync on by default")
	}

	if cfg.Viewer.ColorMode != "height" {
		t.Errorf("expected color mode 'height', got %s", cfg.Viewer.ColorMode)
	}
	if cfg.Viewer.Opacity != 1.0 {
		t.Errorf("expected opacity 1.0, got %f", cfg.Viewer.Opacity)
	}
	if cfg.Viewer.PointSize != 3.0 {
		t.Errorf("expected point size 3.0, got %f", cfg.Viewer.PointSize)
	}
	if cfg.Viewer.FaceSide != "double" {
		t.Errorf("expected face side 'double', got %s", cfg.Viewer.FaceSide)
	}
	if cfg.Viewer.Wireframe {
		t.Error("expected wireframe off by default")
	}

	if cfg.Dataset.DefaultMesh != "" || cfg.Dataset.SkipDefault {
		t.Errorf("unexpected dataset defaults: %+v", cfg.Dataset)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
window:
  width: 1920
  height: 1080
  vsync: false

viewer:
  color_mode: index
  opacity: 0.5
  point_size: 6
  face_side: front
  wireframe: true

dataset:
  default_mesh: terrain.xml

logging:
  level: debug
  log_file: viewer.log
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Window.VSync {
		t.Error("vsync should be overridden to false")
	}
	if cfg.Viewer.ColorMode != "index" {
		t.Errorf("color mode = %s", cfg.Viewer.ColorMode)
	}
	if cfg.Viewer.Opacity != 0.5 || cfg.Viewer.PointSize != 6 {
		t.Errorf("viewer = %+v", cfg.Viewer)
	}
	if !cfg.Viewer.Wireframe {
		t.Error("wireframe should be on")
	}
	if cfg.Dataset.DefaultMesh != "terrain.xml" {
		t.Errorf("default mesh = %s", cfg.Dataset.DefaultMesh)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadFromFileMergesWithDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Only logging is set; everything else keeps its default.
	if err := os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("logging level = %s", cfg.Logging.Level)
	}
	if cfg.Window.Width != 1280 {
		t.Errorf("window width lost its default: %d", cfg.Window.Width)
	}
	if cfg.Viewer.ColorMode != "height" {
		t.Errorf("color mode lost its default: %s", cfg.Viewer.ColorMode)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := Default()
	cfg.Viewer.ColorMode = "flat"
	cfg.Window.Width = 640

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}
	if loaded.Viewer.ColorMode != "flat" || loaded.Window.Width != 640 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
