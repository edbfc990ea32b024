// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Dataset DatasetConfig `yaml:"dataset"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
}

// ViewerConfig holds the startup display configuration for loaded meshes.
type ViewerConfig struct {
	ColorMode  string     `yaml:"color_mode"` // flat, height, index
	Opacity    float32    `yaml:"opacity"`
	PointSize  float32    `yaml:"point_size"`
	FaceSide   string     `yaml:"face_side"` // front, back, double
	Wireframe  bool       `yaml:"wireframe"`
	ShowGrid   bool       `yaml:"show_grid"`
	ShowAxes   bool       `yaml:"show_axes"`
	Background [3]float32 `yaml:"background"`
}

// DatasetConfig holds dataset loading settings.
type DatasetConfig struct {
	// DefaultMesh overrides the bundled startup mesh when set.
	DefaultMesh string `yaml:"default_mesh"`
	// SkipDefault disables loading any startup mesh.
	SkipDefault bool `yaml:"skip_default"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 800,
			VSync:  true,
		},
		Viewer: ViewerConfig{
			ColorMode:  "height",
			Opacity:    1.0,
			PointSize:  3.0,
			FaceSide:   "double",
			Wireframe:  false,
			ShowGrid:   true,
			ShowAxes:   true,
			Background: [3]float32{0.10, 0.10, 0.12},
		},
		Dataset: DatasetConfig{},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
