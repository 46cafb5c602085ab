// Package config holds the settings shared by the import CLIs and the drop-folder watcher.
package config

import (
	"github.com/Carmen-Shannon/oxy-glb/engine/logger"
)

// Config is the complete tool configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" toml:"log"`
	Import ImportConfig `yaml:"import" toml:"import"`
	Watch  WatchConfig  `yaml:"watch" toml:"watch"`
	Viewer ViewerConfig `yaml:"viewer" toml:"viewer"`
}

// LogConfig selects the log level and the optional rotating log file.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" toml:"level"`

	// Console enables the stderr console output.
	Console bool `yaml:"console" toml:"console"`

	// File configures the rotating JSON log file; an empty path disables it.
	File logger.FileConfig `yaml:"file" toml:"file"`
}

// ImportConfig controls how GLB files are decoded.
type ImportConfig struct {
	// Workers is the number of concurrent batch imports, 0 for NumCPU-1.
	Workers int `yaml:"workers" toml:"workers"`

	// FlipWinding reverses triangle winding for a clockwise front face.
	FlipWinding bool `yaml:"flip_winding" toml:"flip_winding"`

	// PremultipliedAlpha marks blended materials as premultiplied.
	PremultipliedAlpha bool `yaml:"premultiplied_alpha" toml:"premultiplied_alpha"`

	// StrictLength rejects GLB headers whose total length disagrees with the data.
	StrictLength bool `yaml:"strict_length" toml:"strict_length"`

	// Backend is "memory" to account GPU resources in memory, "gl" to upload to a hidden
	// OpenGL context, or "none" for a pure decode. The viewer always uploads to its own device.
	Backend string `yaml:"backend" toml:"backend"`
}

// WatchConfig configures the drop-folder importer.
type WatchConfig struct {
	// Dir is the watched directory, empty to disable watching.
	Dir string `yaml:"dir" toml:"dir"`

	// DebounceMS is how long a file must stay quiet before it is imported.
	DebounceMS int `yaml:"debounce_ms" toml:"debounce_ms"`
}

// ViewerConfig configures the preview window.
type ViewerConfig struct {
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	Title  string `yaml:"title" toml:"title"`

	// ForceFallbackAdapter requests the software adapter.
	ForceFallbackAdapter bool `yaml:"force_fallback_adapter" toml:"force_fallback_adapter"`

	// ShowStats logs frame statistics once per second.
	ShowStats bool `yaml:"show_stats" toml:"show_stats"`
}

// Import backends.
const (
	BackendMemory = "memory"
	BackendGL     = "gl"
	BackendNone   = "none"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Console: true,
			File:    logger.DefaultFileConfig(""),
		},
		Import: ImportConfig{
			Workers:     0,
			FlipWinding: true,
			Backend:     BackendMemory,
		},
		Watch: WatchConfig{
			DebounceMS: 250,
		},
		Viewer: ViewerConfig{
			Width:  1280,
			Height: 720,
			Title:  "glbview",
		},
	}
}
