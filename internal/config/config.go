// Package config resolves job defaults: built-in per-mode values, then
// ASCIIFY_* environment variables, then an optional YAML preset file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/asciify/internal/types"
)

const EnvPrefix = "ASCIIFY_"

type Defaults struct {
	Width     int     `env:"WIDTH" yaml:"width"`
	Height    int     `env:"HEIGHT" yaml:"height"`
	MaxFrames int     `env:"MAX_FRAMES" yaml:"max_frames"`
	FPS       float64 `env:"FPS" yaml:"fps"`

	RasterWidth  int     `env:"RASTER_WIDTH" yaml:"raster_width"`
	RasterHeight int     `env:"RASTER_HEIGHT" yaml:"raster_height"`
	CellWidth    int     `env:"CELL_WIDTH" yaml:"cell_width"`
	CellHeight   int     `env:"CELL_HEIGHT" yaml:"cell_height"`
	FontSize     float64 `env:"FONT_SIZE" yaml:"font_size"`
	FontPath     string  `env:"FONT" yaml:"font"`
	Codec        string  `env:"CODEC" yaml:"codec"`

	Random  bool   `env:"RANDOM" yaml:"random"`
	Color   bool   `env:"COLOR" yaml:"color"`
	Seed    uint64 `env:"SEED" yaml:"seed"`
	Workers int    `env:"WORKERS" yaml:"workers"`

	OutDir  string `env:"OUT" yaml:"out"`
	FFmpeg  string `env:"FFMPEG" yaml:"ffmpeg"`
	FFprobe string `env:"FFPROBE" yaml:"ffprobe"`
}

// ForMode returns the built-in defaults for an output mode.
func ForMode(mode types.OutputKind) Defaults {
	d := Defaults{
		FPS:          30,
		RasterWidth:  1920,
		RasterHeight: 1080,
		CellWidth:    6,
		CellHeight:   12,
		FontSize:     8,
		Codec:        "libx264",
		Color:        true,
		FFmpeg:       "ffmpeg",
		FFprobe:      "ffprobe",
	}
	if mode == types.OutputVideo {
		d.Width, d.Height, d.MaxFrames = 120, 60, 300
		return d
	}
	d.Width, d.Height, d.MaxFrames = 180, 60, 5000
	return d
}

// Load layers environment variables and the preset at path (if non-empty)
// over ForMode(mode).
func Load(path string, mode types.OutputKind) (Defaults, error) {
	d := ForMode(mode)
	if err := env.ParseWithOptions(&d, env.Options{Prefix: EnvPrefix}); err != nil {
		return Defaults{}, fmt.Errorf("parse env: %w", err)
	}
	if path == "" {
		return d, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("read preset: %w", err)
	}
	if err := applyPreset(&d, b, mode); err != nil {
		return Defaults{}, fmt.Errorf("preset %s: %w", path, err)
	}
	return d, nil
}

// applyPreset applies top-level keys first, then the section named after
// the mode ("script" or "video").
func applyPreset(d *Defaults, b []byte, mode types.OutputKind) error {
	if err := yaml.Unmarshal(b, d); err != nil {
		return err
	}
	var sections struct {
		Script yaml.Node `yaml:"script"`
		Video  yaml.Node `yaml:"video"`
	}
	if err := yaml.Unmarshal(b, &sections); err != nil {
		return err
	}
	node := sections.Script
	if mode == types.OutputVideo {
		node = sections.Video
	}
	if node.IsZero() {
		return nil
	}
	return node.Decode(d)
}
