package types

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"
)

type OutputKind string

const (
	OutputScript OutputKind = "script"
	OutputVideo  OutputKind = "video"
)

func ParseOutputKind(s string) (OutputKind, error) {
	switch OutputKind(strings.ToLower(strings.TrimSpace(s))) {
	case OutputScript, "bat":
		return OutputScript, nil
	case OutputVideo, "mp4":
		return OutputVideo, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (expected script|video)", s)
	}
}

// Ext is the artifact file extension, dot included.
func (k OutputKind) Ext() string {
	if k == OutputVideo {
		return ".mp4"
	}
	return ".bat"
}

type ColorMode int

const (
	// ColorQuantized maps luminance to four terminal grays.
	ColorQuantized ColorMode = iota
	// ColorTrue keeps the resampled pixel RGB.
	ColorTrue
)

// Job is one conversion request. It is treated as immutable once Run starts.
type Job struct {
	ID     string
	Source string
	Output OutputKind

	Width     int
	Height    int
	MaxFrames int
	FPS       float64

	RasterWidth  int
	RasterHeight int
	CellWidth    int
	CellHeight   int
	FontSize     float64
	FontPath     string
	Codec        string

	Jitter  bool
	Color   bool
	Seed    uint64
	Workers int
}

func (j Job) ColorMode() ColorMode {
	if j.Output == OutputVideo {
		return ColorTrue
	}
	return ColorQuantized
}

type SourceInfo struct {
	// TotalFrames is 0 when the container does not report a usable count.
	TotalFrames int
	FPS         float64
	// Width and Height are the decoded frame size, after rotation.
	Width    int
	Height   int
	Duration time.Duration
	// Rotation is the display rotation in degrees: 0, 90, 180 or 270.
	Rotation int
}

type Frame struct {
	Index       int // position in the sampled sequence
	SourceIndex int // position in the decoded stream
	Image       image.Image
}

type Band uint8

const (
	BandBlack Band = iota
	BandDarkGray
	BandLightGray
	BandWhite
)

type GlyphCell struct {
	Glyph rune
	Index int
	Band  Band
	Color color.RGBA
}

// GlyphGrid stores cells row-major; every row is Width cells long.
type GlyphGrid struct {
	Width  int
	Height int
	Cells  []GlyphCell
}

func NewGlyphGrid(width, height int) GlyphGrid {
	return GlyphGrid{
		Width:  width,
		Height: height,
		Cells:  make([]GlyphCell, width*height),
	}
}

func (g GlyphGrid) At(x, y int) GlyphCell { return g.Cells[y*g.Width+x] }

func (g GlyphGrid) Set(x, y int, c GlyphCell) { g.Cells[y*g.Width+x] = c }

func (g GlyphGrid) Row(y int) []GlyphCell {
	return g.Cells[y*g.Width : (y+1)*g.Width : (y+1)*g.Width]
}

func (g GlyphGrid) Rows() [][]GlyphCell {
	rows := make([][]GlyphCell, g.Height)
	for y := range rows {
		rows[y] = g.Row(y)
	}
	return rows
}

// Text returns the glyphs without any colour information.
func (g GlyphGrid) Text() []string {
	lines := make([]string, g.Height)
	for y := range lines {
		var b strings.Builder
		for _, c := range g.Row(y) {
			b.WriteRune(c.Glyph)
		}
		lines[y] = b.String()
	}
	return lines
}

type Artifact struct {
	Kind   OutputKind
	Path   string
	Dir    string
	Frames int
}
