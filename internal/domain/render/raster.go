package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/forPelevin/asciify/internal/types"
)

// DefaultFontPaths are tried in order when no font is configured.
var DefaultFontPaths = []string{
	`C:\Windows\Fonts\consola.ttf`,
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/dejavu/DejaVuSansMono.ttf",
	"/System/Library/Fonts/Monaco.ttf",
}

type RasterOptions struct {
	Width      int
	Height     int
	CellWidth  int
	CellHeight int
	FontSize   float64
	// FontPath selects a TrueType/OpenType file; empty searches
	// DefaultFontPaths and falls back to a built-in bitmap face.
	FontPath   string
	Face       font.Face
	Background color.RGBA
}

type RasterRenderer struct {
	opts   RasterOptions
	face   font.Face
	ascent int
	bg     *image.Uniform
	fg     *image.Uniform
}

func NewRasterRenderer(opts RasterOptions) (*RasterRenderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("raster size must be > 0, got %dx%d", opts.Width, opts.Height)
	}
	if opts.CellWidth <= 0 || opts.CellHeight <= 0 {
		return nil, fmt.Errorf("cell size must be > 0, got %dx%d", opts.CellWidth, opts.CellHeight)
	}
	if opts.Background.A == 0 {
		opts.Background = color.RGBA{A: 0xff}
	}
	face := opts.Face
	if face == nil {
		var err error
		face, err = loadFace(opts.FontPath, opts.FontSize)
		if err != nil {
			return nil, err
		}
	}
	return &RasterRenderer{
		opts:   opts,
		face:   face,
		ascent: face.Metrics().Ascent.Ceil(),
		bg:     image.NewUniform(opts.Background),
		fg:     &image.Uniform{},
	}, nil
}

func (r *RasterRenderer) Size() (int, int) { return r.opts.Width, r.opts.Height }

// Origin is the top-left pixel of the glyph block for a grid of cols x rows,
// centred on the canvas. It may be negative when the block overflows.
func (r *RasterRenderer) Origin(cols, rows int) image.Point {
	return image.Point{
		X: (r.opts.Width - cols*r.opts.CellWidth) / 2,
		Y: (r.opts.Height - rows*r.opts.CellHeight) / 2,
	}
}

// Render draws g onto a fresh canvas. Blank cells are skipped. Not safe for
// concurrent use: font faces cache glyph masks.
func (r *RasterRenderer) Render(g types.GlyphGrid) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.Draw(canvas, canvas.Bounds(), r.bg, image.Point{}, draw.Src)

	origin := r.Origin(g.Width, g.Height)
	cw, ch := r.opts.CellWidth, r.opts.CellHeight
	for y := 0; y < g.Height; y++ {
		for x, c := range g.Row(y) {
			if c.Glyph == ' ' {
				continue
			}
			cell := image.Rect(0, 0, cw, ch).Add(origin.Add(image.Pt(x*cw, y*ch)))
			if !cell.Overlaps(canvas.Rect) {
				continue
			}
			r.fg.C = c.Color
			if paintBlock(canvas, cell, c.Glyph, r.fg) {
				continue
			}
			dot := fixed.P(cell.Min.X, cell.Min.Y+r.ascent)
			dr, mask, maskp, _, ok := r.face.Glyph(dot, c.Glyph)
			if !ok {
				continue
			}
			draw.DrawMask(canvas, dr, r.fg, image.Point{}, mask, maskp, draw.Over)
		}
	}
	return canvas
}

func loadFace(path string, size float64) (font.Face, error) {
	if size <= 0 {
		size = 8
	}
	if path != "" {
		face, err := openFace(path, size)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", path, err)
		}
		return face, nil
	}
	for _, p := range DefaultFontPaths {
		if face, err := openFace(p, size); err == nil {
			return face, nil
		}
	}
	return basicfont.Face7x13, nil
}

func openFace(path string, size float64) (font.Face, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(b)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
