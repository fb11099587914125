// Package glyph turns decoded frames into grids of glyph and colour cells.
package glyph

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/forPelevin/asciify/internal/types"
)

type Options struct {
	Width   int
	Height  int
	Palette Palette
	Mode    types.ColorMode
	// Color false renders every cell white.
	Color  bool
	Jitter bool
}

type Mapper struct {
	opts   Options
	scaler draw.Interpolator
}

func NewMapper(opts Options) *Mapper {
	return &Mapper{opts: opts, scaler: draw.BiLinear}
}

func (m *Mapper) Options() Options { return m.opts }

// Map resamples img to exactly Width x Height and selects one cell per pixel.
// rng is only consulted when jitter is enabled; it must not be shared across
// goroutines.
func (m *Mapper) Map(img image.Image, rng Rand) types.GlyphGrid {
	w, h := m.opts.Width, m.opts.Height
	small := m.resample(img)

	if !m.opts.Jitter {
		rng = nil
	}
	white := BandColor(types.BandWhite)
	grid := types.NewGlyphGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := small.PixOffset(x, y)
			r, g, b := small.Pix[o], small.Pix[o+1], small.Pix[o+2]
			l := Luminance(r, g, b)
			idx := m.opts.Palette.Index(l, rng)

			cell := types.GlyphCell{
				Glyph: m.opts.Palette.Glyph(idx),
				Index: idx,
				Band:  BandOf(l),
			}
			switch {
			case !m.opts.Color:
				cell.Band = types.BandWhite
				cell.Color = white
			case m.opts.Mode == types.ColorTrue:
				cell.Color = color.RGBA{R: r, G: g, B: b, A: 0xff}
			default:
				cell.Color = BandColor(cell.Band)
			}
			grid.Set(x, y, cell)
		}
	}
	return grid
}

func (m *Mapper) resample(img image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, m.opts.Width, m.opts.Height))
	if src, ok := img.(*image.RGBA); ok && src.Bounds() == dst.Bounds() && src.Stride == dst.Stride {
		copy(dst.Pix, src.Pix)
		return dst
	}
	m.scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
