package render

import (
	"image"
	"image/color"
	"image/draw"
)

// blockShape describes a block or geometric glyph as a sub-rectangle of the
// cell in eighths, a coverage alpha and whether only the outline is drawn.
type blockShape struct {
	x0, y0, x1, y1 int
	alpha          uint8
	hollow         bool
}

var blockShapes = map[rune]blockShape{
	'█': {0, 0, 8, 8, 0xff, false},
	'▉': {0, 0, 7, 8, 0xff, false},
	'▊': {0, 0, 6, 8, 0xff, false},
	'▋': {0, 0, 5, 8, 0xff, false},
	'▌': {0, 0, 4, 8, 0xff, false},
	'▍': {0, 0, 3, 8, 0xff, false},
	'▎': {0, 0, 2, 8, 0xff, false},
	'▏': {0, 0, 1, 8, 0xff, false},
	'▐': {4, 0, 8, 8, 0xff, false},
	'░': {0, 0, 8, 8, 0x40, false},
	'▒': {0, 0, 8, 8, 0x80, false},
	'▓': {0, 0, 8, 8, 0xc0, false},
	'■': {1, 2, 7, 6, 0xff, false},
	'□': {1, 2, 7, 6, 0xff, true},
	'▪': {2, 3, 6, 5, 0xff, false},
	'▫': {2, 3, 6, 5, 0xff, true},
	'▬': {0, 3, 8, 5, 0xff, false},
	'▭': {0, 3, 8, 5, 0xff, true},
	'▮': {2, 0, 6, 8, 0xff, false},
	'▯': {2, 0, 6, 8, 0xff, true},
}

// paintBlock fills the shape of r within cell. Fonts disagree on the metrics
// of these glyphs, so they are painted to the exact cell geometry instead.
func paintBlock(dst draw.Image, cell image.Rectangle, r rune, src image.Image) bool {
	s, ok := blockShapes[r]
	if !ok {
		return false
	}
	w, h := cell.Dx(), cell.Dy()
	rect := image.Rect(
		cell.Min.X+s.x0*w/8, cell.Min.Y+s.y0*h/8,
		cell.Min.X+s.x1*w/8, cell.Min.Y+s.y1*h/8,
	)
	mask := image.NewUniform(color.Alpha{A: s.alpha})
	if !s.hollow {
		draw.DrawMask(dst, rect, src, image.Point{}, mask, image.Point{}, draw.Over)
		return true
	}
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1),
		image.Rect(rect.Min.X, rect.Max.Y-1, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y),
		image.Rect(rect.Max.X-1, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.DrawMask(dst, e.Intersect(rect), src, image.Point{}, mask, image.Point{}, draw.Over)
	}
	return true
}
