package glyph

import "github.com/forPelevin/asciify/internal/types"

const (
	printable = "0123456789" +
		"abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	blocks = "█▉▊▋▌▍▎▏▐░▒▓■□▪▫"
)

// Rand is the subset of *math/rand/v2.Rand the mapper needs.
type Rand interface {
	IntN(n int) int
}

// Palette is an ordered glyph set. Values are read-only after construction.
type Palette struct {
	name   string
	glyphs []rune
	jitter int
}

// Wide is the script-mode palette: printable ASCII without whitespace plus
// block elements. Jitter is ±2.
func Wide() Palette {
	return newPalette("wide", printable+blocks+"▬▭▮▯", 2)
}

// Compact is the video-mode palette, ordered dark to bright. Jitter is ±1.
func Compact() Palette {
	return newPalette("compact", " .:-=+*#%@"+blocks, 1)
}

func ForOutput(k types.OutputKind) Palette {
	if k == types.OutputVideo {
		return Compact()
	}
	return Wide()
}

func newPalette(name, glyphs string, jitter int) Palette {
	return Palette{name: name, glyphs: []rune(glyphs), jitter: jitter}
}

func (p Palette) Name() string     { return p.name }
func (p Palette) Len() int         { return len(p.glyphs) }
func (p Palette) Jitter() int      { return p.jitter }
func (p Palette) Glyph(i int) rune { return p.glyphs[i] }

// Index maps a luminance to a palette position: floor(l/256*len), shifted by
// a uniform offset in [-jitter, +jitter] when rng is non-nil, then clamped.
func (p Palette) Index(l uint8, rng Rand) int {
	n := len(p.glyphs)
	idx := int(l) * n / 256
	if rng != nil && p.jitter > 0 {
		idx += rng.IntN(2*p.jitter+1) - p.jitter
	}
	return clamp(idx, 0, n-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
