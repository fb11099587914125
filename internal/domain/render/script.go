// Package render turns glyph grids into displayable pages: escaped,
// colour-coded text lines for the playback script, or RGBA rasters for
// video encoding.
package render

import (
	"strings"

	"github.com/forPelevin/asciify/internal/types"
)

const ansiReset = "\x1b[0m"

// ansiBand holds the SGR foreground for each luminance band.
var ansiBand = [...]string{
	types.BandBlack:     "\x1b[30m",
	types.BandDarkGray:  "\x1b[90m",
	types.BandLightGray: "\x1b[37m",
	types.BandWhite:     "\x1b[97m",
}

// batchEscaper covers characters cmd.exe interprets on an echo line. The
// replacer works in one pass, so carets it inserts are never re-escaped.
// A bare quote would switch cmd into quote mode, where carets print
// literally, so quotes are escaped as well.
var batchEscaper = strings.NewReplacer(
	"^", "^^",
	`"`, `^"`,
	"&", "^&",
	"<", "^<",
	">", "^>",
	"|", "^|",
	"%", "%%",
)

// EscapeBatch escapes s for use as the argument of a batch echo command.
func EscapeBatch(s string) string {
	return batchEscaper.Replace(s)
}

func AnsiPrefix(b types.Band) string {
	if int(b) >= len(ansiBand) {
		return ansiBand[types.BandWhite]
	}
	return ansiBand[b]
}

type ScriptRenderer struct {
	colored bool
}

// NewScriptRenderer returns a renderer that wraps every glyph in its band
// colour when colored is true and emits bare glyphs otherwise.
func NewScriptRenderer(colored bool) *ScriptRenderer {
	return &ScriptRenderer{colored: colored}
}

// Render returns one escaped line per grid row.
func (r *ScriptRenderer) Render(g types.GlyphGrid) []string {
	lines := make([]string, g.Height)
	var b strings.Builder
	for y := 0; y < g.Height; y++ {
		b.Reset()
		for _, c := range g.Row(y) {
			if r.colored {
				b.WriteString(AnsiPrefix(c.Band))
			}
			b.WriteRune(c.Glyph)
			if r.colored {
				b.WriteString(ansiReset)
			}
		}
		lines[y] = EscapeBatch(b.String())
	}
	return lines
}
