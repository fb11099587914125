package glyph

import (
	"image/color"

	"github.com/forPelevin/asciify/internal/types"
)

// Luminance is the Rec. 601 weighting 0.299R + 0.587G + 0.114B in integer
// arithmetic, rounded, so equal channels map back to themselves.
func Luminance(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

func BandOf(l uint8) types.Band {
	switch {
	case l < 64:
		return types.BandBlack
	case l < 128:
		return types.BandDarkGray
	case l < 192:
		return types.BandLightGray
	default:
		return types.BandWhite
	}
}

// BandColor is the display colour terminals use for each band.
func BandColor(b types.Band) color.RGBA {
	switch b {
	case types.BandBlack:
		return color.RGBA{A: 0xff}
	case types.BandDarkGray:
		return color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	case types.BandLightGray:
		return color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}
	default:
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
}
