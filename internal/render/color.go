package render

import (
	"image/color"
	"strconv"
)

// ParseColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA" hex notation.
// Anything unparsable yields the fallback, so a typo in a component
// degrades the color rather than the frame.
func ParseColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) == 0 || s[0] != '#' {
		return fallback
	}
	hex := s[1:]

	switch len(hex) {
	case 3:
		r, okR := nibble(hex[0])
		g, okG := nibble(hex[1])
		b, okB := nibble(hex[2])
		if !okR || !okG || !okB {
			return fallback
		}
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 0xff}
	case 6, 8:
		v, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return fallback
		}
		if len(hex) == 6 {
			v = v<<8 | 0xff
		}
		return color.RGBA{
			R: uint8(v >> 24),
			G: uint8(v >> 16),
			B: uint8(v >> 8),
			A: uint8(v),
		}
	default:
		return fallback
	}
}

func nibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// lerpColor blends a toward b by t in [0,1].
func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: lerp(a.A, b.A),
	}
}
