// Package grid implements the dense 2-D cell buffer that backs a Screen,
// including its scrollback ring. It is the lowest layer of the VT stack:
// pure, side-effect-only mutations over a rectangle of Cells, with no
// knowledge of escape sequences, cursors, or modes.
package grid

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// ColorKind distinguishes how a Cell's foreground/background is expressed.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorANSI              // 0-15
	Color256               // 0-255 palette index
	ColorRGB                // 24-bit direct
)

// Color is a single foreground or background colour value. Only the fields
// relevant to Kind are meaningful.
type Color struct {
	Kind    ColorKind
	Index   uint8 // ColorANSI / Color256
	R, G, B uint8 // ColorRGB
}

// Downgrade returns c re-expressed at a lower colour depth, using
// go-colorful's Lab distance to find the closest match.256 and ANSI are
// themselves valid downgrade targets for a ColorRGB value; asking to
// downgrade to ColorRGB, or to a kind at or above c.Kind, is a no-op.
func (c Color) Downgrade(target ColorKind) Color {
	if target >= c.Kind || c.Kind == ColorDefault {
		return c
	}
	if c.Kind != ColorRGB {
		// ANSI -> 256 is representable without loss; widening is handled
		// by the renderer picking the right escape, not by changing Kind.
		return c
	}
	src := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	switch target {
	case Color256:
		best, bestDist := 0, -1.0
		for i := 0; i < 256; i++ {
			r, g, b := palette256(i)
			cand := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
			d := src.DistanceLab(cand)
			if bestDist < 0 || d < bestDist {
				bestDist, best = d, i
			}
		}
		return Color{Kind: Color256, Index: uint8(best)}
	case ColorANSI:
		best, bestDist := 0, -1.0
		for i := 0; i < 16; i++ {
			r, g, b := palette256(i)
			cand := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
			d := src.DistanceLab(cand)
			if bestDist < 0 || d < bestDist {
				bestDist, best = d, i
			}
		}
		return Color{Kind: ColorANSI, Index: uint8(best)}
	}
	return c
}

// Attr is a bitset of SGR text attributes. Underline style is carried
// separately in UnderlineStyle because it has more than two states.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrInvisible
	AttrStrike
)

type UnderlineStyle uint8

const (
	UnderlineNone UnderlineStyle = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineCurly
)

// maxGraphemeBytes bounds a Cell's grapheme: base rune + combining marks,
// variation selectors, and ZWJ sequences. 20 bytes comfortably covers
// multi-codepoint emoji (e.g. a ZWJ family) without making Cell huge.
const maxGraphemeBytes = 20

// Cell is a single grid position: a grapheme cluster, its display width,
// colours, and attributes. A width-2 cell is always immediately followed
// by a width-0 padding cell carrying the same attributes (invariant #2,
// spec.md §8); a width-0 combining cell never begins a row.
type Cell struct {
	data      [maxGraphemeBytes]byte
	size      uint8
	Width     uint8
	Fg        Color
	Bg        Color
	Attr      Attr
	Underline UnderlineStyle
}

// BlankCell is a single space with default attributes, the value clear
// operations fill with (optionally re-coloured to the current background).
func BlankCell(bg Color) Cell {
	c := Cell{Width: 1, Bg: bg}
	c.SetText(" ")
	return c
}

// PaddingCell is the width-0 follower of a width-2 cell, sharing bg/attrs.
func PaddingCell(of Cell) Cell {
	p := of
	p.Width = 0
	p.size = 0
	return p
}

// Text returns the cell's grapheme cluster as a string. Value receiver
// so it can be called directly on a GetCell result without an
// intermediate variable.
func (c Cell) Text() string {
	return string(c.data[:c.size])
}

// SetText stores s (already a single grapheme cluster) truncating to fit,
// and derives Width from the East-Asian-aware rune width of its base rune.
func (c *Cell) SetText(s string) {
	if len(s) > maxGraphemeBytes {
		// Truncate at a grapheme boundary rather than mid-UTF8.
		gr := uniseg.NewGraphemes(s)
		if gr.Next() {
			s = gr.Str()
		}
		if len(s) > maxGraphemeBytes {
			s = s[:0]
		}
	}
	c.size = uint8(copy(c.data[:], s))
	if s == "" {
		c.Width = 1
		return
	}
	r := []rune(s)[0]
	c.Width = uint8(runewidth.RuneWidth(r))
}

// IsBlank reports whether the cell holds nothing but a space (or is
// the zero value), used by the renderer and reflow to identify trailing
// blanks that need not be stored or transmitted. Value receiver, same
// reason as Text.
func (c Cell) IsBlank() bool {
	return c.size == 0 || (c.size == 1 && c.data[0] == ' ')
}

// palette256 returns the RGB value of xterm's standard 256-colour palette
// entry i. Entries 0-15 are the ANSI colours (using the common xterm
// defaults); 16-231 are the 6x6x6 colour cube; 232-255 are the greyscale
// ramp. Used only by Downgrade's nearest-colour search.
func palette256(i int) (r, g, b uint8) {
	switch {
	case i < 16:
		ansi := [16][3]uint8{
			{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
			{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
			{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
			{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
		}
		return ansi[i][0], ansi[i][1], ansi[i][2]
	case i < 232:
		i -= 16
		levels := [6]uint8{0, 95, 135, 175, 215, 255}
		return levels[i/36], levels[(i/6)%6], levels[i%6]
	default:
		v := uint8(8 + (i-232)*10)
		return v, v, v
	}
}
