package screen

import (
	"github.com/tmux/tmux-sub006/internal/grid"
	"github.com/tmux/tmux-sub006/internal/vtparse"
)

// sgr applies one CSI ... m sequence's parameters to the current text
// attribute state. Supports the single-argument 8/16-colour forms,
// 256-colour (38;5;n / 48;5;n), 24-bit (38;2;r;g;b / 48;2;r;g;b), and
// the colon-delimited variant (38:2::r:g:b) carried as subparameters of
// a single CSI parameter. Unknown arguments are ignored, matching
// spec.md §4.3's "not fatal" rule.
func (s *Screen) sgr(p *vtparse.Params) {
	if p.Count == 0 {
		s.resetSGR()
		return
	}
	for i := 0; i < p.Count; i++ {
		n := p.Get(i, 0)

		if p.SubCount(i) > 1 && (n == 38 || n == 48) {
			c, ok := parseColonColor(p, i)
			if ok {
				if n == 38 {
					s.fg = c
				} else {
					s.bg = c
				}
			}
			continue
		}

		switch {
		case n == 0:
			s.resetSGR()
		case n == 1:
			s.attr |= grid.AttrBold
		case n == 2:
			s.attr |= grid.AttrDim
		case n == 3:
			s.attr |= grid.AttrItalic
		case n == 4:
			s.ul = grid.UnderlineSingle
		case n == 5 || n == 6:
			s.attr |= grid.AttrBlink
		case n == 7:
			s.attr |= grid.AttrReverse
		case n == 8:
			s.attr |= grid.AttrInvisible
		case n == 9:
			s.attr |= grid.AttrStrike
		case n == 21:
			s.ul = grid.UnderlineDouble
		case n == 22:
			s.attr &^= grid.AttrBold | grid.AttrDim
		case n == 23:
			s.attr &^= grid.AttrItalic
		case n == 24:
			s.ul = grid.UnderlineNone
		case n == 25:
			s.attr &^= grid.AttrBlink
		case n == 27:
			s.attr &^= grid.AttrReverse
		case n == 28:
			s.attr &^= grid.AttrInvisible
		case n == 29:
			s.attr &^= grid.AttrStrike
		case n >= 30 && n <= 37:
			s.fg = grid.Color{Kind: grid.ColorANSI, Index: uint8(n - 30)}
		case n == 38:
			c, consumed := s.parseExtendedColor(p, i)
			if consumed > 0 {
				s.fg = c
				i += consumed
			}
		case n == 39:
			s.fg = grid.Color{}
		case n >= 40 && n <= 47:
			s.bg = grid.Color{Kind: grid.ColorANSI, Index: uint8(n - 40)}
		case n == 48:
			c, consumed := s.parseExtendedColor(p, i)
			if consumed > 0 {
				s.bg = c
				i += consumed
			}
		case n == 49:
			s.bg = grid.Color{}
		case n >= 90 && n <= 97:
			s.fg = grid.Color{Kind: grid.ColorANSI, Index: uint8(n-90) + 8}
		case n >= 100 && n <= 107:
			s.bg = grid.Color{Kind: grid.ColorANSI, Index: uint8(n-100) + 8}
		case n == 58:
			// underline colour (semicolon or colon form); not tracked as a
			// separate field, ignored per spec's "unknown args ignored" rule.
			// The semicolon form's colour arguments are skipped with it.
			if p.SubCount(i) == 1 {
				_, consumed := s.parseExtendedColor(p, i)
				i += consumed
			}
		}
	}
}

func (s *Screen) resetSGR() {
	s.fg = grid.Color{}
	s.bg = grid.Color{}
	s.attr = 0
	s.ul = grid.UnderlineNone
}

// parseExtendedColor handles the semicolon form of 38/48: either
// "38;5;n" (256-colour) or "38;2;r;g;b" (24-bit), consuming the
// following parameters. Returns how many extra parameters were consumed.
func (s *Screen) parseExtendedColor(p *vtparse.Params, i int) (grid.Color, int) {
	mode := p.Get(i+1, -1)
	switch mode {
	case 5:
		idx := p.Get(i+2, 0)
		return grid.Color{Kind: grid.Color256, Index: uint8(idx)}, 2
	case 2:
		r := p.Get(i+2, 0)
		g := p.Get(i+3, 0)
		b := p.Get(i+4, 0)
		return grid.Color{Kind: grid.ColorRGB, R: uint8(r), G: uint8(g), B: uint8(b)}, 4
	}
	return grid.Color{}, 0
}

// parseColonColor handles "38:2::r:g:b" / "38:5:n", where the whole
// sequence is one CSI parameter carrying subparameters, per spec.md
// §4.2's "subparameters captured as a flat list with per-parameter
// offsets" and §4.3's colon-delimited SGR form.
func parseColonColor(p *vtparse.Params, i int) (grid.Color, bool) {
	mode := p.Sub(i, 1, -1)
	switch mode {
	case 5:
		idx := p.Sub(i, 2, 0)
		return grid.Color{Kind: grid.Color256, Index: uint8(idx)}, true
	case 2:
		// Subparameter layout: [0]=38/48 [1]=2 [2]=colorspace(unused)
		// [3]=r [4]=g [5]=b.
		r := p.Sub(i, 3, 0)
		g := p.Sub(i, 4, 0)
		b := p.Sub(i, 5, 0)
		return grid.Color{Kind: grid.ColorRGB, R: uint8(r), G: uint8(g), B: uint8(b)}, true
	}
	return grid.Color{}, false
}
