package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/tmux/tmux-sub006/internal/grid"
)

// Capabilities describes a client terminal's color depth and
// UTF-8/ACS posture, probed via termenv the way the teacher's main.go
// probes foreground/background colors before entering raw mode, here
// generalized to full SGR capability + border-glyph selection (spec.md
// §4.8 step 4: "use terminfo capabilities via the terminal's
// capability table; fall back to hard-coded sequences only if the
// capability is absent").
type Capabilities struct {
	ColorKind grid.ColorKind
	UTF8      bool
}

// Probe inspects the process's stdout via termenv.ColorProfile (the
// same detection the teacher's main.go relies on for
// ForegroundColor/BackgroundColor queries) and the environment's
// UTF-8 locale to build a Capabilities.
func Probe() *Capabilities {
	return &Capabilities{
		ColorKind: colorKindFromProfile(termenv.ColorProfile()),
		UTF8:      localeIsUTF8(),
	}
}

func colorKindFromProfile(p termenv.Profile) grid.ColorKind {
	switch p {
	case termenv.TrueColor:
		return grid.ColorRGB
	case termenv.ANSI256:
		return grid.Color256
	case termenv.ANSI:
		return grid.ColorANSI
	default:
		return grid.ColorANSI
	}
}

func localeIsUTF8() bool {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return strings.Contains(strings.ToUpper(v), "UTF-8") || strings.Contains(strings.ToUpper(v), "UTF8")
		}
	}
	return false
}

// sgrSequence renders an attrState to an SGR escape, downgrading
// colors to the client's capability before emission (spec.md §4.8 step
// 4). Always opens with a reset so attribute bleed from whatever the
// previous region left active can never show through, matching
// RenderLineFrom's "\033[0m before every region" rule.
func sgrSequence(a attrState, caps *Capabilities) string {
	var codes []string
	if a.attr&grid.AttrBold != 0 {
		codes = append(codes, "1")
	}
	if a.attr&grid.AttrDim != 0 {
		codes = append(codes, "2")
	}
	if a.attr&grid.AttrItalic != 0 {
		codes = append(codes, "3")
	}
	switch a.underline {
	case grid.UnderlineSingle:
		codes = append(codes, "4")
	case grid.UnderlineDouble:
		codes = append(codes, "4:2")
	case grid.UnderlineCurly:
		codes = append(codes, "4:3")
	}
	if a.attr&grid.AttrBlink != 0 {
		codes = append(codes, "5")
	}
	if a.attr&grid.AttrReverse != 0 {
		codes = append(codes, "7")
	}
	if a.attr&grid.AttrInvisible != 0 {
		codes = append(codes, "8")
	}
	if a.attr&grid.AttrStrike != 0 {
		codes = append(codes, "9")
	}

	kind := grid.ColorRGB
	if caps != nil {
		kind = caps.ColorKind
	}
	if fg := colorCodes(a.fg, kind, false); fg != "" {
		codes = append(codes, fg)
	}
	if bg := colorCodes(a.bg, kind, true); bg != "" {
		codes = append(codes, bg)
	}

	return "\033[0;" + strings.Join(codes, ";") + "m"
}

func colorCodes(c grid.Color, maxKind grid.ColorKind, bg bool) string {
	c = c.Downgrade(maxKind)
	base := 30
	if bg {
		base = 40
	}
	switch c.Kind {
	case grid.ColorDefault:
		return ""
	case grid.ColorANSI:
		if c.Index < 8 {
			return fmt.Sprintf("%d", base+int(c.Index))
		}
		return fmt.Sprintf("%d", base+60+int(c.Index)-8)
	case grid.Color256:
		return fmt.Sprintf("%d;5;%d", base+8, c.Index)
	case grid.ColorRGB:
		return fmt.Sprintf("%d;2;%d;%d;%d", base+8, c.R, c.G, c.B)
	}
	return ""
}
