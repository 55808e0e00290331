// Package screen implements the writer that consumes vtparse events and
// applies them to a grid.Grid, maintaining cursor position, SGR state,
// modes, and tab stops the way a real terminal emulator would.
package screen

import (
	"github.com/aymanbagabas/go-osc52/v2"

	"github.com/tmux/tmux-sub006/internal/grid"
	"github.com/tmux/tmux-sub006/internal/vtparse"
)

// OSCResponder receives synthesised reply bytes that must be written back
// to the pane's child (colour queries, clipboard) rather than rendered.
type OSCResponder interface {
	WriteToChild(b []byte)
}

// TitleSetter is notified when OSC 0/1/2 changes the window/pane title.
type TitleSetter interface {
	SetTitle(s string)
}

// Screen is a pane's terminal state: cursor/mode state plus the primary
// and alternate grids, which it owns and swaps between on mode
// 1047/1049 (spec.md §4.3, §6) — Grid always points at whichever is
// current, but neither grid is ever reallocated, so the primary
// buffer's content and scrollback survive any number of alt-screen
// round trips.
type Screen struct {
	Grid *grid.Grid

	primaryGrid *grid.Grid
	altGrid     *grid.Grid

	cx, cy int // cursor column/row, 0-based
	sx, sy int

	originMode   bool
	autoWrap     bool
	pendingWrap  bool
	insertMode   bool
	cursorHidden bool

	scrollTop, scrollBot int // inclusive scroll region rows

	fg, bg Color
	attr   grid.Attr
	ul     grid.UnderlineStyle

	tabStops []bool

	altScreen      bool
	savedCx, savedCy int
	savedAttr        savedState

	cursorKeyMode  bool
	mouseMode      MouseMode
	mouseEncoding  MouseEncoding
	bracketedPaste bool

	responder OSCResponder
	titles    TitleSetter
}

// MouseMode is which mouse events (if any) the application has asked to
// receive via DECSET, mirrored from xterm's 1000/1002/1003 modes.
type MouseMode uint8

const (
	MouseOff MouseMode = iota
	MouseClick            // 1000: button press/release only
	MouseButtonMotion     // 1002: press/release plus motion while a button is held
	MouseAnyMotion        // 1003: all motion, button held or not
)

// MouseEncoding is the coordinate/byte format mouse reports are sent in,
// mirrored from xterm's 1005/1006/1015 modes (spec.md §4.9).
type MouseEncoding uint8

const (
	MouseEncodingClassic MouseEncoding = iota // classic X10, coordinates capped at 223
	MouseEncodingUTF8                         // 1005
	MouseEncodingSGR                          // 1006
	MouseEncodingURXVT                        // 1015
)

// CursorKeyMode reports whether DECCKM (mode 1) is set: arrow/Home/End
// keys encode as application sequences (SS3) rather than cursor sequences
// (CSI) per spec.md §4.9.
func (s *Screen) CursorKeyMode() bool { return s.cursorKeyMode }

// MouseMode reports which mouse events the application wants reported.
func (s *Screen) MouseMode() MouseMode { return s.mouseMode }

// MouseEncoding reports the coordinate format to use when MouseMode is
// not MouseOff.
func (s *Screen) MouseEncoding() MouseEncoding { return s.mouseEncoding }

// BracketedPasteMode reports whether mode 2004 is set, so pasted content
// should be wrapped in ESC [ 200 ~ ... ESC [ 201 ~.
func (s *Screen) BracketedPasteMode() bool { return s.bracketedPaste }

// Color mirrors grid.Color but is kept local so SGR parsing doesn't leak
// grid internals into the parser-facing API surface.
type Color = grid.Color

type savedState struct {
	cx, cy   int
	fg, bg   Color
	attr     grid.Attr
	ul       grid.UnderlineStyle
	origin   bool
}

// New creates a Screen of size sx x sy with the given scrollback depth.
func New(sx, sy, hsize int, responder OSCResponder, titles TitleSetter) *Screen {
	primary := grid.New(sx, sy, hsize)
	s := &Screen{
		Grid:        primary,
		primaryGrid: primary,
		altGrid:     grid.New(sx, sy, 0), // no scrollback on the alternate screen
		sx:          sx,
		sy:          sy,
		autoWrap:    true,
		scrollTop:   0,
		scrollBot:   sy - 1,
		responder:   responder,
		titles:      titles,
	}
	s.resetTabStops()
	return s
}

func (s *Screen) resetTabStops() {
	s.tabStops = make([]bool, s.sx)
	for i := 0; i < s.sx; i += 8 {
		s.tabStops[i] = true
	}
}

// Resize changes the screen's visible dimensions, reflowing both the
// primary and alternate grids (even the one not currently active, so
// whichever screen the pane swaps back into already has the right
// geometry) and clamping the cursor and scroll region into the new
// bounds.
func (s *Screen) Resize(sx, sy int) {
	if sx != s.sx {
		s.primaryGrid.Reflow(sx)
		s.altGrid.Reflow(sx)
	}
	s.sx, s.sy = sx, sy
	if s.cx >= sx {
		s.cx = sx - 1
	}
	if s.cy >= sy {
		s.cy = sy - 1
	}
	s.scrollTop = 0
	s.scrollBot = sy - 1
	s.resetTabStops()
}

// --- vtparse.Handler ---

func (s *Screen) Print(r rune) {
	if s.pendingWrap {
		s.newlineWrap()
	}
	var c grid.Cell
	c.SetText(string(r))
	c.Fg, c.Bg, c.Attr, c.Underline = s.fg, s.bg, s.attr, s.ul

	if s.insertMode {
		s.insertCellAt(s.cx, c)
	} else {
		s.Grid.SetCell(s.cx, s.cy, c)
		if c.Width == 2 {
			s.Grid.SetCell(s.cx+1, s.cy, grid.PaddingCell(c))
		}
	}

	adv := int(c.Width)
	if adv == 0 {
		adv = 1
	}
	if s.cx+adv >= s.sx {
		s.cx = s.sx - 1
		if s.autoWrap {
			s.pendingWrap = true
		}
	} else {
		s.cx += adv
	}
}

func (s *Screen) insertCellAt(x int, c grid.Cell) {
	for i := s.sx - 1; i > x; i-- {
		s.Grid.SetCell(i, s.cy, s.Grid.GetCell(i-1, s.cy))
	}
	s.Grid.SetCell(x, s.cy, c)
}

func (s *Screen) newlineWrap() {
	s.Grid.SetWrapped(s.cy, true)
	s.pendingWrap = false
	s.lineFeed()
	s.cx = 0
}

// Execute handles C0 control codes.
func (s *Screen) Execute(b byte) {
	switch b {
	case '\n', '\v', '\f':
		s.pendingWrap = false
		s.lineFeed()
	case '\r':
		s.pendingWrap = false
		s.cx = 0
	case '\b':
		s.pendingWrap = false
		if s.cx > 0 {
			s.cx--
		}
	case '\t':
		s.pendingWrap = false
		s.cx = s.nextTabStop(s.cx)
	case 0x07: // BEL
	}
}

func (s *Screen) nextTabStop(from int) int {
	for x := from + 1; x < s.sx; x++ {
		if x < len(s.tabStops) && s.tabStops[x] {
			return x
		}
	}
	return s.sx - 1
}

func (s *Screen) lineFeed() {
	if s.cy == s.scrollBot {
		s.Grid.ScrollRegionUp(s.scrollTop, s.scrollBot, 1, s.bg)
	} else if s.cy < s.sy-1 {
		s.cy++
	}
}

func (s *Screen) reverseLineFeed() {
	if s.cy == s.scrollTop {
		s.Grid.ScrollRegionDown(s.scrollTop, s.scrollBot, 1, s.bg)
	} else if s.cy > 0 {
		s.cy--
	}
}

// CsiDispatch handles CSI sequences (cursor movement, SGR, erase, modes).
func (s *Screen) CsiDispatch(final byte, intermediate []byte, private bool, p *vtparse.Params) {
	if clearsWrapLatch(final) {
		s.pendingWrap = false
	}

	switch final {
	case 'H', 'f':
		row := int(p.Get(0, 1)) - 1
		col := int(p.Get(1, 1)) - 1
		s.moveCursorAbs(col, row)
	case 'A':
		s.moveCursorRel(0, -max1(p.Get(0, 1)))
	case 'B':
		s.moveCursorRel(0, max1(p.Get(0, 1)))
	case 'C':
		s.moveCursorRel(max1(p.Get(0, 1)), 0)
	case 'D':
		s.moveCursorRel(-max1(p.Get(0, 1)), 0)
	case 'G', '`':
		s.cx = clamp(int(p.Get(0, 1))-1, 0, s.sx-1)
	case 'd':
		s.cy = clamp(int(p.Get(0, 1))-1, 0, s.sy-1)
	case 'J':
		s.eraseDisplay(int(p.Get(0, 0)))
	case 'K':
		s.eraseLine(int(p.Get(0, 0)))
	case 'L':
		s.Grid.MoveLines(s.cy+int(max1(p.Get(0, 1))), s.cy, s.scrollBot-s.cy-int(max1(p.Get(0, 1)))+1)
		s.Grid.ScrollRegionDown(s.cy, s.scrollBot, int(max1(p.Get(0, 1))), s.bg)
	case 'M':
		s.Grid.ScrollRegionUp(s.cy, s.scrollBot, int(max1(p.Get(0, 1))), s.bg)
	case 'P':
		s.deleteChars(int(max1(p.Get(0, 1))))
	case '@':
		s.insertChars(int(max1(p.Get(0, 1))))
	case 'X':
		s.eraseChars(int(max1(p.Get(0, 1))))
	case 'r':
		top := int(p.Get(0, 1)) - 1
		bot := int(p.Get(1, int32(s.sy))) - 1
		s.setScrollRegion(top, bot)
	case 'm':
		s.sgr(p)
	case 'h':
		s.setMode(private, p, true)
	case 'l':
		s.setMode(private, p, false)
	case 'g':
		s.tabClear(int(p.Get(0, 0)))
	case 's':
		s.savedCx, s.savedCy = s.cx, s.cy
	case 'u':
		s.cx, s.cy = s.savedCx, s.savedCy
	}
	_ = intermediate
}

func clearsWrapLatch(final byte) bool {
	switch final {
	case 'H', 'f', 'G', '`', 'd', 'A', 'B', 'D':
		return true
	}
	return false
}

func max1(v int32) int {
	if v < 1 {
		return 1
	}
	return int(v)
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

func (s *Screen) moveCursorAbs(col, row int) {
	top, bot := 0, s.sy-1
	if s.originMode {
		top, bot = s.scrollTop, s.scrollBot
		row += s.scrollTop
	}
	s.cx = clamp(col, 0, s.sx-1)
	s.cy = clamp(row, top, bot)
}

func (s *Screen) moveCursorRel(dx, dy int) {
	top, bot := 0, s.sy-1
	if s.originMode {
		top, bot = s.scrollTop, s.scrollBot
	}
	s.cx = clamp(s.cx+dx, 0, s.sx-1)
	s.cy = clamp(s.cy+dy, top, bot)
}

func (s *Screen) setScrollRegion(top, bot int) {
	top = clamp(top, 0, s.sy-1)
	bot = clamp(bot, 0, s.sy-1)
	if bot <= top {
		top, bot = 0, s.sy-1
	}
	s.scrollTop, s.scrollBot = top, bot
	if s.originMode {
		s.cx, s.cy = 0, top
	} else {
		s.cx, s.cy = 0, 0
	}
}

func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0:
		s.eraseLine(0)
		s.Grid.ClearLines(s.cy+1, s.sy-s.cy-1, s.bg)
	case 1:
		s.eraseLine(1)
		s.Grid.ClearLines(0, s.cy, s.bg)
	case 2, 3:
		s.Grid.ClearLines(0, s.sy, s.bg)
	}
}

func (s *Screen) eraseLine(mode int) {
	switch mode {
	case 0:
		s.Grid.ClearRect(s.cx, s.sx, s.cy, s.cy+1, s.bg)
	case 1:
		s.Grid.ClearRect(0, s.cx+1, s.cy, s.cy+1, s.bg)
	case 2:
		s.Grid.ClearRect(0, s.sx, s.cy, s.cy+1, s.bg)
	}
}

func (s *Screen) insertChars(n int) {
	for i := 0; i < n; i++ {
		s.insertCellAt(s.cx, grid.BlankCell(s.bg))
	}
}

func (s *Screen) deleteChars(n int) {
	for x := s.cx; x < s.sx-n; x++ {
		s.Grid.SetCell(x, s.cy, s.Grid.GetCell(x+n, s.cy))
	}
	s.Grid.ClearRect(s.sx-n, s.sx, s.cy, s.cy+1, s.bg)
}

func (s *Screen) eraseChars(n int) {
	s.Grid.ClearRect(s.cx, s.cx+n, s.cy, s.cy+1, s.bg)
}

func (s *Screen) tabClear(mode int) {
	switch mode {
	case 0:
		if s.cx < len(s.tabStops) {
			s.tabStops[s.cx] = false
		}
	case 3:
		for i := range s.tabStops {
			s.tabStops[i] = false
		}
	}
}

// setMode handles DEC private (CSI ?) and ANSI (CSI) mode set/reset.
func (s *Screen) setMode(private bool, p *vtparse.Params, enable bool) {
	for i := 0; i < p.Count; i++ {
		mode := p.Get(i, -1)
		if !private {
			continue // ANSI modes (IRM etc.) not modelled beyond insert below
		}
		switch mode {
		case 1:
			s.cursorKeyMode = enable
		case 1000:
			if enable {
				s.mouseMode = MouseClick
			} else if s.mouseMode == MouseClick {
				s.mouseMode = MouseOff
			}
		case 1002:
			if enable {
				s.mouseMode = MouseButtonMotion
			} else if s.mouseMode == MouseButtonMotion {
				s.mouseMode = MouseOff
			}
		case 1003:
			if enable {
				s.mouseMode = MouseAnyMotion
			} else if s.mouseMode == MouseAnyMotion {
				s.mouseMode = MouseOff
			}
		case 1005:
			if enable {
				s.mouseEncoding = MouseEncodingUTF8
			} else if s.mouseEncoding == MouseEncodingUTF8 {
				s.mouseEncoding = MouseEncodingClassic
			}
		case 1006:
			if enable {
				s.mouseEncoding = MouseEncodingSGR
			} else if s.mouseEncoding == MouseEncodingSGR {
				s.mouseEncoding = MouseEncodingClassic
			}
		case 1015:
			if enable {
				s.mouseEncoding = MouseEncodingURXVT
			} else if s.mouseEncoding == MouseEncodingURXVT {
				s.mouseEncoding = MouseEncodingClassic
			}
		case 6:
			s.originMode = enable
			s.cx, s.cy = 0, 0
			if enable {
				s.cy = s.scrollTop
			}
		case 7:
			s.autoWrap = enable
		case 25:
			s.cursorHidden = !enable
		case 1047:
			s.switchAltScreen(enable, false)
		case 1049:
			s.switchAltScreen(enable, true)
		case 2004:
			s.bracketedPaste = enable
		}
	}
}

// switchAltScreen points Grid at the alternate or primary grid, clearing
// the alternate grid's content on entry the way a real terminal starts
// the alternate screen blank every time (xterm ctlseqs 1047/1049).
// Neither grid is ever reallocated: the primary grid keeps its content
// and scrollback untouched while the alternate screen is active, so
// returning to it (mode reset) shows exactly what was left there.
// withCursor additionally saves and restores the cursor position and
// SGR state, matching mode 1049's behaviour versus the bare 1047 swap
// (spec.md §4.3, §6).
func (s *Screen) switchAltScreen(enable bool, withCursor bool) {
	if enable == s.altScreen {
		return
	}
	if withCursor && enable {
		s.savedAttr = savedState{cx: s.cx, cy: s.cy, fg: s.fg, bg: s.bg, attr: s.attr, ul: s.ul, origin: s.originMode}
	}
	if enable {
		s.altGrid.ClearLines(0, s.sy, s.bg)
		s.Grid = s.altGrid
		s.altScreen = true
		s.fg, s.bg, s.attr, s.ul = Color{}, Color{}, 0, grid.UnderlineNone
		s.cx, s.cy = 0, 0
	} else {
		s.Grid = s.primaryGrid
		s.altScreen = false
		if withCursor {
			s.cx, s.cy = s.savedAttr.cx, s.savedAttr.cy
			s.fg, s.bg, s.attr, s.ul = s.savedAttr.fg, s.savedAttr.bg, s.savedAttr.attr, s.savedAttr.ul
			s.originMode = s.savedAttr.origin
		}
	}
}

// EscDispatch handles two-character escape sequences (DECSC/DECRC, IND,
// RI, HTS).
func (s *Screen) EscDispatch(final byte, intermediate []byte) {
	switch final {
	case '7':
		s.savedAttr = savedState{cx: s.cx, cy: s.cy, fg: s.fg, bg: s.bg, attr: s.attr, ul: s.ul, origin: s.originMode}
	case '8':
		s.cx, s.cy = s.savedAttr.cx, s.savedAttr.cy
		s.fg, s.bg, s.attr, s.ul = s.savedAttr.fg, s.savedAttr.bg, s.savedAttr.attr, s.savedAttr.ul
		s.originMode = s.savedAttr.origin
	case 'D':
		s.lineFeed()
	case 'M':
		s.reverseLineFeed()
	case 'H':
		if s.cx < len(s.tabStops) {
			s.tabStops[s.cx] = true
		}
	case 'c':
		*s = *New(s.sx, s.sy, s.primaryGrid.HistorySize(), s.responder, s.titles)
	}
	_ = intermediate
}

// OscDispatch handles OSC payloads: "Ps;Pt" title sets, clipboard (52),
// and colour queries (4/10/11/12) synthesising a reply into the child.
func (s *Screen) OscDispatch(data []byte) {
	ps, pt, ok := splitOSC(data)
	if !ok {
		return
	}
	switch ps {
	case "0", "1", "2":
		if s.titles != nil {
			s.titles.SetTitle(pt)
		}
	case "52":
		s.handleClipboard(pt)
	case "4", "10", "11", "12":
		s.handleColorQuery(ps, pt)
	}
}

func splitOSC(data []byte) (ps, pt string, ok bool) {
	for i, b := range data {
		if b == ';' {
			return string(data[:i]), string(data[i+1:]), true
		}
	}
	return "", "", false
}

// handleClipboard forwards an OSC 52 payload ("c;base64" or "c;?") toward
// the attached client's real terminal using go-osc52's encoder, since the
// pane itself has no clipboard: setting or querying the system clipboard
// is something only the terminal the user's eyes are on can do.
func (s *Screen) handleClipboard(pt string) {
	if s.responder == nil {
		return
	}
	idx := -1
	for i, c := range pt {
		if c == ';' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	payload := pt[idx+1:]
	seq := osc52.New(payload)
	if payload == "?" {
		seq = seq.Query()
	}
	s.responder.WriteToChild([]byte(seq.String()))
}

func (s *Screen) handleColorQuery(ps, pt string) {
	if pt != "?" || s.responder == nil {
		return
	}
	var reply string
	switch ps {
	case "10":
		reply = "\x1b]10;rgb:ffff/ffff/ffff\x07"
	case "11":
		reply = "\x1b]11;rgb:0000/0000/0000\x07"
	case "12":
		reply = "\x1b]12;rgb:ffff/ffff/ffff\x07"
	default:
		return
	}
	s.responder.WriteToChild([]byte(reply))
}

// DcsHook/DcsPut/DcsUnhook: device control strings (sixel, DECRQSS) are
// accepted and discarded; no downstream consumer needs them yet.
func (s *Screen) DcsHook(final byte, intermediate []byte, private bool, params *vtparse.Params) {}
func (s *Screen) DcsPut(b byte)                                                                  {}
func (s *Screen) DcsUnhook()                                                                      {}

// CursorPosition returns the current 0-based cursor column/row.
func (s *Screen) CursorPosition() (x, y int) { return s.cx, s.cy }

// CursorHidden reports whether DECTCEM has hidden the cursor.
func (s *Screen) CursorHidden() bool { return s.cursorHidden }
