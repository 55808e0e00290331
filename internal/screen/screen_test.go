package screen

import (
	"testing"

	"github.com/tmux/tmux-sub006/internal/vtparse"
)

type fakeResponder struct {
	writes [][]byte
}

func (f *fakeResponder) WriteToChild(b []byte) { f.writes = append(f.writes, append([]byte(nil), b...)) }

type fakeTitles struct {
	title string
}

func (f *fakeTitles) SetTitle(s string) { f.title = s }

func feedString(s *Screen, str string) {
	p := vtparse.New(s)
	for i := 0; i < len(str); i++ {
		p.Advance(str[i])
	}
}

func TestPrintAdvancesCursor(t *testing.T) {
	s := New(10, 5, 0, nil, nil)
	feedString(s, "hi")
	x, y := s.CursorPosition()
	if x != 2 || y != 0 {
		t.Fatalf("cursor = (%d,%d), want (2,0)", x, y)
	}
}

func TestAutoWrapDefersToNextChar(t *testing.T) {
	s := New(3, 2, 0, nil, nil)
	feedString(s, "abc")
	x, y := s.CursorPosition()
	if x != 2 || y != 0 {
		t.Fatalf("cursor after filling row = (%d,%d), want (2,0)", x, y)
	}
	if !s.pendingWrap {
		t.Fatalf("expected pending-wrap latch set after filling last column")
	}
	feedString(s, "d")
	x, y = s.CursorPosition()
	if y != 1 || x != 1 {
		t.Fatalf("cursor after wrap = (%d,%d), want (1,1)", x, y)
	}
	if s.Grid.GetCell(0, 1).Text() != "d" {
		t.Fatalf("expected wrapped char on row 1")
	}
}

func TestCursorPositioningClearsWrapLatch(t *testing.T) {
	s := New(3, 2, 0, nil, nil)
	feedString(s, "abc")
	feedString(s, "\x1b[1;1H")
	if s.pendingWrap {
		t.Fatalf("CUP should clear the pending-wrap latch")
	}
}

func TestSGRBasicColor(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[31mX")
	c := s.Grid.GetCell(0, 0)
	if c.Fg.Index != 1 {
		t.Fatalf("fg index = %d, want 1 (red)", c.Fg.Index)
	}
}

func TestSGR256Color(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[38;5;200mX")
	c := s.Grid.GetCell(0, 0)
	if c.Fg.Index != 200 {
		t.Fatalf("fg index = %d, want 200", c.Fg.Index)
	}
}

func TestSGR24Bit(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[38;2;10;20;30mX")
	c := s.Grid.GetCell(0, 0)
	if c.Fg.R != 10 || c.Fg.G != 20 || c.Fg.B != 30 {
		t.Fatalf("fg = %+v, want (10,20,30)", c.Fg)
	}
}

func TestSGRColonForm(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[38:2::40:50:60mX")
	c := s.Grid.GetCell(0, 0)
	if c.Fg.R != 40 || c.Fg.G != 50 || c.Fg.B != 60 {
		t.Fatalf("fg = %+v, want (40,50,60)", c.Fg)
	}
}

func TestSGRResetClearsAttrs(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[1;31m")
	feedString(s, "\x1b[0mX")
	c := s.Grid.GetCell(0, 0)
	if c.Attr != 0 || c.Fg.Kind != 0 {
		t.Fatalf("expected reset attrs, got attr=%v fg=%+v", c.Attr, c.Fg)
	}
}

func TestScrollRegionFullScreenFeedsScrollback(t *testing.T) {
	s := New(5, 2, 10, nil, nil)
	feedString(s, "a\r\nb\r\nc")
	if s.Grid.HistorySize() != 1 {
		t.Fatalf("HistorySize = %d, want 1", s.Grid.HistorySize())
	}
}

func TestOSCTitle(t *testing.T) {
	ft := &fakeTitles{}
	s := New(10, 2, 0, nil, ft)
	feedString(s, "\x1b]2;hello\x07")
	if ft.title != "hello" {
		t.Fatalf("title = %q, want hello", ft.title)
	}
}

func TestOSCColorQueryReplies(t *testing.T) {
	fr := &fakeResponder{}
	s := New(10, 2, 0, fr, nil)
	feedString(s, "\x1b]11;?\x07")
	if len(fr.writes) != 1 {
		t.Fatalf("expected one reply write, got %d", len(fr.writes))
	}
}

func TestAltScreenSwapResetsSGR(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[31m")
	feedString(s, "\x1b[?1049h")
	if s.fg.Kind != 0 {
		t.Fatalf("expected SGR reset on alt screen entry")
	}
	if !s.altScreen {
		t.Fatalf("expected altScreen true after 1049h")
	}
}

func TestAltScreenRoundTripPreservesPrimaryContent(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "primary")

	feedString(s, "\x1b[?1049h")
	feedString(s, "\x1b[Halt stuff")
	if got := s.Grid.GetCell(0, 0).Text(); got != "a" {
		t.Fatalf("alt screen cell(0,0) = %q, want %q", got, "a")
	}

	feedString(s, "\x1b[?1049l")
	if s.altScreen {
		t.Fatalf("expected altScreen false after 1049l")
	}
	if got := s.Grid.GetCell(0, 0).Text(); got != "p" {
		t.Fatalf("primary content lost after alt-screen round trip: cell(0,0) = %q, want %q", got, "p")
	}
	for i, want := range "primary" {
		if got := s.Grid.GetCell(i, 0).Text(); got != string(want) {
			t.Fatalf("primary cell(%d,0) = %q, want %q", i, got, string(want))
		}
	}
}

func TestTabStops(t *testing.T) {
	s := New(20, 2, 0, nil, nil)
	feedString(s, "\t")
	x, _ := s.CursorPosition()
	if x != 8 {
		t.Fatalf("cursor x after tab = %d, want 8", x)
	}
}

func TestMouseModeTracksMostRecentDECSET(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[?1000h")
	if s.MouseMode() != MouseClick {
		t.Fatalf("MouseMode = %v, want MouseClick", s.MouseMode())
	}
	feedString(s, "\x1b[?1002h")
	if s.MouseMode() != MouseButtonMotion {
		t.Fatalf("MouseMode = %v, want MouseButtonMotion", s.MouseMode())
	}
	feedString(s, "\x1b[?1002l")
	if s.MouseMode() != MouseOff {
		t.Fatalf("MouseMode = %v, want MouseOff after matching reset", s.MouseMode())
	}
}

func TestMouseEncodingSGR(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[?1006h")
	if s.MouseEncoding() != MouseEncodingSGR {
		t.Fatalf("MouseEncoding = %v, want MouseEncodingSGR", s.MouseEncoding())
	}
}

func TestCursorKeyModeAndBracketedPaste(t *testing.T) {
	s := New(10, 2, 0, nil, nil)
	feedString(s, "\x1b[?1h")
	if !s.CursorKeyMode() {
		t.Fatalf("expected CursorKeyMode true after CSI ?1h")
	}
	feedString(s, "\x1b[?2004h")
	if !s.BracketedPasteMode() {
		t.Fatalf("expected BracketedPasteMode true after CSI ?2004h")
	}
}
