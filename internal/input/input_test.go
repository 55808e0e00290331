package input

import (
	"testing"

	"github.com/tmux/tmux-sub006/internal/screen"
)

func TestEncodePlainRune(t *testing.T) {
	e := &Encoder{UTF8: true}
	got := e.Encode(Key{Rune: 'a'})
	if string(got) != "a" {
		t.Fatalf("Encode('a') = %q, want %q", got, "a")
	}
}

func TestEncodeCtrlLetter(t *testing.T) {
	e := &Encoder{}
	got := e.Encode(Key{Rune: 'c', Mods: ModCtrl})
	if len(got) != 1 || got[0] != 0x03 {
		t.Fatalf("Encode(Ctrl-c) = %v, want [0x03]", got)
	}
}

func TestEncodeAltPrefixesEscape(t *testing.T) {
	e := &Encoder{UTF8: true}
	got := e.Encode(Key{Rune: 'x', Mods: ModAlt})
	if string(got) != "\033x" {
		t.Fatalf("Encode(Alt-x) = %q, want %q", got, "\033x")
	}
}

func TestEncodeCtrlShiftFallsBackToModifyOtherKeys(t *testing.T) {
	e := &Encoder{}
	got := e.Encode(Key{Rune: 'A', Mods: ModCtrl | ModShift})
	want := "\033[27;6;65~"
	if string(got) != want {
		t.Fatalf("Encode(Ctrl+Shift+A) = %q, want %q", got, want)
	}
}

func TestEncodeNamedArrowUnmodified(t *testing.T) {
	e := &Encoder{}
	got := e.Encode(Key{Name: "Up"})
	if string(got) != "\033[A" {
		t.Fatalf("Encode(Up) = %q, want CSI A", got)
	}
}

func TestEncodeNamedArrowUsesSS3InApplicationMode(t *testing.T) {
	e := &Encoder{CursorKeyMode: true}
	got := e.Encode(Key{Name: "Up"})
	if string(got) != "\033OA" {
		t.Fatalf("Encode(Up) in app mode = %q, want SS3 A", got)
	}
}

func TestEncodeNamedArrowWithModifier(t *testing.T) {
	e := &Encoder{}
	got := e.Encode(Key{Name: "Up", Mods: ModCtrl})
	want := "\033[1;5A"
	if string(got) != want {
		t.Fatalf("Encode(Ctrl-Up) = %q, want %q", got, want)
	}
}

func TestEncodeTildeKeyUnmodified(t *testing.T) {
	e := &Encoder{}
	got := e.Encode(Key{Name: "DC"})
	if string(got) != "\033[3~" {
		t.Fatalf("Encode(Delete) = %q, want CSI 3~", got)
	}
}

func TestEncodeTildeKeyWithModifier(t *testing.T) {
	e := &Encoder{}
	got := e.Encode(Key{Name: "PPage", Mods: ModShift})
	want := "\033[5;2~"
	if string(got) != want {
		t.Fatalf("Encode(Shift-PageUp) = %q, want %q", got, want)
	}
}

func TestWrapPasteAddsBracketsWhenEnabled(t *testing.T) {
	got := WrapPaste([]byte("hello"), true)
	want := "\033[200~hello\033[201~"
	if string(got) != want {
		t.Fatalf("WrapPaste = %q, want %q", got, want)
	}
}

func TestWrapPastePassesThroughWhenDisabled(t *testing.T) {
	got := WrapPaste([]byte("hello"), false)
	if string(got) != "hello" {
		t.Fatalf("WrapPaste(disabled) = %q, want unchanged", got)
	}
}

func TestEncodeMouseSGRPressAndRelease(t *testing.T) {
	press := EncodeMouse(MouseEvent{Button: ButtonLeft, X: 4, Y: 9}, screen.MouseClick, screen.MouseEncodingSGR)
	if string(press) != "\033[<0;5;10M" {
		t.Fatalf("press = %q", press)
	}
	release := EncodeMouse(MouseEvent{Button: ButtonRelease, X: 4, Y: 9}, screen.MouseClick, screen.MouseEncodingSGR)
	if string(release) != "\033[<3;5;10m" {
		t.Fatalf("release = %q", release)
	}
}

func TestEncodeMouseClassicClampsCoordinates(t *testing.T) {
	got := EncodeMouse(MouseEvent{Button: ButtonLeft, X: 500, Y: 500}, screen.MouseClick, screen.MouseEncodingClassic)
	if len(got) != 6 || got[4] != byte(223+32) || got[5] != byte(223+32) {
		t.Fatalf("classic encoding did not clamp: %v", got)
	}
}

func TestEncodeMouseMotionSuppressedOutsideMotionModes(t *testing.T) {
	got := EncodeMouse(MouseEvent{Button: ButtonLeft, Motion: true}, screen.MouseClick, screen.MouseEncodingSGR)
	if got != nil {
		t.Fatalf("expected nil for motion event under MouseClick mode, got %q", got)
	}
}

func TestEncodeMouseAnyMotionReportsHover(t *testing.T) {
	got := EncodeMouse(MouseEvent{Button: ButtonRelease, Motion: true}, screen.MouseAnyMotion, screen.MouseEncodingSGR)
	if got == nil {
		t.Fatalf("expected a hover report under MouseAnyMotion mode")
	}
}
