package input

import (
	"fmt"

	"github.com/tmux/tmux-sub006/internal/screen"
)

// Button identifies which mouse button (if any) a MouseEvent reports.
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
	ButtonRelease // X10/URXVT encodings only; SGR reports release via the final byte
	ButtonWheelUp
	ButtonWheelDown
)

// MouseEvent is a single client-originated mouse action, already
// clamped to the target pane's bounds by the caller (spec.md §4.9:
// "coordinates clamped to the pane").
type MouseEvent struct {
	Button Button
	X, Y   int // 0-based, pane-relative
	Mods   Mod
	Motion bool // a drag/hover report rather than a press or release
}

// buttonCode returns the base xterm button code (bits 0-1 for the
// button, bit 6 set for wheel events) before modifier/motion bits are
// folded in.
func (ev MouseEvent) buttonCode() int {
	switch ev.Button {
	case ButtonLeft:
		return 0
	case ButtonMiddle:
		return 1
	case ButtonRight:
		return 2
	case ButtonRelease:
		return 3
	case ButtonWheelUp:
		return 64
	case ButtonWheelDown:
		return 65
	}
	return 0
}

func (ev MouseEvent) encodedCb() int {
	cb := ev.buttonCode()
	if ev.Motion {
		cb += 32
	}
	if ev.Mods&ModShift != 0 {
		cb += 4
	}
	if ev.Mods&ModAlt != 0 {
		cb += 8
	}
	if ev.Mods&ModCtrl != 0 {
		cb += 16
	}
	return cb
}

// EncodeMouse reports ev in the wire format mode/enc select, or nil if
// mode is screen.MouseOff or ev's kind doesn't match what mode asked
// for (e.g. plain motion reported while only MouseClick is enabled).
func EncodeMouse(ev MouseEvent, mode screen.MouseMode, enc screen.MouseEncoding) []byte {
	if mode == screen.MouseOff {
		return nil
	}
	if ev.Motion {
		switch mode {
		case screen.MouseButtonMotion:
			if ev.Button == ButtonRelease {
				return nil // no button held: nothing to report in 1002 mode
			}
		case screen.MouseAnyMotion:
			// all motion reported
		default:
			return nil // MouseClick: no motion reporting at all
		}
	}

	cb := ev.encodedCb()
	x, y := ev.X+1, ev.Y+1

	switch enc {
	case screen.MouseEncodingSGR:
		final := byte('M')
		if ev.Button == ButtonRelease && !ev.Motion {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\033[<%d;%d;%d%c", cb, x, y, final))
	case screen.MouseEncodingURXVT:
		return []byte(fmt.Sprintf("\033[%d;%d;%dM", cb+32, x, y))
	default: // classic X10/1005: coordinates capped at 223 (byte 255)
		if x > 223 {
			x = 223
		}
		if y > 223 {
			y = 223
		}
		return []byte{0x1b, '[', 'M', byte(cb + 32), byte(x + 32), byte(y + 32)}
	}
}
