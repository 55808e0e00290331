// Package input implements the key/mouse encoder (spec.md §4.9):
// translating a client-originated keystroke or mouse event into the
// bytes written to a pane's PTY. Grounded on xterm-keys.c's modifier
// encoding table and CSI-vs-SS3 template split, key-string.c's named-key
// table, and internal/session/client/cursor.go's rune-boundary decoding,
// generalized from editing a chat-input buffer to encoding a byte
// stream for a child process.
package input

import (
	"fmt"
	"strings"
)

// Mod is a bitset of the modifiers xterm's key encoding recognizes.
type Mod uint8

const (
	ModShift Mod = 1 << iota
	ModAlt
	ModCtrl
)

// code returns the xterm modifier parameter: {Shift=1,Alt=2,Ctrl=4}+1,
// per xterm-keys.c. Zero modifiers has no parameter at all, handled by
// the caller.
func (m Mod) code() int {
	n := 1
	if m&ModShift != 0 {
		n += 1
	}
	if m&ModAlt != 0 {
		n += 2
	}
	if m&ModCtrl != 0 {
		n += 4
	}
	return n
}

// Key is a single client keystroke: either a printable/control rune, or
// one of the named keys in namedKeys (arrows, function keys, …).
type Key struct {
	Rune rune   // valid when Name == ""
	Name string // e.g. "Up", "F5", "Home"; empty for a plain rune
	Mods Mod
}

// keyForm describes how a named key is encoded: either a single CSI/SS3
// final letter (arrows, Home/End, F1-F4) or a CSI "n ~" tilde code
// (Insert/Delete/PageUp/PageDown, F5 and up), per xterm-keys.c.
type keyForm struct {
	letter byte // final byte for the letter form; 0 if this key uses tilde form
	tilde  int  // tilde numeric code; 0 if this key uses letter form
	ss3    bool // unmodified form uses SS3 (ESC O) instead of CSI (ESC [)
}

// namedKeys is key-string.c's name table, restricted to the keys the
// teacher's terminal ever needs to forward to a child.
var namedKeys = map[string]keyForm{
	"Up":    {letter: 'A', ss3: true},
	"Down":  {letter: 'B', ss3: true},
	"Right": {letter: 'C', ss3: true},
	"Left":  {letter: 'D', ss3: true},
	"Home":  {letter: 'H', ss3: true},
	"End":   {letter: 'F', ss3: true},
	"F1":    {letter: 'P', ss3: true},
	"F2":    {letter: 'Q', ss3: true},
	"F3":    {letter: 'R', ss3: true},
	"F4":    {letter: 'S', ss3: true},
	"IC":    {tilde: 2}, // Insert
	"DC":    {tilde: 3}, // Delete
	"PPage": {tilde: 5}, // Page Up
	"NPage": {tilde: 6}, // Page Down
	"F5":    {tilde: 15},
	"F6":    {tilde: 17},
	"F7":    {tilde: 18},
	"F8":    {tilde: 19},
	"F9":    {tilde: 20},
	"F10":   {tilde: 21},
	"F11":   {tilde: 23},
	"F12":   {tilde: 24},
	"BTab":  {tilde: 0, letter: 'Z'}, // CSI Z, shift-tab; never takes a modifier parameter
}

// Encoder turns Keys into PTY bytes for one pane, tracking the pane's
// current DECCKM (cursor-key application mode) and UTF-8 posture.
type Encoder struct {
	CursorKeyMode bool
	UTF8          bool
}

// Encode returns the bytes to write to the pane's PTY for k.
func (e *Encoder) Encode(k Key) []byte {
	if k.Name != "" {
		return e.encodeNamed(k.Name, k.Mods)
	}
	return e.encodeRune(k.Rune, k.Mods)
}

func (e *Encoder) encodeNamed(name string, mods Mod) []byte {
	form, ok := namedKeys[name]
	if !ok {
		return nil
	}
	if name == "BTab" { // fixed CSI Z, no modifier slot
		return []byte("\033[Z")
	}
	if form.tilde != 0 {
		if mods == 0 {
			return []byte(fmt.Sprintf("\033[%d~", form.tilde))
		}
		return []byte(fmt.Sprintf("\033[%d;%d~", form.tilde, mods.code()))
	}
	if mods == 0 {
		if form.ss3 && e.CursorKeyMode {
			return []byte{0x1b, 'O', form.letter}
		}
		return []byte{0x1b, '[', form.letter}
	}
	return []byte(fmt.Sprintf("\033[1;%d%c", mods.code(), form.letter))
}

// encodeRune encodes a plain printable or control character, applying
// Ctrl/Alt per xterm-keys.c: Alt prefixes ESC, Ctrl maps letters (and a
// handful of punctuation) to their control-byte equivalent, and any
// modifier combination that has no control-byte equivalent (e.g.
// Ctrl+Shift on a letter) falls back to xterm's modifyOtherKeys format,
// CSI 27 ; M ; code ~.
func (e *Encoder) encodeRune(r rune, mods Mod) []byte {
	if mods&ModCtrl != 0 {
		if b, ok := controlByte(r); ok && mods&ModShift == 0 {
			if mods&ModAlt != 0 {
				return []byte{0x1b, b}
			}
			return []byte{b}
		}
		return []byte(fmt.Sprintf("\033[27;%d;%d~", mods.code(), r))
	}
	out := encodeUTF8OrLatin1(r, e.UTF8)
	if mods&ModAlt != 0 {
		return append([]byte{0x1b}, out...)
	}
	return out
}

// controlByte maps a rune to its Ctrl-modified control byte (rune & 0x1f
// for letters, plus the handful of punctuation xterm also maps), per
// xterm-keys.c's control-character table.
func controlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1, true
	case strings.ContainsRune("@[\\]^_", r):
		return byte(r) & 0x1f, true
	case r == ' ':
		return 0, true
	case r == '?':
		return 0x7f, true
	}
	return 0, false
}

func encodeUTF8OrLatin1(r rune, utf8Mode bool) []byte {
	if utf8Mode || r < 0x80 {
		return []byte(string(r))
	}
	if r <= 0xff {
		return []byte{byte(r)}
	}
	return []byte(string(r))
}
