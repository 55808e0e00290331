// Package proto implements the client-server wire protocol (spec.md
// §6.1): a fixed message-type enumeration, the protocol version
// number, and length-prefixed framing. Framing is grounded on
// internal/session/attach.go's frameWriter/frameInputReader and
// message.WriteFrame/ReadFrame; each frame here is a 4-byte type and a
// 4-byte big-endian length header ahead of the payload. The message-type
// numbering itself comes from tmux-protocol.h rather than being invented.
package proto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ProtocolVersion is the wire protocol version number (spec.md §6.1).
// No frame carries it: the identify handshake (MsgIdentifyFlags then
// MsgIdentifyDone) has no version field, and MsgVersion is never sent.
const ProtocolVersion = 8

// Type is a wire message type, numbered per tmux-protocol.h rather than
// assigned arbitrarily, so a packet capture lines up with the spec's
// reference numbering.
type Type uint32

const (
	MsgVersion Type = 12

	MsgIdentifyFlags     Type = 100
	MsgIdentifyTerm      Type = 101
	MsgIdentifyTermInfo  Type = 102
	MsgIdentifyCWD       Type = 103
	MsgIdentifyStdin     Type = 104
	MsgIdentifyEnviron   Type = 105
	MsgIdentifyTTYName   Type = 106
	MsgIdentifyOldTTYName Type = 107
	MsgIdentifyClientPID Type = 108
	MsgIdentifyDone      Type = 109
	MsgIdentifyLongFlags Type = 110
	MsgIdentifyTermInfo2 Type = 111

	MsgCommand Type = 200
	MsgDetach  Type = 201
	MsgExit    Type = 202
	MsgExited  Type = 203
	MsgExiting Type = 204
	MsgLock    Type = 205
	MsgReady   Type = 206
	MsgResize  Type = 207
	MsgShell   Type = 208
	MsgShutdown Type = 209
	MsgOldStderr Type = 210
	// MsgOldStdin/MsgOldStdout carry the raw keystroke/render byte
	// stream once a client is attached: unlike the other C→S/S→C
	// messages, their payload is opaque raw bytes, not a struct, since
	// spec.md §6.2 treats client keystrokes and server screen writes as
	// "raw control sequences"/"raw keystrokes" rather than structured
	// fields.
	MsgOldStdin  Type = 211
	MsgOldStdout Type = 212
	MsgSuspend   Type = 213
	MsgUnlock    Type = 214
	MsgWakeup    Type = 215
	MsgExec      Type = 216
	MsgFlags     Type = 217

	MsgReadOpen  Type = 300
	MsgRead      Type = 301
	MsgReadDone  Type = 302
	MsgWriteOpen Type = 303
	MsgWrite     Type = 304
	MsgWriteReady Type = 305
	MsgWriteClose Type = 306
)

// maxFrameSize caps a single frame's payload, guarding against a
// corrupt or hostile length header consuming unbounded memory.
const maxFrameSize = 10 * 1024 * 1024

// Frame is one length-prefixed wire message: a Type header followed by
// an opaque payload whose encoding is Type-specific (spec.md §6.1 keeps
// payload encoding out of scope for the frame layer itself).
type Frame struct {
	Type    Type
	Payload []byte
}

// WriteFrame writes header [4 bytes type][4 bytes big-endian length]
// followed by payload.
func WriteFrame(w io.Writer, f Frame) error {
	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], uint32(f.Type))
	binary.BigEndian.PutUint32(header[4:8], uint32(len(f.Payload)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return fmt.Errorf("write frame payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads one framed message, rejecting a declared length over
// maxFrameSize before ever allocating a buffer for it.
func ReadFrame(r io.Reader) (Frame, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return Frame{}, err
	}
	typ := Type(binary.BigEndian.Uint32(header[0:4]))
	length := binary.BigEndian.Uint32(header[4:8])
	if length > maxFrameSize {
		return Frame{}, fmt.Errorf("frame too large: %d bytes", length)
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, fmt.Errorf("read frame payload: %w", err)
		}
	}
	return Frame{Type: typ, Payload: payload}, nil
}
