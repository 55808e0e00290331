package server

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"sync"
	"unicode/utf8"

	"github.com/tmux/tmux-sub006/internal/cmdq"
	"github.com/tmux/tmux-sub006/internal/proto"
	"github.com/tmux/tmux-sub006/internal/render"
	"github.com/tmux/tmux-sub006/internal/screen"
	"github.com/tmux/tmux-sub006/internal/session"
)

// promptPrefixByte is the command-prompt trigger, Ctrl-B (tmux's default
// prefix key) followed by ':' — mirrors cmd-prompt.c's binding of the
// prefix-then-colon chord to command-prompt entry.
const promptPrefixByte = 0x02

// clientConn is one attached client's socket plus its per-connection
// render state: the last snapshot sent, so Diff only ever needs to
// describe what changed since that client's own last frame (each client
// can lag the pane's true state independently).
type clientConn struct {
	id       string
	conn     net.Conn
	client   *session.Client
	renderer *render.Renderer

	writeMu sync.Mutex

	mu             sync.Mutex
	prevSnap       render.Snapshot
	dirty          bool
	lastMouse      screen.MouseMode
	lastMouseEnc   screen.MouseEncoding
	awaitingPrefix bool
}

// handleConn runs the identify handshake and then the client's read
// loop, both on this connection's own goroutine (see Server's doc
// comment on the concurrency split).
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	ident, err := identify(conn)
	if err != nil {
		return
	}

	sess, err := s.DefaultSession(ident.Cols, ident.Rows)
	if err != nil {
		proto.WriteFrame(conn, proto.Frame{Type: proto.MsgExit})
		return
	}

	client := session.NewClient()
	client.Width, client.Height = ident.Cols, ident.Rows
	client.UTF8 = ident.UTF8
	client.Attach(sess)

	cc := &clientConn{
		id:       client.ID,
		conn:     conn,
		client:   client,
		renderer: render.New(s.Caps),
	}
	s.clientsMu.Lock()
	s.clients[cc.id] = cc
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, cc.id)
		s.clientsMu.Unlock()
		client.Detach()
		s.Queue.CancelForClient(client)
	}()

	if err := proto.WriteFrame(conn, proto.Frame{Type: proto.MsgReady}); err != nil {
		return
	}
	cc.markDirty()

	for {
		f, err := proto.ReadFrame(conn)
		if err != nil {
			return
		}
		if !s.handleClientFrame(cc, f) {
			return
		}
	}
}

func identify(conn net.Conn) (*proto.IdentifyPayload, error) {
	f, err := proto.ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	if f.Type != proto.MsgIdentifyFlags {
		return nil, fmt.Errorf("expected identify frame, got type %d", f.Type)
	}
	var ident proto.IdentifyPayload
	if err := proto.Decode(f.Payload, &ident); err != nil {
		return nil, err
	}
	done, err := proto.ReadFrame(conn)
	if err != nil {
		return nil, err
	}
	if done.Type != proto.MsgIdentifyDone {
		return nil, fmt.Errorf("expected identify-done, got type %d", done.Type)
	}
	return &ident, nil
}

// handleClientFrame processes one post-identify frame, returning false
// if the connection should close.
func (s *Server) handleClientFrame(cc *clientConn, f proto.Frame) bool {
	switch f.Type {
	case proto.MsgCommand:
		var cmd proto.CommandPayload
		if proto.Decode(f.Payload, &cmd) != nil {
			return true
		}
		s.submit(cc, cmd.Line)
		return true

	case proto.MsgResize:
		var rs proto.ResizePayload
		if proto.Decode(f.Payload, &rs) != nil {
			return true
		}
		cc.client.Width, cc.client.Height = rs.Cols, rs.Rows
		if sess := cc.client.Session(); sess != nil {
			if w := sess.ActiveWindow(); w != nil {
				w.Resize(rs.Cols, rs.Rows)
			}
		}
		cc.markDirty()
		return true

	case proto.MsgOldStdin:
		s.forwardInput(cc, f.Payload)
		return true

	case proto.MsgDetach:
		return false

	case proto.MsgShutdown:
		s.Loop.Stop()
		return false
	}
	return true
}

// submit parses a command line from a client and appends it to the
// queue; target resolution happens eagerly here (it only reads, via the
// model's own locks) and is re-validated at dispatch time via the
// findPane weak reference.
func (s *Server) submit(cc *clientConn, line string) {
	cl, err := cmdq.ParseCmdList(line)
	if err != nil {
		return
	}
	for _, c := range cl.Commands {
		tgt, err := cmdq.Resolve(c.Target, cc.client, s.LookupSession, nil)
		if err != nil {
			continue
		}
		s.Queue.Append(&cmdq.Item{Cmd: c, Target: tgt})
	}
}

// forwardInput writes raw client keystroke bytes to the session's
// active pane (spec.md §6.2: client reads are raw keystrokes, and most
// bytes need no server-side reinterpretation — the exceptions,
// paste-buffer playback and mouse reports, go through internal/input
// explicitly in the paste-buffer and mouse-report paths), except while
// the client's command-prompt overlay is active, when every byte
// instead edits cc.client.Prompt and the prefix chord that opens it.
func (s *Server) forwardInput(cc *clientConn, data []byte) {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]

		if cc.client.Prompt.Active {
			s.handlePromptByte(cc, r)
			continue
		}
		if cc.awaitingPrefix {
			cc.awaitingPrefix = false
			if r == ':' {
				cc.client.Prompt.Reset()
				cc.client.Prompt.Active = true
				cc.markDirty()
			}
			continue
		}
		if r == promptPrefixByte {
			cc.awaitingPrefix = true
			continue
		}
		s.writeToActivePane(cc, []byte(string(r)))
	}
}

// handlePromptByte applies one decoded rune to the command-prompt
// overlay's editing buffer: Enter submits the line as a command (same
// path as a MsgCommand frame), Escape cancels, and the rest are the
// motion/kill/insert keys ported onto session.PromptState.
func (s *Server) handlePromptByte(cc *clientConn, r rune) {
	p := &cc.client.Prompt
	switch r {
	case '\r', '\n':
		line := p.String()
		p.Active = false
		p.Reset()
		s.submit(cc, line)
	case 0x1b: // Escape
		p.Active = false
		p.Reset()
	case 0x7f, 0x08: // Backspace
		p.DeleteBackward()
	case 0x02: // Ctrl-B, left
		p.CursorLeft()
	case 0x06: // Ctrl-F, right
		p.CursorRight()
	case 0x01: // Ctrl-A, start of line
		p.CursorToStart()
	case 0x05: // Ctrl-E, end of line
		p.CursorToEnd()
	case 0x0b: // Ctrl-K, kill to end
		p.KillToEnd()
	case 0x15: // Ctrl-U, kill to start
		p.KillToStart()
	default:
		if r >= 0x20 {
			p.InsertRune(r)
		}
	}
	cc.markDirty()
}

func (s *Server) writeToActivePane(cc *clientConn, b []byte) {
	if len(b) == 0 {
		return
	}
	sess := cc.client.Session()
	if sess == nil {
		return
	}
	w := sess.ActiveWindow()
	if w == nil || w.ActivePane == nil {
		return
	}
	w.ActivePane.Write(b)
}

func (cc *clientConn) markDirty() {
	cc.mu.Lock()
	cc.dirty = true
	cc.mu.Unlock()
}

// pushRenders writes one MsgOldStdout frame to every dirty client,
// diffing against that client's own last-sent snapshot.
func (s *Server) pushRenders() {
	s.clientsMu.Lock()
	targets := make([]*clientConn, 0, len(s.clients))
	for _, cc := range s.clients {
		targets = append(targets, cc)
	}
	s.clientsMu.Unlock()

	for _, cc := range targets {
		s.pushRenderTo(cc)
	}
}

func (s *Server) pushRenderTo(cc *clientConn) {
	cc.mu.Lock()
	if !cc.dirty {
		cc.mu.Unlock()
		return
	}
	cc.dirty = false
	prev := cc.prevSnap
	cc.mu.Unlock()

	sess := cc.client.Session()
	if sess == nil {
		return
	}
	w := sess.ActiveWindow()
	if w == nil || w.ActivePane == nil {
		return
	}
	scr := w.ActivePane.ActiveScreen()
	cur := render.Snap(scr.Grid)

	var buf bytes.Buffer
	writeModeChanges(&buf, cc, scr)
	if _, err := cc.renderer.Diff(&buf, prev, cur); err != nil {
		return
	}

	cc.mu.Lock()
	cc.prevSnap = cur
	cc.mu.Unlock()

	if cc.client.Prompt.Active {
		buf.Write(render.PromptOverlay(cc.client.Prompt.String(), cc.client.Prompt.Cursor, cc.client.Height))
	}

	if buf.Len() == 0 {
		return
	}
	cc.writeMu.Lock()
	defer cc.writeMu.Unlock()
	proto.WriteFrame(cc.conn, proto.Frame{Type: proto.MsgOldStdout, Payload: buf.Bytes()})
}

// writeModeChanges re-synthesizes the DECSET/DECRST sequence for the
// pane's current mouse mode/encoding whenever it differs from what this
// client was last told, since the renderer's row diff only ever
// describes grid.Cell content, not mode state (spec.md §4.9: "mouse
// events … encoded … according to the mode" presupposes the client's
// real terminal has been told to report them).
func writeModeChanges(w io.Writer, cc *clientConn, scr *screen.Screen) {
	mode, enc := scr.MouseMode(), scr.MouseEncoding()
	cc.mu.Lock()
	changed := mode != cc.lastMouse || enc != cc.lastMouseEnc
	cc.lastMouse, cc.lastMouseEnc = mode, enc
	cc.mu.Unlock()
	if !changed {
		return
	}
	io.WriteString(w, mouseModeSequence(mode, enc))
}

func mouseModeSequence(mode screen.MouseMode, enc screen.MouseEncoding) string {
	var seq string
	switch mode {
	case screen.MouseClick:
		seq = "\033[?1000h"
	case screen.MouseButtonMotion:
		seq = "\033[?1002h"
	case screen.MouseAnyMotion:
		seq = "\033[?1003h"
	default:
		return "\033[?1000l\033[?1002l\033[?1003l"
	}
	switch enc {
	case screen.MouseEncodingSGR:
		seq += "\033[?1006h"
	case screen.MouseEncodingURXVT:
		seq += "\033[?1015h"
	case screen.MouseEncodingUTF8:
		seq += "\033[?1005h"
	}
	return seq
}
