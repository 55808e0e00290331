// Package session implements the Session/Window/Client data model
// (spec.md §3) generalized from internal/session/session.go's
// single-child-process model: a Session owns an ordered Window list and
// a last-selected stack; a Window owns a layout.Node tree of Panes; a Client
// attaches to a Session and carries its own input/overlay state.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tmux/tmux-sub006/internal/layout"
	"github.com/tmux/tmux-sub006/internal/pane"
	"github.com/tmux/tmux-sub006/internal/pastebuf"
)

// WindowIndex is a session-local small integer window key (spec.md §3
// "small integer index → Window", not insertion order).
type WindowIndex int

// Window owns a non-empty ordered list of panes tiled by a layout tree.
type Window struct {
	Name       string
	Index      WindowIndex
	Sx, Sy     int
	Layout     *layout.Node
	ActivePane *pane.Pane
	panes      []*pane.Pane

	zoom *layout.Zoom

	refSessions map[*Session]bool
	mu          sync.Mutex
}

// NewWindow creates a single-pane window occupying sx x sy.
func NewWindow(name string, index WindowIndex, p *pane.Pane, sx, sy int) *Window {
	leaf := layout.NewLeaf(p, sx, sy)
	leaf.Resize(0, 0, sx, sy)
	return &Window{
		Name:        name,
		Index:       index,
		Sx:          sx,
		Sy:          sy,
		Layout:      leaf,
		ActivePane:  p,
		panes:       []*pane.Pane{p},
		refSessions: map[*Session]bool{},
	}
}

// Panes returns the window's panes in layout order.
func (w *Window) Panes() []*pane.Pane {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*pane.Pane(nil), w.panes...)
}

// AddPane registers a newly split pane with the window (the caller has
// already mutated w.Layout via (*layout.Node).Split).
func (w *Window) AddPane(p *pane.Pane) {
	w.mu.Lock()
	w.panes = append(w.panes, p)
	w.mu.Unlock()
}

// RemovePane drops p from the window's pane list (spec.md §4.4 "Death":
// when the last pane is removed, the window is removed by the owning
// Session). Returns true if p was the window's last pane.
func (w *Window) RemovePane(p *pane.Pane) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, q := range w.panes {
		if q == p {
			w.panes = append(w.panes[:i], w.panes[i+1:]...)
			break
		}
	}
	if w.ActivePane == p && len(w.panes) > 0 {
		w.ActivePane = w.panes[0]
	}
	return len(w.panes) == 0
}

// Resize recomputes the window's layout for a new size (spec.md §4.5
// resize protocol).
func (w *Window) Resize(sx, sy int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Sx, w.Sy = sx, sy
	w.Layout.Resize(0, 0, sx, sy)
}

// ZoomActivePane promotes the active pane's leaf to fill the window.
func (w *Window) ZoomActivePane() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.zoom != nil {
		return
	}
	for _, leaf := range w.Layout.Leaves() {
		if leaf.Pane == w.ActivePane {
			promoted, z := layout.ZoomIn(w.Layout, leaf)
			w.zoom = z
			w.Layout = promoted
			return
		}
	}
}

// Unzoom restores the tree stashed by ZoomActivePane, a no-op if not
// zoomed.
func (w *Window) Unzoom() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.zoom == nil {
		return
	}
	w.Layout = layout.ZoomOut(w.zoom, w.Sx, w.Sy)
	w.zoom = nil
}

// Session owns an ordered window list, the currently selected index, a
// last-selected stack, environment, and a paste-buffer stack (spec.md
// §3).
type Session struct {
	ID   string
	Name string

	Cwd string
	Env map[string]string

	Paste *pastebuf.Stack

	mu            sync.Mutex
	windows       map[WindowIndex]*Window
	current       WindowIndex
	lastSelected  []WindowIndex
	nextIndex     WindowIndex

	clientsMu sync.Mutex
	clients   map[*Client]bool
}

// NewSession creates a session whose only window is first, at index 0,
// per spec.md §3's invariant that a session always has at least one
// window.
func NewSession(name string, first *Window) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Env:       map[string]string{},
		Paste:     pastebuf.New(50),
		windows:   map[WindowIndex]*Window{0: first},
		current:   0,
		nextIndex: 1,
		clients:   map[*Client]bool{},
	}
	return s
}

// Windows returns the session's windows ordered by index.
func (s *Session) Windows() []*Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Window, 0, len(s.windows))
	for i := WindowIndex(0); i < s.nextIndex; i++ {
		if w, ok := s.windows[i]; ok {
			out = append(out, w)
		}
	}
	return out
}

// WindowAt returns the window at the given index, or nil.
func (s *Session) WindowAt(idx WindowIndex) *Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[idx]
}

// ActiveWindow returns the currently selected window.
func (s *Session) ActiveWindow() *Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[s.current]
}

// AddWindow links a new window into the session at the next free index,
// returning the assigned index.
func (s *Session) AddWindow(w *Window) WindowIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.nextIndex
	s.nextIndex++
	w.Index = idx
	s.windows[idx] = w
	w.refSessions[s] = true
	return idx
}

// SelectWindow switches the session's active window, pushing the
// previous selection onto the last-selected stack.
func (s *Session) SelectWindow(idx WindowIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.windows[idx]; !ok {
		return fmt.Errorf("no window at index %d", idx)
	}
	if s.current != idx {
		s.lastSelected = append(s.lastSelected, s.current)
	}
	s.current = idx
	return nil
}

// LastWindow switches back to the most recently selected window.
func (s *Session) LastWindow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lastSelected) == 0 {
		return fmt.Errorf("no last window")
	}
	idx := s.lastSelected[len(s.lastSelected)-1]
	s.lastSelected = s.lastSelected[:len(s.lastSelected)-1]
	s.current = idx
	return nil
}

// RemoveWindow unlinks a window by index; the caller (cmdq handler) is
// responsible for destroying the session itself once this reports the
// session now has zero windows, per spec.md §3's non-empty invariant.
func (s *Session) RemoveWindow(idx WindowIndex) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, idx)
	if s.current == idx {
		for i := WindowIndex(0); i < s.nextIndex; i++ {
			if _, ok := s.windows[i]; ok {
				s.current = i
				break
			}
		}
	}
	return len(s.windows) == 0
}

// AddClient registers a newly attached client.
func (s *Session) AddClient(c *Client) {
	s.clientsMu.Lock()
	s.clients[c] = true
	s.clientsMu.Unlock()
}

// RemoveClient unregisters a detaching client.
func (s *Session) RemoveClient(c *Client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
}

// Clients returns the currently attached clients.
func (s *Session) Clients() []*Client {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	out := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	return out
}

// ClientFlag is a bitset of a Client's lifecycle/mode flags (spec.md §3).
type ClientFlag uint8

const (
	ClientSuspended ClientFlag = 1 << iota
	ClientReadOnly
	ClientExit
	ClientIdentified
	ClientControl
)

// Client owns a socket to the CLI process, the attached session (if
// any), terminal geometry, and input/overlay state: Prompt is the
// editing buffer for the client's command-prompt overlay, toggled and
// fed by the server's input path (see internal/server's forwardInput).
type Client struct {
	ID string

	mu      sync.Mutex
	session *Session
	Flags   ClientFlag

	Width, Height int
	UTF8          bool

	Prompt PromptState
}

// PromptState is the command-prompt overlay's editing buffer; its
// motion/kill/insert methods (prompt.go) are ported from
// internal/overlay/cursor.go's rune-stepping logic, adapted to Buf's
// []rune representation instead of the teacher's []byte one.
type PromptState struct {
	Buf    []rune
	Cursor int
	Active bool
}

// NewClient creates a detached client.
func NewClient() *Client {
	return &Client{ID: uuid.NewString()}
}

// Attach switches the client's session, registering it with both the
// old (removed) and new (added) session's client sets.
func (c *Client) Attach(s *Session) {
	c.mu.Lock()
	old := c.session
	c.session = s
	c.Flags |= ClientIdentified
	c.mu.Unlock()
	if old != nil {
		old.RemoveClient(c)
	}
	s.AddClient(c)
}

// Detach removes the client from its session, per spec.md §4.6
// "cancellation": the caller must also cancel any command queue items
// targeted at this client.
func (c *Client) Detach() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.Flags |= ClientExit
	c.mu.Unlock()
	if s != nil {
		s.RemoveClient(c)
	}
}

// Session returns the client's currently attached session, or nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
