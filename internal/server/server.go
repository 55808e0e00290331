// Package server wires the data-model, layout, command-queue, event-loop,
// and render packages into a running tmuxsrv instance: it owns the
// session table, accepts client connections, and drives the command
// queue from the event loop's after-I/O hook. Grounded on
// internal/session/daemon.go's Daemon (Listener + accept loop) and
// RunDaemon/ForkDaemon's socket setup, generalized from one daemon
// owning one child process to one server owning a session tree.
package server

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/tmux/tmux-sub006/internal/cmdq"
	"github.com/tmux/tmux-sub006/internal/layout"
	"github.com/tmux/tmux-sub006/internal/loop"
	"github.com/tmux/tmux-sub006/internal/pane"
	"github.com/tmux/tmux-sub006/internal/render"
	"github.com/tmux/tmux-sub006/internal/serverdir"
	"github.com/tmux/tmux-sub006/internal/session"
)

// Server owns the session table and the single-threaded loop that
// drains the command queue and pushes renders (spec.md §5 "the global
// client set, session tree, and window reference graph are mutated only
// from loop callbacks").
//
// Client socket I/O itself runs on a goroutine per connection (the same
// shape as daemon.go's "go d.acceptLoop()"), since Go's net package
// gives no portable way to drive a net.Conn's readiness from a
// hand-rolled epoll set without bypassing the runtime poller entirely.
// Those goroutines only ever call Queue.Append (internally
// mutex-guarded) or hand a fresh *pane.Pane to registerPane on the loop
// goroutine via a channel — every session/window/pane mutation still
// happens inside a loop callback, preserving the invariant for the data
// itself even though raw bytes arrive via OS threads.
type Server struct {
	mu       sync.Mutex
	sessions map[string]*session.Session

	Queue *cmdq.Queue
	Loop  *loop.Loop
	Caps  *render.Capabilities

	clientsMu sync.Mutex
	clients   map[string]*clientConn

	spawn chan func()

	ShellCommand string
	ShellArgs    []string
}

// New creates a Server with an empty session table and registry-backed
// command queue.
func New(l *loop.Loop) *Server {
	s := &Server{
		sessions:     map[string]*session.Session{},
		Loop:         l,
		Caps:         render.Probe(),
		clients:      map[string]*clientConn{},
		spawn:        make(chan func(), 64),
		ShellCommand: defaultShell(),
	}
	s.Queue = cmdq.New(BuildRegistry(s))
	return s
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Bind resolves the socket path and starts listening, refusing to start
// if an existing live server already owns it (spec.md §6.3).
func Bind(explicitDir, socketName string) (net.Listener, string, error) {
	dir := serverdir.Dir(explicitDir)
	if err := serverdir.EnsureDir(dir); err != nil {
		return nil, "", err
	}
	path := serverdir.SocketPath(dir, socketName)
	if err := serverdir.ProbeSocket(path, fmt.Sprintf("socket %q", path)); err != nil {
		return nil, "", err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, "", fmt.Errorf("listen on %s: %w", path, err)
	}
	return ln, path, nil
}

// Serve accepts connections until the listener closes, handling each on
// its own goroutine.
func (s *Server) Serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

// RunLoopFuncs drains the channel of pane-registration closures handed
// in from connection goroutines; called from the loop's after-I/O hook
// so registration always happens on the loop's own goroutine.
func (s *Server) RunLoopFuncs() {
	for {
		select {
		case fn := <-s.spawn:
			fn()
		default:
			return
		}
	}
}

// LookupSession implements cmdq.SessionLookup.
func (s *Server) LookupSession(name string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[name]
}

// AddSession registers a newly created session under its name.
func (s *Server) AddSession(sess *session.Session) {
	s.mu.Lock()
	s.sessions[sess.Name] = sess
	s.mu.Unlock()
}

// RemoveSession unregisters a session once its last window has closed.
func (s *Server) RemoveSession(name string) {
	s.mu.Lock()
	delete(s.sessions, name)
	s.mu.Unlock()
}

// Sessions returns a snapshot of the session table.
func (s *Server) Sessions() []*session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// DefaultSession returns the "main" session, creating it (with one
// shell pane) if this is the first client to attach.
func (s *Server) DefaultSession(cols, rows int) (*session.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions["main"]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}
	return s.NewNamedSession("main", cols, rows)
}

// NewNamedSession spawns a fresh shell pane and wraps it in a new
// session, used both for the first attach and for the new-session
// command.
func (s *Server) NewNamedSession(name string, cols, rows int) (*session.Session, error) {
	p, err := s.spawnShellPane(cols, rows)
	if err != nil {
		return nil, err
	}
	w := session.NewWindow("0", 0, p, cols, rows)
	sess := session.NewSession(name, w)
	s.AddSession(sess)
	return sess, nil
}

func (s *Server) spawnShellPane(cols, rows int) (*pane.Pane, error) {
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	id := pane.ID(nextPaneID())
	p, err := pane.Spawn(id, pane.SpawnOptions{
		Command: s.ShellCommand,
		Args:    s.ShellArgs,
		Cwd:     currentDir(),
		Env:     map[string]string{},
		Rows:    rows,
		Cols:    cols,
		History: 2000,
	})
	if err != nil {
		return nil, err
	}
	s.registerPane(p)
	return p, nil
}

func currentDir() string {
	d, err := os.Getwd()
	if err != nil {
		return "/"
	}
	return d
}

var paneIDCounter uint32

func nextPaneID() uint32 {
	paneIDCounter++
	return paneIDCounter
}

// registerPane wires a pane's PTY master into the loop (readable always;
// writable toggled on demand) and marks every attached client dirty
// whenever new output arrives.
func (s *Server) registerPane(p *pane.Pane) {
	fd := int(p.FD())
	p.OnDirty = func() {
		s.markDirtyForPane(p)
	}
	s.Loop.Register(fd, loop.Readable, func(ready loop.Interest) {
		if ready&loop.Readable != 0 {
			p.ReadReady()
		}
	})
}

// SplitPane spawns a new shell pane sized to share the target window
// with an existing leaf, used by the split-window handler.
func (s *Server) SplitPane(w *session.Window, kind layout.Kind, target *pane.Pane) (*pane.Pane, error) {
	p, err := s.spawnShellPane(w.Sx, w.Sy)
	if err != nil {
		return nil, err
	}
	var leaf *layout.Node
	for _, l := range w.Layout.Leaves() {
		if l.Pane == target {
			leaf = l
			break
		}
	}
	if leaf == nil {
		leaf = w.Layout
	}
	leaf.Split(kind, p)
	w.AddPane(p)
	w.Resize(w.Sx, w.Sy)
	return p, nil
}

// markDirtyForPane flags every client whose window shows one of the
// pane's leaves as needing a fresh render on the next after-I/O pass.
func (s *Server) markDirtyForPane(p *pane.Pane) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for _, cc := range s.clients {
		sess := cc.client.Session()
		if sess == nil {
			continue
		}
		if windowHasPane(sess.ActiveWindow(), p) {
			cc.dirty = true
		}
	}
}

func windowHasPane(w *session.Window, p *pane.Pane) bool {
	if w == nil {
		return false
	}
	for _, q := range w.Panes() {
		if q == p {
			return true
		}
	}
	return false
}

// AfterIO is the loop's after-I/O hook: drain the queued commands, then
// push any pending renders (spec.md §4.6).
func (s *Server) AfterIO() {
	s.RunLoopFuncs()
	s.Queue.Drain()
	s.pushRenders()
}
