// Package pane owns the PTY lifecycle for a single pane: spawning the
// child, feeding its output through vtparse into a screen.Screen, and
// draining writes back to the child. Adapted from
// internal/session/virtualterminal/vt.go's StartPTY/PipeOutput, split
// from one hard-coded child per daemon into one Pane per split.
package pane

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/tmux/tmux-sub006/internal/screen"
	"github.com/tmux/tmux-sub006/internal/vtparse"
)

// State is a pane's lifecycle stage (spec.md §4.4 "Death").
type State uint8

const (
	StateRunning State = iota
	StateDead
)

// ID uniquely identifies a pane within its server, used as the `%N`
// format and as the wire protocol's pane target.
type ID uint32

// Pane owns a PTY master/child pair, its own parser, and an output ring
// awaiting drain to the child. Primary/alternate screen swapping (mode
// 1047/1049) lives entirely inside screen.Screen, which owns both grids
// and points its exported Grid field at whichever is current — the pane
// itself only ever feeds bytes into the one Screen.
type Pane struct {
	ID ID

	mu     sync.Mutex
	ptm    *os.File
	cmd    *exec.Cmd
	parser *vtparse.Parser

	Screen *screen.Screen

	outRing []byte

	state     State
	ExitError error

	RemainOnExit bool
	lastActivity time.Time

	OnDirty func()
}

// SpawnOptions configures a new pane's child process.
type SpawnOptions struct {
	Command string
	Args    []string
	Cwd     string
	Env     map[string]string
	Rows    int
	Cols    int
	History int
}

// Spawn opens a PTY, forks the child with the merged environment
// (session env wins over client PATH and internal TMUX* vars on
// collision per spec.md §4.4), and registers the pane ready to be added
// to the event loop for read.
func Spawn(id ID, opts SpawnOptions) (*Pane, error) {
	p := &Pane{ID: id, parser: nil, lastActivity: time.Now()}

	resp := (*oscResponder)(p)
	p.Screen = screen.New(opts.Cols, opts.Rows, opts.History, resp, nil)
	p.parser = vtparse.New(p.Screen)

	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Dir = opts.Cwd
	cmd.Env = mergeEnv(opts.Env, map[string]string{
		"TMUX":      fmt.Sprintf("/tmp/tmuxsrv,%d,0", os.Getpid()),
		"TMUX_PANE": fmt.Sprintf("%%%d", id),
	})

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(opts.Rows), Cols: uint16(opts.Cols)})
	if err != nil {
		return nil, fmt.Errorf("start pane command: %w", err)
	}
	p.ptm, p.cmd = ptm, cmd
	return p, nil
}

// mergeEnv merges the server process's environment, internal vars
// (TMUX/TMUX_PANE), and the session environment, in that order of
// increasing precedence: on key collision the session environment (env)
// wins over both, internal vars included (spec.md §4.4's stated
// precedence), and internal vars win over the process environment.
func mergeEnv(env map[string]string, internal map[string]string) []string {
	merged := map[string]string{}
	for _, e := range os.Environ() {
		if idx := strings.IndexByte(e, '='); idx >= 0 {
			merged[e[:idx]] = e[idx+1:]
		}
	}
	for k, v := range internal {
		if _, exists := env[k]; !exists {
			merged[k] = v
		}
	}
	for k, v := range env {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

// FD returns the PTY master file descriptor for event-loop registration.
func (p *Pane) FD() uintptr { return p.ptm.Fd() }

// ReadReady drains up to 8KiB from the PTY master (spec.md §4.4 "Read
// side") and feeds it through the parser into the active screen.
func (p *Pane) ReadReady() error {
	buf := make([]byte, 8192)
	n, err := p.ptm.Read(buf)
	if n > 0 {
		p.mu.Lock()
		p.lastActivity = time.Now()
		for i := 0; i < n; i++ {
			p.parser.Advance(buf[i])
		}
		p.mu.Unlock()
		if p.OnDirty != nil {
			p.OnDirty()
		}
	}
	if err != nil {
		p.markDead(err)
		return err
	}
	return nil
}

// Write appends bytes to the pane's output ring (spec.md §4.4 "Write
// side"); the event loop's writable callback drains it via DrainWrite.
func (p *Pane) Write(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outRing = append(p.outRing, b...)
}

// DrainWrite writes as much of the pending output ring as the PTY master
// accepts without blocking.
func (p *Pane) DrainWrite() error {
	p.mu.Lock()
	pending := p.outRing
	p.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}
	n, err := p.ptm.Write(pending)
	p.mu.Lock()
	p.outRing = p.outRing[n:]
	p.mu.Unlock()
	return err
}

// HasPendingWrite reports whether DrainWrite has more work, used by the
// event loop to decide whether WANT_WRITE stays registered.
func (p *Pane) HasPendingWrite() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.outRing) > 0
}

// Resize changes the screen's dimensions and notifies the kernel PTY of
// the new window size (TIOCSWINSZ via creack/pty).
func (p *Pane) Resize(cols, rows int) error {
	p.mu.Lock()
	p.Screen.Resize(cols, rows)
	p.mu.Unlock()
	return pty.Setsize(p.ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// ActiveScreen returns the pane's screen; its Grid field points at
// whichever of the primary/alternate grids mode 1047/1049 last selected.
func (p *Pane) ActiveScreen() *screen.Screen {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Screen
}

// State reports the pane's lifecycle stage.
func (p *Pane) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// markDead transitions the pane to DEAD on reap or read error; per
// spec.md §4.4 the caller (Window) decides whether remain-on-exit keeps
// it around.
func (p *Pane) markDead(err error) {
	p.mu.Lock()
	p.state = StateDead
	p.ExitError = err
	p.mu.Unlock()
}

// Reap waits on the child process (called by the event loop's SIGCHLD
// handler once the pid has been matched to this pane) and records the
// exit error, if any.
func (p *Pane) Reap() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	err := p.cmd.Wait()
	p.markDead(err)
}

// Kill sends SIGKILL to the child, used by kill-pane and on server
// shutdown.
func (p *Pane) Kill() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
}

// oscResponder adapts *Pane to screen.OSCResponder, writing synthesised
// OSC replies (colour queries, clipboard) back into the child's stdin
// exactly as a real terminal would answer its own application.
type oscResponder Pane

func (r *oscResponder) WriteToChild(b []byte) {
	(*Pane)(r).Write(b)
}
