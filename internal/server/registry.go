// Registry of illustrative command handlers (spec.md §1 "command
// dispatch contract" is in scope; the ~40 user-command handlers
// themselves are a stated Non-goal). These ten exercise target
// resolution, hooks, and WAIT — named 1:1 after their cmd-*.c
// counterparts in original_source/ (cmd-new-session.c,
// cmd-new-window.c, cmd-split-window.c, cmd-select-window.c, cmd-select-pane.c, cmd-kill-pane.c,
// cmd-rename-window.c, cmd-send-keys.c, cmd-resize-pane.c,
// cmd-wait-for.c).
package server

import (
	"fmt"
	"strconv"

	"github.com/tmux/tmux-sub006/internal/cmdq"
	"github.com/tmux/tmux-sub006/internal/input"
	"github.com/tmux/tmux-sub006/internal/layout"
	"github.com/tmux/tmux-sub006/internal/session"
)

// BuildRegistry returns the command table the cmdq.Queue dispatches
// against.
func BuildRegistry(s *Server) map[string]*cmdq.Entry {
	reg := map[string]*cmdq.Entry{}
	add := func(name string, wantsTgt bool, h cmdq.Handler) {
		reg[name] = &cmdq.Entry{Name: name, WantsTgt: wantsTgt, Handler: h}
	}

	add("new-session", false, s.cmdNewSession)
	add("new-window", true, s.cmdNewWindow)
	add("split-window", true, s.cmdSplitWindow)
	add("select-window", true, s.cmdSelectWindow)
	add("select-pane", true, s.cmdSelectPane)
	add("kill-pane", true, s.cmdKillPane)
	add("rename-window", true, s.cmdRenameWindow)
	add("send-keys", true, s.cmdSendKeys)
	add("resize-pane", true, s.cmdResizePane)
	add("wait-for", false, s.cmdWaitFor)

	return reg
}

// flagValue returns the argument following -name in args, and true if
// present — the small illustrative handlers' own ad hoc flag parsing,
// since full getopt-style parsing is the out-of-scope handler layer's
// concern, not cmdq's.
func flagValue(args []string, name string) (string, bool) {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func (s *Server) cmdNewSession(item *cmdq.Item) cmdq.Result {
	name, ok := flagValue(item.Cmd.Args, "-s")
	if !ok {
		name = fmt.Sprintf("session-%d", len(s.Sessions())+1)
	}
	if s.LookupSession(name) != nil {
		return cmdq.ResultError
	}
	cols, rows := 80, 24
	if item.Target.Client != nil {
		if item.Target.Client.Width > 0 {
			cols = item.Target.Client.Width
		}
		if item.Target.Client.Height > 0 {
			rows = item.Target.Client.Height
		}
	}
	sess, err := s.NewNamedSession(name, cols, rows)
	if err != nil {
		return cmdq.ResultError
	}
	if item.Target.Client != nil {
		item.Target.Client.Attach(sess)
	}
	return cmdq.ResultNormal
}

func (s *Server) cmdNewWindow(item *cmdq.Item) cmdq.Result {
	sess := item.Target.Session
	if sess == nil {
		return cmdq.ResultError
	}
	cols, rows := 80, 24
	if aw := sess.ActiveWindow(); aw != nil {
		cols, rows = aw.Sx, aw.Sy
	}
	p, err := s.spawnShellPane(cols, rows)
	if err != nil {
		return cmdq.ResultError
	}
	name, _ := flagValue(item.Cmd.Args, "-n")
	if name == "" {
		name = fmt.Sprintf("win%d", len(sess.Windows()))
	}
	w := session.NewWindow(name, 0, p, cols, rows)
	idx := sess.AddWindow(w)
	sess.SelectWindow(idx)
	return cmdq.ResultNormal
}

func (s *Server) cmdSplitWindow(item *cmdq.Item) cmdq.Result {
	w := item.Target.Window
	if w == nil {
		return cmdq.ResultError
	}
	target := cmdq.Pane(w, item.Target.Pane)
	if target == nil {
		target = w.ActivePane
	}
	kind := layout.KindSplitHorizontal
	if _, vertical := flagValue(item.Cmd.Args, "-v"); vertical {
		kind = layout.KindSplitVertical
	}
	for _, a := range item.Cmd.Args {
		if a == "-v" {
			kind = layout.KindSplitVertical
		}
	}
	p, err := s.SplitPane(w, kind, target)
	if err != nil {
		return cmdq.ResultError
	}
	w.ActivePane = p
	return cmdq.ResultNormal
}

func (s *Server) cmdSelectWindow(item *cmdq.Item) cmdq.Result {
	if item.Target.Session == nil || item.Target.Window == nil {
		return cmdq.ResultError
	}
	if err := item.Target.Session.SelectWindow(item.Target.Window.Index); err != nil {
		return cmdq.ResultError
	}
	return cmdq.ResultNormal
}

func (s *Server) cmdSelectPane(item *cmdq.Item) cmdq.Result {
	w := item.Target.Window
	if w == nil {
		return cmdq.ResultError
	}
	p := cmdq.Pane(w, item.Target.Pane)
	if p == nil {
		return cmdq.ResultError
	}
	w.ActivePane = p
	return cmdq.ResultNormal
}

func (s *Server) cmdKillPane(item *cmdq.Item) cmdq.Result {
	w := item.Target.Window
	if w == nil {
		return cmdq.ResultError
	}
	p := cmdq.Pane(w, item.Target.Pane)
	if p == nil {
		p = w.ActivePane
	}
	if p == nil {
		return cmdq.ResultError
	}
	p.Kill()
	if w.RemovePane(p) {
		sess := item.Target.Session
		if sess != nil && sess.RemoveWindow(w.Index) {
			s.RemoveSession(sess.Name)
		}
	}
	return cmdq.ResultNormal
}

func (s *Server) cmdRenameWindow(item *cmdq.Item) cmdq.Result {
	w := item.Target.Window
	if w == nil || len(item.Cmd.Args) == 0 {
		return cmdq.ResultError
	}
	w.Name = item.Cmd.Args[len(item.Cmd.Args)-1]
	return cmdq.ResultNormal
}

func (s *Server) cmdSendKeys(item *cmdq.Item) cmdq.Result {
	w := item.Target.Window
	if w == nil {
		return cmdq.ResultError
	}
	p := cmdq.Pane(w, item.Target.Pane)
	if p == nil {
		p = w.ActivePane
	}
	if p == nil {
		return cmdq.ResultError
	}
	enc := &input.Encoder{UTF8: true}
	for _, arg := range item.Cmd.Args {
		if key, ok := namedArg(arg); ok {
			p.Write(enc.Encode(key))
			continue
		}
		p.Write([]byte(arg))
	}
	return cmdq.ResultNormal
}

// namedArg recognizes a send-keys argument spelled as a named key,
// e.g. "Up" or "Enter", and encodes it via internal/input instead
// of sending its literal text.
func namedArg(arg string) (input.Key, bool) {
	switch arg {
	case "Enter":
		return input.Key{Rune: '\r'}, true
	case "Tab":
		return input.Key{Rune: '\t'}, true
	case "Escape":
		return input.Key{Rune: 0x1b}, true
	case "Up", "Down", "Left", "Right", "Home", "End", "PPage", "NPage", "IC", "DC", "BTab":
		return input.Key{Name: arg}, true
	}
	return input.Key{}, false
}

func (s *Server) cmdResizePane(item *cmdq.Item) cmdq.Result {
	w := item.Target.Window
	if w == nil {
		return cmdq.ResultError
	}
	arg, _ := flagValue(item.Cmd.Args, "-x")
	dx, _ := strconv.Atoi(arg)
	arg, _ = flagValue(item.Cmd.Args, "-y")
	dy, _ := strconv.Atoi(arg)
	if dx == 0 && dy == 0 {
		return cmdq.ResultNormal
	}
	sx, sy := w.Sx, w.Sy
	if dx != 0 {
		sx += dx
	}
	if dy != 0 {
		sy += dy
	}
	if sx < 1 || sy < 1 {
		return cmdq.ResultError
	}
	w.Resize(sx, sy)
	return cmdq.ResultNormal
}

func (s *Server) cmdWaitFor(item *cmdq.Item) cmdq.Result {
	if len(item.Cmd.Args) == 0 {
		return cmdq.ResultError
	}
	name := item.Cmd.Args[len(item.Cmd.Args)-1]
	switch {
	case hasFlag(item.Cmd.Args, "-S"):
		s.Queue.Signal(name)
		return cmdq.ResultNormal
	case hasFlag(item.Cmd.Args, "-U"):
		s.Queue.Unlock(name)
		return cmdq.ResultNormal
	case hasFlag(item.Cmd.Args, "-L"):
		if s.Queue.Lock(name, item) {
			return cmdq.ResultNormal
		}
		return cmdq.ResultWait
	default:
		s.Queue.WaitFor(name, item)
		return cmdq.ResultWait
	}
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
