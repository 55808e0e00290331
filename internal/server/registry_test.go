package server

import (
	"testing"

	"github.com/tmux/tmux-sub006/internal/cmdq"
	"github.com/tmux/tmux-sub006/internal/loop"
	"github.com/tmux/tmux-sub006/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	l, err := loop.New()
	if err != nil {
		t.Fatalf("loop.New: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return New(l)
}

func newTestTarget(t *testing.T, srv *Server, name string) (cmdq.Target, *session.Session) {
	t.Helper()
	w := session.NewWindow("win0", 0, nil, 80, 24)
	sess := session.NewSession(name, w)
	srv.AddSession(sess)
	client := session.NewClient()
	client.Attach(sess)
	tgt, err := cmdq.Resolve("", client, srv.LookupSession, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return tgt, sess
}

func TestCmdSelectWindowSwitchesActive(t *testing.T) {
	srv := newTestServer(t)
	tgt, sess := newTestTarget(t, srv, "s1")
	w2 := session.NewWindow("win1", 0, nil, 80, 24)
	idx := sess.AddWindow(w2)

	item := &cmdq.Item{Cmd: cmdq.Command{Name: "select-window"}, Target: cmdq.Target{
		Client: tgt.Client, Session: sess, Window: w2, Pane: tgt.Pane,
	}}
	if res := srv.cmdSelectWindow(item); res != cmdq.ResultNormal {
		t.Fatalf("cmdSelectWindow result = %v, want ResultNormal", res)
	}
	if sess.ActiveWindow().Index != idx {
		t.Fatalf("expected active window %d, got %d", idx, sess.ActiveWindow().Index)
	}
}

func TestCmdSelectWindowMissingWindowErrors(t *testing.T) {
	srv := newTestServer(t)
	item := &cmdq.Item{Cmd: cmdq.Command{Name: "select-window"}, Target: cmdq.Target{}}
	if res := srv.cmdSelectWindow(item); res != cmdq.ResultError {
		t.Fatalf("expected ResultError for missing target, got %v", res)
	}
}

func TestCmdRenameWindowSetsName(t *testing.T) {
	srv := newTestServer(t)
	tgt, _ := newTestTarget(t, srv, "s1")

	item := &cmdq.Item{
		Cmd:    cmdq.Command{Name: "rename-window", Args: []string{"newname"}},
		Target: tgt,
	}
	if res := srv.cmdRenameWindow(item); res != cmdq.ResultNormal {
		t.Fatalf("cmdRenameWindow result = %v, want ResultNormal", res)
	}
	if tgt.Window.Name != "newname" {
		t.Fatalf("window name = %q, want %q", tgt.Window.Name, "newname")
	}
}

func TestCmdRenameWindowNoArgsErrors(t *testing.T) {
	srv := newTestServer(t)
	tgt, _ := newTestTarget(t, srv, "s1")
	item := &cmdq.Item{Cmd: cmdq.Command{Name: "rename-window"}, Target: tgt}
	if res := srv.cmdRenameWindow(item); res != cmdq.ResultError {
		t.Fatalf("expected ResultError with no args, got %v", res)
	}
}

func TestCmdResizePaneGrowsWindow(t *testing.T) {
	srv := newTestServer(t)
	tgt, _ := newTestTarget(t, srv, "s1")
	sx, sy := tgt.Window.Sx, tgt.Window.Sy

	item := &cmdq.Item{
		Cmd:    cmdq.Command{Name: "resize-pane", Args: []string{"-x", "5", "-y", "-2"}},
		Target: tgt,
	}
	if res := srv.cmdResizePane(item); res != cmdq.ResultNormal {
		t.Fatalf("cmdResizePane result = %v, want ResultNormal", res)
	}
	if tgt.Window.Sx != sx+5 || tgt.Window.Sy != sy-2 {
		t.Fatalf("window size = %dx%d, want %dx%d", tgt.Window.Sx, tgt.Window.Sy, sx+5, sy-2)
	}
}

func TestCmdResizePaneRejectsNonPositiveResult(t *testing.T) {
	srv := newTestServer(t)
	tgt, _ := newTestTarget(t, srv, "s1")

	item := &cmdq.Item{
		Cmd:    cmdq.Command{Name: "resize-pane", Args: []string{"-x", "-1000"}},
		Target: tgt,
	}
	if res := srv.cmdResizePane(item); res != cmdq.ResultError {
		t.Fatalf("expected ResultError shrinking below 1 column, got %v", res)
	}
}

func TestCmdWaitForBlocksThenSignalReleases(t *testing.T) {
	srv := newTestServer(t)
	waiter := &cmdq.Item{Cmd: cmdq.Command{Name: "wait-for", Args: []string{"chan1"}}}
	if res := srv.cmdWaitFor(waiter); res != cmdq.ResultWait {
		t.Fatalf("expected ResultWait, got %v", res)
	}

	srv.Queue.Append(&cmdq.Item{Cmd: cmdq.Command{Name: "wait-for", Args: []string{"-S", "chan1"}}})
	srv.Queue.Drain()

	// Signal re-appends the original waiter flagged FlagWoken; draining
	// again must resume it instead of re-entering cmdWaitFor's default
	// branch, which would just re-arm the same wait forever.
	if waiter.Flags&cmdq.FlagWoken == 0 {
		t.Fatalf("expected Signal to mark the released waiter FlagWoken")
	}
}

func TestCmdWaitForLockThenUnlockHandsOff(t *testing.T) {
	srv := newTestServer(t)
	first := &cmdq.Item{Cmd: cmdq.Command{Name: "wait-for", Args: []string{"-L", "lockA"}}}
	if res := srv.cmdWaitFor(first); res != cmdq.ResultNormal {
		t.Fatalf("expected first locker to acquire immediately, got %v", res)
	}
	second := &cmdq.Item{Cmd: cmdq.Command{Name: "wait-for", Args: []string{"-L", "lockA"}}}
	if res := srv.cmdWaitFor(second); res != cmdq.ResultWait {
		t.Fatalf("expected second locker to block, got %v", res)
	}

	unlock := &cmdq.Item{Cmd: cmdq.Command{Name: "wait-for", Args: []string{"-U", "lockA"}}}
	if res := srv.cmdWaitFor(unlock); res != cmdq.ResultNormal {
		t.Fatalf("unlock result = %v, want ResultNormal", res)
	}

	// Unlock hands the lock straight to the next queued locker, flagged
	// FlagWoken so re-dispatch resumes it rather than re-running -L
	// (which would re-block behind the lock it just acquired).
	if second.Flags&cmdq.FlagWoken == 0 {
		t.Fatalf("expected Unlock to mark the handed-off locker FlagWoken")
	}
}

func TestFlagValueAndHasFlag(t *testing.T) {
	args := []string{"-x", "10", "-v"}
	if v, ok := flagValue(args, "-x"); !ok || v != "10" {
		t.Fatalf("flagValue(-x) = %q,%v, want 10,true", v, ok)
	}
	if _, ok := flagValue(args, "-y"); ok {
		t.Fatalf("expected flagValue(-y) to report absent")
	}
	if !hasFlag(args, "-v") {
		t.Fatalf("expected hasFlag(-v) true")
	}
}
