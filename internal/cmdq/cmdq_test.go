package cmdq

import (
	"testing"

	"github.com/tmux/tmux-sub006/internal/session"
)

func newTestSession(t *testing.T, name string) *session.Session {
	t.Helper()
	w := session.NewWindow("win0", 0, nil, 80, 24)
	return session.NewSession(name, w)
}

func TestParseCmdListSplitsOnSemicolon(t *testing.T) {
	cl, err := ParseCmdList(`new-window -t foo; select-window -t :1`)
	if err != nil {
		t.Fatalf("ParseCmdList: %v", err)
	}
	if len(cl.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(cl.Commands))
	}
	if cl.Commands[0].Name != "new-window" || cl.Commands[0].Target != "foo" {
		t.Fatalf("unexpected first command: %+v", cl.Commands[0])
	}
	if cl.Commands[1].Name != "select-window" || cl.Commands[1].Target != ":1" {
		t.Fatalf("unexpected second command: %+v", cl.Commands[1])
	}
}

func TestParseCmdListHonorsQuoting(t *testing.T) {
	cl, err := ParseCmdList(`send-keys "hello world"`)
	if err != nil {
		t.Fatalf("ParseCmdList: %v", err)
	}
	if len(cl.Commands) != 1 || len(cl.Commands[0].Args) != 1 || cl.Commands[0].Args[0] != "hello world" {
		t.Fatalf("unexpected parse: %+v", cl.Commands)
	}
}

func TestResolveEmptyTargetUsesCurrentSession(t *testing.T) {
	sess := newTestSession(t, "mysess")
	client := session.NewClient()
	client.Attach(sess)

	tgt, err := Resolve("", client, func(string) *session.Session { return nil }, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tgt.Session != sess {
		t.Fatalf("resolved session = %v, want %v", tgt.Session, sess)
	}
	if tgt.Window == nil || tgt.Window.Index != 0 {
		t.Fatalf("expected active window index 0, got %+v", tgt.Window)
	}
}

func TestResolveSessionByExactName(t *testing.T) {
	sess := newTestSession(t, "mysess")
	other := newTestSession(t, "othersess")
	client := session.NewClient()
	client.Attach(sess)

	lookup := func(name string) *session.Session {
		if name == "othersess" {
			return other
		}
		return nil
	}
	tgt, err := Resolve("=othersess", client, lookup, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tgt.Session != other {
		t.Fatalf("resolved session = %v, want othersess", tgt.Session)
	}
}

func TestResolveWindowIndexInCurrentSession(t *testing.T) {
	sess := newTestSession(t, "mysess")
	w1 := session.NewWindow("win1", 0, nil, 80, 24)
	sess.AddWindow(w1)
	client := session.NewClient()
	client.Attach(sess)

	tgt, err := Resolve(":1", client, func(string) *session.Session { return nil }, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tgt.Window != w1 {
		t.Fatalf("resolved window = %+v, want win1", tgt.Window)
	}
}

func TestResolveNegativeWindowIndexCountsFromEnd(t *testing.T) {
	sess := newTestSession(t, "mysess")
	sess.AddWindow(session.NewWindow("win1", 0, nil, 80, 24))
	sess.AddWindow(session.NewWindow("win2", 0, nil, 80, 24))
	client := session.NewClient()
	client.Attach(sess)

	tgt, err := Resolve(":-1", client, func(string) *session.Session { return nil }, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	windows := sess.Windows()
	want := windows[len(windows)-1]
	if tgt.Window != want {
		t.Fatalf("resolved window = %+v, want last window %+v", tgt.Window, want)
	}
}

func TestResolveUnknownSessionErrors(t *testing.T) {
	sess := newTestSession(t, "mysess")
	client := session.NewClient()
	client.Attach(sess)

	_, err := Resolve("=ghost", client, func(string) *session.Session { return nil }, nil)
	if err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestDrainDispatchesUntilWait(t *testing.T) {
	var order []string
	registry := map[string]*Entry{
		"a": {Name: "a", Handler: func(item *Item) Result {
			order = append(order, "a")
			return ResultNormal
		}},
		"b": {Name: "b", Handler: func(item *Item) Result {
			order = append(order, "b")
			return ResultWait
		}},
		"c": {Name: "c", Handler: func(item *Item) Result {
			order = append(order, "c")
			return ResultNormal
		}},
	}
	q := New(registry)
	q.Append(&Item{Cmd: Command{Name: "a"}})
	q.Append(&Item{Cmd: Command{Name: "b"}})
	q.Append(&Item{Cmd: Command{Name: "c"}})

	q.Drain()

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected dispatch order: %v", order)
	}
}

func TestAfterHookRunsAfterCommand(t *testing.T) {
	var order []string
	registry := map[string]*Entry{
		"rename-window": {Name: "rename-window", Handler: func(item *Item) Result {
			order = append(order, "main")
			return ResultNormal
		}},
		"log": {Name: "log", Handler: func(item *Item) Result {
			order = append(order, "hook:"+item.Cmd.Name)
			return ResultNormal
		}},
	}
	q := New(registry)
	sess := newTestSession(t, "s")
	q.SetHook(sess.ID, "after-rename-window", &CmdList{Commands: []Command{{Name: "log"}}})

	q.Append(&Item{Cmd: Command{Name: "rename-window"}, Target: Target{Session: sess}})
	q.Drain()

	if len(order) != 2 || order[0] != "main" || order[1] != "hook:log" {
		t.Fatalf("unexpected hook order: %v", order)
	}
}

func TestHookItemsAreFlaggedNoHooksToSuppressRecursion(t *testing.T) {
	registry := map[string]*Entry{
		"loop": {Name: "loop", Handler: func(item *Item) Result {
			return ResultNormal
		}},
	}
	q := New(registry)
	sess := newTestSession(t, "s")
	q.SetHook(sess.ID, "after-loop", &CmdList{Commands: []Command{{Name: "loop"}}})
	q.SetHook(sess.ID, "before-loop", &CmdList{Commands: []Command{{Name: "loop"}}})

	q.Append(&Item{Cmd: Command{Name: "loop"}, Target: Target{Session: sess}})
	q.Drain()

	if len(q.items) != 0 {
		t.Fatalf("expected hook recursion suppressed, queue left with %d items", len(q.items))
	}
}

func TestWaitForBlocksUntilSignal(t *testing.T) {
	registry := map[string]*Entry{}
	q := New(registry)
	item := &Item{Cmd: Command{Name: "wait-for"}}
	q.WaitFor("done", item)

	if len(q.channels["done"].waiters) != 1 {
		t.Fatalf("expected one waiter on channel")
	}
	q.Signal("done")
	if len(q.channels["done"].waiters) != 0 {
		t.Fatalf("expected waiters released after signal")
	}
	if len(q.items) != 1 {
		t.Fatalf("expected woken item requeued")
	}
}

func TestLockIsExclusiveUntilUnlock(t *testing.T) {
	q := New(map[string]*Entry{})
	first := &Item{Cmd: Command{Name: "a"}}
	second := &Item{Cmd: Command{Name: "b"}}

	if !q.Lock("mutex", first) {
		t.Fatalf("expected first Lock to acquire")
	}
	if q.Lock("mutex", second) {
		t.Fatalf("expected second Lock to queue, not acquire")
	}
	q.Unlock("mutex")
	if len(q.items) != 1 || q.items[0] != second {
		t.Fatalf("expected queued locker requeued after unlock")
	}
}

func TestCancelForClientRemovesItsItems(t *testing.T) {
	q := New(map[string]*Entry{})
	c1 := session.NewClient()
	c2 := session.NewClient()
	q.Append(&Item{Cmd: Command{Name: "a"}, Target: Target{Client: c1}})
	q.Append(&Item{Cmd: Command{Name: "b"}, Target: Target{Client: c2}})

	q.CancelForClient(c1)

	if len(q.items) != 1 || q.items[0].Target.Client != c2 {
		t.Fatalf("expected only c2's item to remain, got %+v", q.items)
	}
}
