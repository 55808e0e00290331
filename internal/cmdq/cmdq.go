// Package cmdq implements the command queue, target resolution, hooks,
// and wait channels (spec.md §4.7), built fresh from the spec's
// description since the teacher's internal/message is a byte-delivery
// queue, not a target-resolving command dispatcher. Cross-checked
// against hooks.c (name→cmdlist map consulted before/after dispatch)
// and cmd-wait-for.c (named rendezvous with waiter/locker FIFOs).
package cmdq

import (
	"fmt"
	"sync"

	"github.com/google/shlex"

	"github.com/tmux/tmux-sub006/internal/session"
)

// Result is the three-way (four, counting STOP) outcome a command
// executor returns (spec.md §4.7); it is a protocol-level result, not a
// Go error, per SPEC_FULL's [AMBIENT] Error handling section.
type Result uint8

const (
	ResultNormal Result = iota
	ResultWait
	ResultError
	ResultStop
)

// Flag is a bitset of per-item dispatch flags.
type Flag uint8

const (
	FlagNoHooks Flag = 1 << iota
	FlagRepeat
	// FlagWoken marks an item Signal has just released from a wait
	// channel: dispatch must resume the queue rather than re-run the
	// wait-for handler, which would just re-arm the same wait forever
	// (spec.md §3 "Wait channel": waking a waiter resumes the queue at
	// the point after the blocked item, it does not re-execute it).
	FlagWoken
)

// MouseEvent carries the mouse click/target a command was bound from,
// consulted by target resolution when -t is absent (spec.md §4.7).
type MouseEvent struct {
	Pane *findPane
}

// Target is a resolved (session, window, pane) triple plus the client
// the item is running on behalf of.
type Target struct {
	Client  *session.Client
	Session *session.Session
	Window  *session.Window
	Pane    *findPane
}

// findPane is a weak reference re-validated just before dispatch
// (spec.md §4.4 "at-most-once destruction": an item never holds a pane
// alive past its death).
type findPane struct {
	windowIdx session.WindowIndex
	paneIdx   int
}

// Command is one parsed command invocation: its name, argv, and raw -t
// target string (resolved lazily at dispatch time).
type Command struct {
	Name   string
	Args   []string
	Target string // raw -t/-s/-c argument, "" if absent
}

// CmdList is a sequence of Commands separated by ';' (spec.md §4.7).
type CmdList struct {
	Commands []Command
}

// ParseCmdList splits a shell-like command line into a CmdList using
// google/shlex's quoting rules (the same rules the teacher used for
// bridge exec strings apply to tmux command strings), then further
// splits on bare ';' tokens into individual commands.
func ParseCmdList(line string) (*CmdList, error) {
	tokens, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parse command line: %w", err)
	}
	var cl CmdList
	var cur []string
	flush := func() {
		if len(cur) == 0 {
			return
		}
		cmd := Command{Name: cur[0]}
		for i := 1; i < len(cur); i++ {
			if cur[i] == "-t" && i+1 < len(cur) {
				cmd.Target = cur[i+1]
				i++
				continue
			}
			cmd.Args = append(cmd.Args, cur[i])
		}
		cl.Commands = append(cl.Commands, cmd)
		cur = nil
	}
	for _, tok := range tokens {
		if tok == ";" {
			flush()
			continue
		}
		cur = append(cur, tok)
	}
	flush()
	return &cl, nil
}

// Handler is a registered command entry's executor.
type Handler func(item *Item) Result

// Entry declares one command's name, which target categories it
// consumes, and its executor.
type Entry struct {
	Name     string
	WantsTgt bool
	Handler  Handler
}

// Item is one command-queue entry: a command, its resolved target, mouse
// event if bound from one, and dispatch flags (spec.md §3 "Command
// queue item").
type Item struct {
	Cmd    Command
	Target Target
	Mouse  *MouseEvent
	Flags  Flag

	waitChannel string
}

// Queue is the global FIFO of pending command invocations, draining in
// the event loop after I/O per spec.md §4.6.
type Queue struct {
	registry map[string]*Entry
	hooks    map[string]map[string]*CmdList // session ID -> hook name -> cmdlist
	channels map[string]*channel

	mu    sync.Mutex
	items []*Item
}

// channel is a named wait-for rendezvous: waiters released on signal,
// lockers mutually exclusive holders (spec.md §3 "Wait channel").
type channel struct {
	waiters []*Item
	lockers []*Item
	locked  bool
}

// New creates an empty queue with the given command registry.
func New(registry map[string]*Entry) *Queue {
	return &Queue{
		registry: registry,
		hooks:    map[string]map[string]*CmdList{},
		channels: map[string]*channel{},
	}
}

// Append pushes a new item (cmdq_append).
func (q *Queue) Append(item *Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// SetHook installs a hook binding of the given name on a session,
// consulted before/after every command (hooks.c).
func (q *Queue) SetHook(sessionID, name string, cl *CmdList) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.hooks[sessionID] == nil {
		q.hooks[sessionID] = map[string]*CmdList{}
	}
	q.hooks[sessionID][name] = cl
}

func (q *Queue) hook(sessionID, name string) *CmdList {
	q.mu.Lock()
	defer q.mu.Unlock()
	if m, ok := q.hooks[sessionID]; ok {
		return m[name]
	}
	return nil
}

// Drain pops and dispatches items until the queue is empty or the front
// item blocks on WAIT (spec.md §4.6 "After I/O, the command queue is
// drained until blocked on a WAIT").
func (q *Queue) Drain() {
	for {
		item := q.pop()
		if item == nil {
			return
		}
		if q.dispatch(item) == ResultWait {
			return
		}
	}
}

func (q *Queue) pop() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

func (q *Queue) dispatch(item *Item) Result {
	if item.Flags&FlagWoken != 0 {
		return ResultNormal
	}

	entry, ok := q.registry[item.Cmd.Name]
	if !ok {
		return ResultError
	}

	sessID := ""
	if item.Target.Session != nil {
		sessID = item.Target.Session.ID
	}

	runHooks := item.Flags&FlagNoHooks == 0
	if runHooks {
		q.runHook(sessID, "before-"+item.Cmd.Name, item)
	}

	res := entry.Handler(item)

	if runHooks && res == ResultNormal {
		q.runHook(sessID, "after-"+item.Cmd.Name, item)
	}
	return res
}

// runHook splices a hook's commands immediately after the triggering
// item, flagged NOHOOKS to suppress recursion (spec.md §4.7).
func (q *Queue) runHook(sessionID, name string, trigger *Item) {
	cl := q.hook(sessionID, name)
	if cl == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	var hookItems []*Item
	for _, c := range cl.Commands {
		hookItems = append(hookItems, &Item{
			Cmd:    c,
			Target: trigger.Target,
			Flags:  trigger.Flags | FlagNoHooks,
		})
	}
	q.items = append(hookItems, q.items...)
}

// CancelForClient removes every queued item targeting c and drops any
// wait-channel waiters or queued lockers it holds (spec.md §4.6
// "Cancellation": a client detach cancels all command queue items
// targeted at it).
func (q *Queue) CancelForClient(c *session.Client) {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, item := range q.items {
		if item.Target.Client == c {
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	for _, ch := range q.channels {
		waiters := ch.waiters[:0]
		for _, item := range ch.waiters {
			if item.Target.Client != c {
				waiters = append(waiters, item)
			}
		}
		ch.waiters = waiters
		lockers := ch.lockers[:0]
		for _, item := range ch.lockers {
			if item.Target.Client != c {
				lockers = append(lockers, item)
			}
		}
		ch.lockers = lockers
	}
}

// WaitFor blocks item on the named channel until Signal(name) wakes it;
// the wait-for executor calls this and then returns ResultWait itself.
func (q *Queue) WaitFor(name string, item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch := q.channelFor(name)
	ch.waiters = append(ch.waiters, item)
	item.waitChannel = name
}

// Signal wakes every waiter on channel name ("wait-for -S name"),
// re-appending them to the queue in FIFO order.
func (q *Queue) Signal(name string) {
	q.mu.Lock()
	ch := q.channelFor(name)
	woken := ch.waiters
	ch.waiters = nil
	for _, item := range woken {
		item.Flags |= FlagWoken
	}
	q.items = append(q.items, woken...)
	q.mu.Unlock()
}

// Lock acquires exclusive ownership of channel name for item, queuing it
// among lockers if already held ("wait-for -L name").
func (q *Queue) Lock(name string, item *Item) (acquired bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch := q.channelFor(name)
	if !ch.locked {
		ch.locked = true
		return true
	}
	ch.lockers = append(ch.lockers, item)
	return false
}

// Unlock releases channel name, handing it to the next queued locker if
// any ("wait-for -U name").
func (q *Queue) Unlock(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch := q.channelFor(name)
	if len(ch.lockers) > 0 {
		next := ch.lockers[0]
		ch.lockers = ch.lockers[1:]
		next.Flags |= FlagWoken
		q.items = append(q.items, next)
		return
	}
	ch.locked = false
}

func (q *Queue) channelFor(name string) *channel {
	ch, ok := q.channels[name]
	if !ok {
		ch = &channel{}
		q.channels[name] = ch
	}
	return ch
}
