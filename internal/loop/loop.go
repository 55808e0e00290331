// Package loop implements the single-threaded cooperative event loop
// (spec.md §4.6): one epoll readiness set covering every registered
// fd, a self-pipe for signal delivery, and a deadline-ordered timer heap
// for periodic work. No teacher equivalent exists — the teacher is a goroutine-per-
// responsibility design built around mutexes (pipeOutput/readInput
// goroutines guarded by wrapper.mu in main.go) rather than a single
// reactor, so this package is built directly from spec.md §4.6's
// description using golang.org/x/sys/unix's epoll primitives.
package loop

import (
	"container/heap"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Interest is a bitset of what a registered source is ready for.
type Interest uint8

const (
	Readable Interest = 1 << iota
	Writable
)

// Callback is invoked when a registered fd becomes ready; it reads or
// writes at most one block per call, per spec.md §4.6's "no source may
// monopolise" guarantee.
type Callback func(ready Interest)

// Loop is the single-threaded reactor. It is not safe for concurrent
// use from multiple goroutines; all registration and the Run call must
// happen on the same goroutine.
type Loop struct {
	epfd int

	mu       sync.Mutex
	sources  map[int]*source
	sigpipeR *os.File
	sigpipeW *os.File
	sigCh    chan os.Signal

	timers   timerHeap
	done     chan struct{}
	onSignal func(os.Signal)

	afterIO func()
}

type source struct {
	fd       int
	interest Interest
	cb       Callback
}

// New creates a Loop with an open epoll instance and an armed
// self-pipe for signal delivery (spec.md §4.6 "self-pipe for
// signals").
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	r, w, err := os.Pipe()
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("self-pipe: %w", err)
	}
	l := &Loop{
		epfd:     epfd,
		sources:  map[int]*source{},
		sigpipeR: r,
		sigpipeW: w,
		done:     make(chan struct{}),
	}
	if err := l.Register(int(r.Fd()), Readable, l.drainSigpipe); err != nil {
		return nil, err
	}
	return l, nil
}

// Register adds fd to the readiness set with the given interest,
// invoking cb whenever it becomes ready.
func (l *Loop) Register(fd int, interest Interest, cb Callback) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev := unix.EpollEvent{Fd: int32(fd), Events: epollEvents(interest)}
	op := unix.EPOLL_CTL_ADD
	if _, exists := l.sources[fd]; exists {
		op = unix.EPOLL_CTL_MOD
	}
	if err := unix.EpollCtl(l.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl fd=%d: %w", fd, err)
	}
	l.sources[fd] = &source{fd: fd, interest: interest, cb: cb}
	return nil
}

// Modify changes a registered fd's interest set (e.g. a pane's write
// side becomes interesting only while output is pending).
func (l *Loop) Modify(fd int, interest Interest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, ok := l.sources[fd]
	if !ok {
		return fmt.Errorf("fd %d not registered", fd)
	}
	src.interest = interest
	ev := unix.EpollEvent{Fd: int32(fd), Events: epollEvents(interest)}
	return unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// Unregister removes fd from the readiness set.
func (l *Loop) Unregister(fd int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sources[fd]; !ok {
		return nil
	}
	delete(l.sources, fd)
	return unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func epollEvents(interest Interest) uint32 {
	var ev uint32
	if interest&Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if interest&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

// OnAfterIO registers a callback invoked once per loop iteration after
// all ready sources have been drained and due timers have fired
// (spec.md §4.6: "after I/O, the command queue is drained"); the
// server's hook drains the command queue and then re-renders dirty
// clients within that one call.
func (l *Loop) OnAfterIO(fn func()) {
	l.afterIO = fn
}

// OnSignal registers a handler invoked once per delivered signal, on
// the next loop iteration boundary (spec.md §4.6 "signals are
// level-queued via the self-pipe").
func (l *Loop) OnSignal(fn func(os.Signal)) {
	l.onSignal = fn
}

// AddTimer schedules fn to run once at+after d elapses, returning a
// handle that can be used to cancel it. Recurring timers (status-line
// redraw, auto-rename throttling) are modeled by re-arming from inside
// fn.
func (l *Loop) AddTimer(d time.Duration, fn func()) *Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := &Timer{at: time.Now().Add(d), fn: fn}
	heap.Push(&l.timers, t)
	return t
}

// CancelTimer marks t so it is skipped when it would otherwise fire.
func (l *Loop) CancelTimer(t *Timer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t.cancelled = true
}

// Stop requests the loop to return from Run after the current
// iteration.
func (l *Loop) Stop() {
	close(l.done)
}

// Close releases the epoll fd and self-pipe.
func (l *Loop) Close() {
	unix.Close(l.epfd)
	l.sigpipeR.Close()
	l.sigpipeW.Close()
}

const maxEvents = 256

// Run drains ready sources until Stop is called, implementing spec.md
// §4.6's per-iteration contract: all ready sources once, then the
// after-I/O hook (command-queue drain + re-render), with epoll's
// timeout clamped to the next due timer.
func (l *Loop) Run() error {
	events := make([]unix.EpollEvent, maxEvents)
	for {
		select {
		case <-l.done:
			return nil
		default:
		}

		timeout := l.nextTimeout()
		n, err := unix.EpollWait(l.epfd, events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		l.mu.Lock()
		ready := make([]*source, 0, n)
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			src, ok := l.sources[fd]
			if !ok {
				continue
			}
			var in Interest
			if events[i].Events&unix.EPOLLIN != 0 {
				in |= Readable
			}
			if events[i].Events&unix.EPOLLOUT != 0 {
				in |= Writable
			}
			ready = append(ready, &source{fd: fd, interest: in, cb: src.cb})
		}
		l.mu.Unlock()

		for _, src := range ready {
			src.cb(src.interest)
		}

		l.fireDueTimers()

		if l.afterIO != nil {
			l.afterIO()
		}
	}
}

func (l *Loop) nextTimeout() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return -1
	}
	d := time.Until(l.timers[0].at)
	if d <= 0 {
		return 0
	}
	ms := int(d / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return ms
}

func (l *Loop) fireDueTimers() {
	now := time.Now()
	for {
		l.mu.Lock()
		if len(l.timers) == 0 || l.timers[0].at.After(now) {
			l.mu.Unlock()
			return
		}
		t := heap.Pop(&l.timers).(*Timer)
		l.mu.Unlock()
		if !t.cancelled {
			t.fn()
		}
	}
}

func (l *Loop) drainSigpipe(Interest) {
	buf := make([]byte, 64)
	n, _ := l.sigpipeR.Read(buf)
	if l.onSignal == nil {
		return
	}
	for _, b := range buf[:n] {
		if sig, ok := signalFor(b); ok {
			l.onSignal(sig)
		}
	}
}

// Notify writes a signal marker into the self-pipe; call this from a
// real os/signal channel's delivery goroutine (the only part of this
// design that must touch another goroutine, since Go signal delivery
// is inherently asynchronous).
func (l *Loop) Notify(sig os.Signal) {
	b := signalByte(sig)
	l.sigpipeW.Write([]byte{b})
}
