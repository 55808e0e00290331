package loop

import (
	"os"
	"testing"
	"time"
)

func TestRegisterFiresOnReadable(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fired := make(chan struct{}, 1)
	if err := l.Register(int(r.Fd()), Readable, func(ready Interest) {
		if ready&Readable == 0 {
			t.Errorf("expected Readable interest, got %v", ready)
		}
		buf := make([]byte, 16)
		r.Read(buf)
		fired <- struct{}{}
		l.Stop()
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	w.Write([]byte("hi"))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run never returned after Stop")
	}
}

func TestAfterIOHookRunsEachIteration(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	var afterIOCount int
	l.OnAfterIO(func() { afterIOCount++ })

	l.Register(int(r.Fd()), Readable, func(Interest) {
		buf := make([]byte, 16)
		r.Read(buf)
		l.Stop()
	})

	done := make(chan error, 1)
	go func() { done <- l.Run() }()
	w.Write([]byte("x"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run never returned")
	}

	if afterIOCount == 0 {
		t.Fatalf("expected OnAfterIO hook to run at least once")
	}
}

func TestTimerFiresBeforeDeadlinePasses(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	fired := make(chan struct{}, 1)
	l.AddTimer(20*time.Millisecond, func() {
		fired <- struct{}{}
		l.Stop()
	})

	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	<-done
}

func TestCancelTimerSuppressesCallback(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	called := false
	tm := l.AddTimer(10*time.Millisecond, func() { called = true })
	l.CancelTimer(tm)

	stopTimer := l.AddTimer(30*time.Millisecond, func() { l.Stop() })
	_ = stopTimer

	done := make(chan error, 1)
	go func() { done <- l.Run() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run never returned")
	}
	if called {
		t.Fatalf("expected cancelled timer not to fire")
	}
}

func TestTimerHeapOrdersByDeadline(t *testing.T) {
	now := time.Now()
	h := timerHeap{
		{at: now.Add(30 * time.Millisecond)},
		{at: now.Add(10 * time.Millisecond)},
		{at: now.Add(20 * time.Millisecond)},
	}
	for i := range h {
		h[i].index = i
	}
	// Manual heap build via Push semantics isn't exercised here; just
	// verify Less establishes deadline ordering for heap.Init to use.
	if !h.Less(1, 0) {
		t.Fatalf("expected earlier deadline to sort first")
	}
	if !h.Less(1, 2) {
		t.Fatalf("expected earlier deadline to sort first")
	}
}
