package loop

import "time"

// Timer is a scheduled one-shot callback; recurring behavior (the
// status-line redraw tick, auto-rename throttling) is built by
// re-arming a new Timer from inside fn.
type Timer struct {
	at        time.Time
	fn        func()
	cancelled bool
	index     int
}

// timerHeap is a min-heap on Timer.at, giving Run() the next wakeup
// deadline in O(log n).
type timerHeap []*Timer

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
