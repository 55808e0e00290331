// Package pastebuf implements the bounded LIFO paste-buffer stack
// (spec.md §3, §8), grounded on paste.c's paste_get_top/paste_free_top/
// paste_walk_stack: a bounded array acting as a stack, oldest freed
// first once the limit is hit. Ported from tmux's manual ARRAY_* macros
// to a Go slice-backed ring.
package pastebuf

import "time"

// Buffer is one paste-buffer entry: raw bytes plus the time it was
// created, used for "save-buffer followed by load-buffer yields
// byte-identical content" (spec.md §8).
type Buffer struct {
	Name    string
	Data    []byte
	Created time.Time
}

// Stack is a bounded LIFO of Buffers; push drops the oldest entry once
// the configured limit is exceeded (spec.md §3 "Paste buffer stack").
type Stack struct {
	limit int
	bufs  []Buffer // bufs[0] is the most recently pushed (the "top")
	seq   int
}

// New creates a paste-buffer stack bounded to at most limit entries.
func New(limit int) *Stack {
	if limit < 1 {
		limit = 1
	}
	return &Stack{limit: limit}
}

// Push adds a new top-of-stack buffer, auto-naming it "bufferN" if name
// is empty, and dropping the oldest entry if the stack is at capacity.
func (s *Stack) Push(name string, data []byte) *Buffer {
	if name == "" {
		s.seq++
		name = autoName(s.seq)
	}
	b := Buffer{Name: name, Data: append([]byte(nil), data...), Created: time.Now()}
	s.bufs = append([]Buffer{b}, s.bufs...)
	if len(s.bufs) > s.limit {
		s.bufs = s.bufs[:s.limit]
	}
	return &s.bufs[0]
}

func autoName(seq int) string {
	return "buffer" + itoa(seq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Top returns the most recently pushed buffer (paste_get_top), or nil if
// the stack is empty.
func (s *Stack) Top() *Buffer {
	if len(s.bufs) == 0 {
		return nil
	}
	return &s.bufs[0]
}

// PopTop removes and returns the top buffer (paste_free_top).
func (s *Stack) PopTop() *Buffer {
	if len(s.bufs) == 0 {
		return nil
	}
	b := s.bufs[0]
	s.bufs = s.bufs[1:]
	return &b
}

// Get finds a buffer by name (paste_walk_stack's by-name lookup).
func (s *Stack) Get(name string) *Buffer {
	for i := range s.bufs {
		if s.bufs[i].Name == name {
			return &s.bufs[i]
		}
	}
	return nil
}

// Delete removes a named buffer from anywhere in the stack.
func (s *Stack) Delete(name string) bool {
	for i := range s.bufs {
		if s.bufs[i].Name == name {
			s.bufs = append(s.bufs[:i], s.bufs[i+1:]...)
			return true
		}
	}
	return false
}

// Walk returns all buffers top-to-bottom (paste_walk_stack).
func (s *Stack) Walk() []Buffer {
	return append([]Buffer(nil), s.bufs...)
}

// Len reports how many buffers are currently held.
func (s *Stack) Len() int { return len(s.bufs) }
