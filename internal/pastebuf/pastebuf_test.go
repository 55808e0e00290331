package pastebuf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPushTopOrder(t *testing.T) {
	s := New(10)
	s.Push("a", []byte("1"))
	s.Push("b", []byte("2"))
	if s.Top().Name != "b" {
		t.Fatalf("Top().Name = %q, want b", s.Top().Name)
	}
}

func TestPushDropsOldestAtLimit(t *testing.T) {
	s := New(2)
	s.Push("a", []byte("1"))
	s.Push("b", []byte("2"))
	s.Push("c", []byte("3"))
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.Get("a") != nil {
		t.Fatalf("expected oldest buffer 'a' dropped")
	}
	if s.Get("c") == nil {
		t.Fatalf("expected newest buffer 'c' retained")
	}
}

func TestPopTop(t *testing.T) {
	s := New(10)
	s.Push("a", []byte("1"))
	s.Push("b", []byte("2"))
	b := s.PopTop()
	if b.Name != "b" {
		t.Fatalf("PopTop().Name = %q, want b", b.Name)
	}
	if s.Top().Name != "a" {
		t.Fatalf("Top().Name after pop = %q, want a", s.Top().Name)
	}
}

func TestAutoNaming(t *testing.T) {
	s := New(10)
	s.Push("", []byte("x"))
	s.Push("", []byte("y"))
	if s.bufs[1].Name != "buffer1" || s.bufs[0].Name != "buffer2" {
		t.Fatalf("unexpected auto names: %+v", s.bufs)
	}
}

func TestDelete(t *testing.T) {
	s := New(10)
	s.Push("a", []byte("1"))
	s.Push("b", []byte("2"))
	if !s.Delete("a") {
		t.Fatalf("expected Delete to find 'a'")
	}
	if s.Get("a") != nil {
		t.Fatalf("expected 'a' gone after Delete")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buf.out")

	s := New(10)
	orig := s.Push("mybuf", []byte("hello world"))

	if err := SaveToFile(orig, path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if string(loaded.Data) != string(orig.Data) {
		t.Fatalf("round-tripped content = %q, want %q", loaded.Data, orig.Data)
	}
	if loaded.Name != orig.Name {
		t.Fatalf("round-tripped name = %q, want %q", loaded.Name, orig.Name)
	}

	if _, err := os.Stat(path + ".meta.yaml"); err != nil {
		t.Fatalf("expected sidecar metadata file written: %v", err)
	}
}
