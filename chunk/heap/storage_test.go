package heap

import (
	"errors"
	"testing"

	"chunky/chunk"
	"chunky/ident"
)

func TestCreateChunkSized(t *testing.T) {
	s := New(Config{})
	c, err := s.CreateChunk(ident.New("a"), 16)
	if err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}
	if c.Len() != 16 {
		t.Fatalf("Len: want 16 got %d", c.Len())
	}
}

func TestLoadOrCreateChunkAlwaysCreates(t *testing.T) {
	s := New(Config{})
	_, created, err := s.LoadOrCreateChunk(ident.New("a"), 8)
	if err != nil {
		t.Fatalf("LoadOrCreateChunk: %v", err)
	}
	if !created {
		t.Fatal("LoadOrCreateChunk: want created=true on heap storage")
	}
}

func TestLoadChunkFails(t *testing.T) {
	s := New(Config{})
	_, err := s.LoadChunk(ident.New("a"))
	if !errors.Is(err, chunk.ErrNotPersistent) {
		t.Fatalf("LoadChunk: want ErrNotPersistent, got %v", err)
	}
}

func TestForgetChunkNoop(t *testing.T) {
	s := New(Config{})
	c, err := s.CreateChunk(ident.New("a"), 8)
	if err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}
	if err := s.ForgetChunk(c); err != nil {
		t.Fatalf("ForgetChunk: %v", err)
	}
}
