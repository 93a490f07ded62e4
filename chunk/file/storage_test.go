package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chunky/chunk"
	"chunky/ident"
)

func TestCreateChunkExclusive(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := s.CreateChunk(ident.New("a"), 64); err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}
	if _, err := s.CreateChunk(ident.New("a"), 64); !errors.Is(err, chunk.ErrChunkExists) {
		t.Fatalf("CreateChunk duplicate: want ErrChunkExists, got %v", err)
	}
}

func TestLoadOrCreateChunkIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	c1, created1, err := s.LoadOrCreateChunk(ident.New("a"), 32)
	if err != nil {
		t.Fatalf("LoadOrCreateChunk: %v", err)
	}
	if !created1 {
		t.Fatal("first LoadOrCreateChunk should report created=true")
	}
	copy(c1.Bytes(), []byte("hello"))

	c2, created2, err := s.LoadOrCreateChunk(ident.New("a"), 32)
	if err != nil {
		t.Fatalf("LoadOrCreateChunk again: %v", err)
	}
	if created2 {
		t.Fatal("second LoadOrCreateChunk should report created=false")
	}
	if string(c2.Bytes()[:5]) != "hello" {
		t.Fatalf("expected persisted content, got %q", c2.Bytes()[:5])
	}
}

func TestLoadChunkNotFound(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := s.LoadChunk(ident.New("missing")); !errors.Is(err, chunk.ErrChunkNotFound) {
		t.Fatalf("LoadChunk: want ErrChunkNotFound, got %v", err)
	}
}

func TestForgetChunkRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	c, err := s.CreateChunk(ident.New("a"), 16)
	if err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}
	if err := s.ForgetChunk(c); err != nil {
		t.Fatalf("ForgetChunk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err=%v", err)
	}
}

func TestDirectoryLockContention(t *testing.T) {
	dir := t.TempDir()
	s1, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s1.Close()

	if _, err := New(Config{Dir: dir}); !errors.Is(err, ErrDirectoryLocked) {
		t.Fatalf("second New: want ErrDirectoryLocked, got %v", err)
	}
}

func TestSweepReportsOrphans(t *testing.T) {
	dir := t.TempDir()
	s, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := s.CreateChunk(ident.New("known"), 8); err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "orphan"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	orphans, err := s.Sweep([]ident.Ident{ident.New("known")})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(orphans) != 1 || filepath.Base(orphans[0]) != "orphan" {
		t.Fatalf("Sweep: want [orphan], got %v", orphans)
	}
}

func TestReopenValidatesSuperblock(t *testing.T) {
	dir := t.TempDir()
	s1, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
}
