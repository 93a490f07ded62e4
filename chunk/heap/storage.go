// Package heap implements a chunk.Storage backed by ordinary Go heap memory.
// It is the transient backend: every chunk it hands out disappears with the
// process, which makes it the right choice for scratch collections, tests,
// and anything that doesn't need to survive a restart.
package heap

import (
	"fmt"
	"log/slog"

	"chunky/chunk"
	"chunky/ident"
	"chunky/internal/logging"
)

// Config configures a Storage. The zero value is valid; Logger is the only
// field, and a nil Logger discards all output.
type Config struct {
	// Logger for structured logging. If nil, logging is disabled. Storage
	// scopes this logger with component="chunk", type="heap".
	Logger *slog.Logger
}

// Storage allocates chunks on the heap. It carries no state of its own
// beyond its logger: chunks it creates are independent []byte allocations
// with no shared bookkeeping, so a Storage value can be freely copied.
type Storage struct {
	logger *slog.Logger
}

// New returns a heap-backed Storage. It never fails: there is no external
// resource to acquire.
func New(cfg Config) *Storage {
	logger := logging.Default(cfg.Logger).With("component", "chunk", "type", "heap")
	return &Storage{logger: logger}
}

// CreateChunk allocates a zeroed byte slice of the given size. The ident is
// accepted to satisfy chunk.Storage but otherwise unused: heap chunks have no
// identity beyond the Go reference returned here.
func (s *Storage) CreateChunk(id ident.Ident, size int) (chunk.Chunk, error) {
	s.logger.Debug("allocating chunk", "ident", id.String(), "size", size)
	return chunk.New(make([]byte, size), nil), nil
}

// LoadOrCreateChunk always creates: the heap backend has nothing to load, so
// created is always true.
func (s *Storage) LoadOrCreateChunk(id ident.Ident, size int) (chunk.Chunk, bool, error) {
	c, err := s.CreateChunk(id, size)
	return c, true, err
}

// LoadChunk always fails: heap chunks are never persisted, so there is
// nothing for a later call to load. Calling LoadChunk against a heap-backed
// Storage is a programmer error, not a recoverable runtime condition.
func (s *Storage) LoadChunk(id ident.Ident) (chunk.Chunk, error) {
	return chunk.Chunk{}, fmt.Errorf("heap: load %q: %w", id, chunk.ErrNotPersistent)
}

// ForgetChunk drops the chunk's reference. Since heap chunks are plain Go
// allocations, "forgetting" one is just letting the garbage collector reclaim
// it; there is no persisted copy to remove.
func (s *Storage) ForgetChunk(c chunk.Chunk) error {
	_ = c
	return nil
}

var _ chunk.Storage = (*Storage)(nil)
