// Package chunk defines the Chunk handle and the Storage abstraction that
// every chunky collection is built on top of. A Chunk is a byte-range of
// general-purpose memory, addressable like a []byte, that may be backed by
// transient heap memory or by a memory-mapped file. Dropping a Chunk (letting
// it go out of scope) never touches any persisted representation; only
// ForgetChunk does that. A dropped heap chunk is reclaimed by the garbage
// collector, but a file-backed chunk is not unmapped when dropped: its
// mapping stays in place until ForgetChunk or process exit.
package chunk

import (
	"errors"

	"chunky/ident"
)

// Sentinel errors returned by Storage implementations. Backends should wrap
// these with fmt.Errorf("...: %w", ErrX) to add identifying context.
var (
	// ErrChunkExists is returned by CreateChunk when a chunk with the given
	// Ident is already present in the backend.
	ErrChunkExists = errors.New("chunk: chunk already exists")

	// ErrChunkNotFound is returned by LoadChunk when no chunk with the given
	// Ident exists in the backend.
	ErrChunkNotFound = errors.New("chunk: chunk not found")

	// ErrNotPersistent is returned by LoadChunk on backends, such as the heap
	// backend, that have no persisted representation to load from.
	ErrNotPersistent = errors.New("chunk: storage has no persisted chunks to load")

	// ErrForeignChunk is returned by ForgetChunk when handed a Chunk whose
	// handle is not of that backend's type. file.Storage checks the handle's
	// type only, so it does not tell apart chunks of two file Storage values;
	// heap.Storage never returns it.
	ErrForeignChunk = errors.New("chunk: chunk was not created by this storage")
)

// Chunk is a handle to a byte-range of general-purpose memory. It behaves
// like a []byte borrowed from whatever backend produced it; callers must not
// retain the slice returned by Bytes beyond the Chunk's own lifetime.
//
// Chunk is deliberately a thin wrapper: the collections built on top of it
// (Value, Arena, Queue, MultiArena) work on its bytes in place, handing out
// sub-slices (Arena, Queue, MultiArena) or reinterpreting them via
// unsafe.Pointer (Value), rather than copying through an encode/decode step.
type Chunk struct {
	data   []byte
	handle any
}

// New constructs a Chunk from backing bytes and an opaque backend handle.
// Storage implementations call this; collection code never does.
func New(data []byte, handle any) Chunk {
	return Chunk{data: data, handle: handle}
}

// Bytes returns the chunk's backing slice. The slice is valid only as long as
// the Chunk itself is reachable and has not been passed to ForgetChunk.
func (c Chunk) Bytes() []byte {
	return c.data
}

// Len returns the size of the chunk in bytes.
func (c Chunk) Len() int {
	return len(c.data)
}

// Handle returns the backend-private value associated with this chunk (a file
// handle, an mmap region, ...). Storage implementations type-assert this in
// ForgetChunk to recover their own bookkeeping; it is opaque to everyone else.
func (c Chunk) Handle() any {
	return c.handle
}

// Storage is a provider of backing storage for Chunks. Implementations decide
// whether chunks are transient (heap.Storage) or persistent (file.Storage),
// but all implementations must honor the same identifier and sizing contract.
type Storage interface {
	// CreateChunk allocates a new chunk of the given size under ident. It
	// returns ErrChunkExists if persistent storage already holds a chunk
	// under that identifier.
	CreateChunk(id ident.Ident, size int) (Chunk, error)

	// LoadOrCreateChunk loads the chunk at ident if it already exists,
	// otherwise creates it at the given size. created reports which of the
	// two happened. Backends without persistence always report created=true.
	LoadOrCreateChunk(id ident.Ident, size int) (c Chunk, created bool, err error)

	// LoadChunk loads a chunk that is assumed to already exist. Backends
	// with no persisted representation (chunk/heap) return ErrNotPersistent.
	LoadChunk(id ident.Ident) (Chunk, error)

	// ForgetChunk deallocates a chunk and deletes any persisted
	// representation of it. Unlike simply dropping a Chunk value, this is
	// destructive and cannot be undone.
	ForgetChunk(c Chunk) error
}
