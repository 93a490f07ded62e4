// Package value implements Value[T], a single fixed-size value backed by one
// chunk. It is the simplest chunky collection: no growth, no free list, just
// a typed window onto a chunk's bytes.
package value

import (
	"unsafe"

	"chunky/chunk"
	"chunky/ident"
)

// Value is a single value of type T stored in one chunk. Its address is
// stable for the lifetime of the Value: Ptr returns a pointer directly into
// the chunk's backing memory, so callers holding that pointer observe writes
// made through Set (and vice versa).
//
// T must be a fixed-layout, pointer-free type (plain numbers, arrays, and
// structs built from them) since its bytes are reinterpreted in place rather
// than marshaled; storing a T containing Go pointers, slices, interfaces, or
// maps produces undefined results once the chunk's memory is reused or
// persisted.
type Value[T any] struct {
	chunk chunk.Chunk
}

// LoadOrDefault loads the value stored at ident, or creates it with default
// if no chunk exists yet for that ident. The returned Value aliases storage
// memory: mutate it via Set or through Ptr.
func LoadOrDefault[T any](id ident.Ident, def T, storage chunk.Storage) (*Value[T], error) {
	var zero T
	size := int(unsafe.Sizeof(zero))

	c, created, err := storage.LoadOrCreateChunk(id, size)
	if err != nil {
		return nil, err
	}

	v := &Value[T]{chunk: c}
	if created {
		v.Set(def)
	}
	return v, nil
}

// ptr returns a pointer to the value's bytes reinterpreted as *T.
func (v *Value[T]) ptr() *T {
	return (*T)(unsafe.Pointer(unsafe.SliceData(v.chunk.Bytes())))
}

// Get returns a copy of the current value.
func (v *Value[T]) Get() T {
	return *v.ptr()
}

// Set overwrites the value in place.
func (v *Value[T]) Set(val T) {
	*v.ptr() = val
}

// Ptr returns a pointer directly into the backing chunk. The pointer is
// valid only as long as the Value has not been closed.
func (v *Value[T]) Ptr() *T {
	return v.ptr()
}

// Close does nothing and returns nil: it neither unmaps nor flushes the
// underlying chunk. For a heap-backed Value the chunk is simply garbage once
// unreachable, and for a file-backed Value the bytes remain mapped (and
// valid) until the process exits or the chunk is passed to ForgetChunk.
func (v *Value[T]) Close() error {
	return nil
}
