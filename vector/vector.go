// Package vector implements Vector[T], a typed façade over arena.Arena for
// items of a known, fixed-layout Go type.
package vector

import (
	"fmt"
	"unsafe"

	"chunky/arena"
	"chunky/chunk"
	"chunky/ident"
)

// Vector stores items of type T in an arena.Arena sized to T's layout. T is
// subject to the same pointer-free, fixed-layout restriction as arena.Arena
// and value.Value: items are reinterpreted in place via unsafe.Pointer, not
// copied through an encode/decode step.
type Vector[T any] struct {
	arena *arena.Arena
}

// New opens (or creates) a Vector rooted at id. The arena's chunk size is the
// larger of chunkSize and sizeof(T), so a Vector of large items still gets at
// least one item per chunk.
func New[T any](id ident.Ident, chunkSize int, storage chunk.Storage) (*Vector[T], error) {
	var zero T
	itemSize := int(unsafe.Sizeof(zero))
	if chunkSize < itemSize {
		chunkSize = itemSize
	}

	a, err := arena.New(id, chunkSize, itemSize, storage)
	if err != nil {
		return nil, fmt.Errorf("vector: %w", err)
	}
	return &Vector[T]{arena: a}, nil
}

// Len returns the number of elements in the vector.
func (v *Vector[T]) Len() int {
	return v.arena.Len()
}

// IsEmpty reports whether the vector has no elements.
func (v *Vector[T]) IsEmpty() bool {
	return v.Len() == 0
}

func itemAt[T any](bytes []byte) *T {
	return (*T)(unsafe.Pointer(unsafe.SliceData(bytes)))
}

// At returns a pointer to the item at index, or nil if index is out of
// range. The pointer aliases the arena's backing memory.
func (v *Vector[T]) At(index int) *T {
	if index < 0 || index >= v.Len() {
		return nil
	}
	return itemAt[T](v.arena.At(arena.Index(index)))
}

// Push appends item to the end of the vector.
func (v *Vector[T]) Push(item T) error {
	bytes, _, err := v.arena.Push()
	if err != nil {
		return fmt.Errorf("vector: push: %w", err)
	}
	*itemAt[T](bytes) = item
	return nil
}

// Pop removes and returns the last item. ok is false if the vector was
// empty.
func (v *Vector[T]) Pop() (item T, ok bool, err error) {
	bytes, ok, err := v.arena.Pop()
	if err != nil || !ok {
		return item, false, err
	}
	return *itemAt[T](bytes), true, nil
}
