// Package arena implements Arena, a collection that stores fixed (max) size
// items consecutively across a group of same-sized chunks. It is the
// workhorse collection chunky's other typed containers (vector.Vector,
// multiarena.MultiArena) build on.
package arena

import (
	"fmt"

	"chunky/chunk"
	"chunky/ident"
	"chunky/internal/superblock"
	"chunky/value"
)

// Index refers to an item within an Arena. It stays valid across Push calls
// but is invalidated for the swapped item by SwapRemove.
type Index int

// Arena stores len items of itemSize bytes each, packed into chunks of
// chunkSize bytes. Its length is itself persisted as a value.Value so a
// file-backed Arena can be reopened with its contents intact.
type Arena struct {
	id        ident.Ident
	chunks    []chunk.Chunk
	chunkSize int
	itemSize  int
	length    *value.Value[int]
	storage   chunk.Storage
}

// New opens (or creates) an Arena rooted at id. chunkSize must be at least
// itemSize; New panics otherwise, since that is a fixed configuration
// mistake rather than a runtime condition.
func New(id ident.Ident, chunkSize, itemSize int, storage chunk.Storage) (*Arena, error) {
	if chunkSize < itemSize {
		panic(fmt.Sprintf("arena: chunk size %d smaller than item size %d", chunkSize, itemSize))
	}

	if err := superblock.Bootstrap(storage, id.Sub("sb"), superblock.KindArena); err != nil {
		return nil, fmt.Errorf("arena: %w", err)
	}

	length, err := value.LoadOrDefault(id.Sub("len"), 0, storage)
	if err != nil {
		return nil, fmt.Errorf("arena: load length: %w", err)
	}

	itemsPerChunk := chunkSize / itemSize
	var chunks []chunk.Chunk
	for itemOffset := 0; itemOffset < length.Get(); itemOffset += itemsPerChunk {
		c, err := storage.LoadChunk(id.Sub(itemOffset))
		if err != nil {
			return nil, fmt.Errorf("arena: load chunk at offset %d: %w", itemOffset, err)
		}
		chunks = append(chunks, c)
	}

	return &Arena{
		id:        id,
		chunks:    chunks,
		chunkSize: chunkSize,
		itemSize:  itemSize,
		length:    length,
		storage:   storage,
	}, nil
}

func (a *Arena) itemsPerChunk() int {
	return a.chunkSize / a.itemSize
}

// Len returns the number of items in the collection.
func (a *Arena) Len() int {
	return a.length.Get()
}

// IsEmpty reports whether the collection has no items.
func (a *Arena) IsEmpty() bool {
	return a.Len() == 0
}

// Push allocates space for one new item and returns its raw bytes (sized
// itemSize, zeroed if this is a freshly created chunk, leftover bytes
// otherwise) and its Index. This push-then-write-in-place shape lets callers
// store items of heterogeneous types or sizes smaller than itemSize, exactly
// as value.Value does for a single item.
func (a *Arena) Push() ([]byte, Index, error) {
	n := a.Len()
	if n+1 > len(a.chunks)*a.itemsPerChunk() {
		c, err := a.storage.CreateChunk(a.id.Sub(n), a.chunkSize)
		if err != nil {
			return nil, 0, fmt.Errorf("arena: create chunk at offset %d: %w", n, err)
		}
		a.chunks = append(a.chunks, c)
	}

	offset := (n % a.itemsPerChunk()) * a.itemSize
	index := Index(n)
	a.length.Set(n + 1)

	last := a.chunks[len(a.chunks)-1]
	return last.Bytes()[offset : offset+a.itemSize], index, nil
}

// popAway removes the last item, also dropping the chunk it lived in if that
// chunk becomes empty as a result.
func (a *Arena) popAway() error {
	n := a.Len() - 1
	a.length.Set(n)
	if n%a.itemsPerChunk() == 0 {
		last := a.chunks[len(a.chunks)-1]
		a.chunks = a.chunks[:len(a.chunks)-1]
		if err := a.storage.ForgetChunk(last); err != nil {
			return fmt.Errorf("arena: forget chunk: %w", err)
		}
	}
	return nil
}

// At returns the raw bytes of the item at index.
func (a *Arena) At(index Index) []byte {
	i := int(index)
	itemsPerChunk := a.itemsPerChunk()
	c := a.chunks[i/itemsPerChunk]
	offset := (i % itemsPerChunk) * a.itemSize
	return c.Bytes()[offset : offset+a.itemSize]
}

// Pop removes the last item and returns a copy of its bytes taken before the
// backing chunk is released, since ForgetChunk may invalidate that memory.
// ok is false if the arena was empty.
func (a *Arena) Pop() (item []byte, ok bool, err error) {
	if a.Len() == 0 {
		return nil, false, nil
	}
	last := a.At(Index(a.Len() - 1))
	buf := make([]byte, len(last))
	copy(buf, last)
	if err := a.popAway(); err != nil {
		return nil, false, err
	}
	return buf, true, nil
}

// SwapRemove removes the item at index by overwriting it with the last item
// and then popping the last slot, an O(1) removal that does not preserve
// item order. It returns the bytes of the item that was moved into index
// (false if index was already the last item, in which case nothing moved).
func (a *Arena) SwapRemove(index Index) ([]byte, bool, error) {
	if a.Len() == 0 {
		panic("arena: SwapRemove called on empty arena")
	}
	lastIndex := a.Len() - 1
	if lastIndex == int(index) {
		if err := a.popAway(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	last := a.At(Index(lastIndex))
	atIndex := a.At(index)
	copy(atIndex, last)
	if err := a.popAway(); err != nil {
		return nil, false, err
	}
	return a.At(index), true, nil
}
