// Package multiarena implements MultiArena, a collection for
// heterogeneously-sized items built on top of a set of arena.Arena "bins",
// each holding items of one fixed, power-of-two-rounded size.
package multiarena

import (
	"fmt"
	"math/bits"

	"chunky/arena"
	"chunky/chunk"
	"chunky/ident"
	"chunky/internal/superblock"
	"chunky/vector"
)

// Index refers to an item in a MultiArena: which bin it lives in and its
// index within that bin's Arena.
type Index struct {
	Bin   int
	Inner arena.Index
}

// MultiArena routes items to the bin whose fixed item size best fits,
// rounding up to base_size * 2^i. The set of bins that have ever been used
// is itself persisted (as a vector.Vector[uint64] of rounded sizes) so a
// file-backed MultiArena reconstructs its bins on reopen without scanning
// the directory.
type MultiArena struct {
	id               ident.Ident
	typicalChunkSize int
	baseSize         int
	bins             []*arena.Arena
	usedBinSizes     *vector.Vector[uint64]
	storage          chunk.Storage
}

// New opens (or creates) a MultiArena rooted at id. baseSize is the smallest
// item size the collection expects, used as the item size of bin 0.
func New(id ident.Ident, typicalChunkSize, baseSize int, storage chunk.Storage) (*MultiArena, error) {
	if err := superblock.Bootstrap(storage, id.Sub("sb"), superblock.KindMultiArena); err != nil {
		return nil, fmt.Errorf("multiarena: %w", err)
	}

	usedBinSizes, err := vector.New[uint64](id.Sub("bin_sizes"), 1024, storage)
	if err != nil {
		return nil, fmt.Errorf("multiarena: load bin sizes: %w", err)
	}

	m := &MultiArena{
		id:               id,
		typicalChunkSize: typicalChunkSize,
		baseSize:         baseSize,
		usedBinSizes:     usedBinSizes,
		storage:          storage,
	}

	for i := 0; i < usedBinSizes.Len(); i++ {
		size := *usedBinSizes.At(i)
		if _, err := m.binForSize(int(size)); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// nextPowerOfTwo returns the smallest power of two >= n, for n >= 1.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func (m *MultiArena) sizeRoundedMultiple(size int) int {
	roundedToBaseSize := (size + m.baseSize - 1) / m.baseSize
	return nextPowerOfTwo(roundedToBaseSize)
}

// SizeToIndex returns the index of the bin that stores items of size size.
func (m *MultiArena) SizeToIndex(size int) int {
	return bits.Len(uint(m.sizeRoundedMultiple(size))) - 1
}

// binForSize returns the existing bin for rounded size sizeRoundedUp,
// reopening it from an already-persisted ident without recording it again
// in usedBinSizes.
func (m *MultiArena) binForSize(size int) (*arena.Arena, error) {
	index := m.SizeToIndex(size)
	sizeRoundedUp := m.sizeRoundedMultiple(size) * m.baseSize

	for index >= len(m.bins) {
		m.bins = append(m.bins, nil)
	}

	if m.bins[index] != nil {
		return m.bins[index], nil
	}

	chunkSize := max(m.typicalChunkSize, sizeRoundedUp)
	a, err := arena.New(m.id.Sub(sizeRoundedUp), chunkSize, sizeRoundedUp, m.storage)
	if err != nil {
		return nil, fmt.Errorf("multiarena: open bin %d: %w", index, err)
	}
	m.bins[index] = a
	return a, nil
}

// getOrInsertBinForSize returns the bin for size, creating and recording it
// in usedBinSizes the first time that bin is needed.
func (m *MultiArena) getOrInsertBinForSize(size int) (*arena.Arena, error) {
	index := m.SizeToIndex(size)
	sizeRoundedUp := m.sizeRoundedMultiple(size) * m.baseSize

	isNew := index >= len(m.bins) || m.bins[index] == nil

	bin, err := m.binForSize(size)
	if err != nil {
		return nil, err
	}

	if isNew {
		if err := m.usedBinSizes.Push(uint64(sizeRoundedUp)); err != nil {
			return nil, fmt.Errorf("multiarena: record bin size: %w", err)
		}
	}

	return bin, nil
}

// At returns the raw bytes of the item at index.
func (m *MultiArena) At(index Index) []byte {
	bin := m.bins[index.Bin]
	if bin == nil {
		panic("multiarena: no bin at this index")
	}
	return bin.At(index.Inner)
}

// Push adds an item of the given size to the end of the bin its size rounds
// up to, returning the bytes to write it into and its Index.
func (m *MultiArena) Push(size int) ([]byte, Index, error) {
	binIndex := m.SizeToIndex(size)
	bin, err := m.getOrInsertBinForSize(size)
	if err != nil {
		return nil, Index{}, err
	}
	bytes, arenaIndex, err := bin.Push()
	if err != nil {
		return nil, Index{}, err
	}
	return bytes, Index{Bin: binIndex, Inner: arenaIndex}, nil
}

// SwapRemoveWithinBin removes the item referenced by index from its bin by
// swapping in that bin's last item. It returns the bytes of the item that
// was moved into index's slot (ok=false if nothing moved).
func (m *MultiArena) SwapRemoveWithinBin(index Index) (item []byte, ok bool, err error) {
	bin := m.bins[index.Bin]
	if bin == nil {
		panic("multiarena: no bin at this index")
	}
	return bin.SwapRemove(index.Inner)
}

// BinLen returns the length of the bin at binIndex.
func (m *MultiArena) BinLen(binIndex int) int {
	bin := m.bins[binIndex]
	if bin == nil {
		panic("multiarena: no bin at this index")
	}
	return bin.Len()
}

// PopulatedBinIndicesAndLens returns the index of every bin that has been
// opened, in ascending order, paired with that bin's length. A bin whose
// items have all been removed stays in the result with length 0.
func (m *MultiArena) PopulatedBinIndicesAndLens() [][2]int {
	var result [][2]int
	for i, bin := range m.bins {
		if bin != nil {
			result = append(result, [2]int{i, bin.Len()})
		}
	}
	return result
}
