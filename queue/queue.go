// Package queue implements Queue, a FIFO that stores heterogeneously sized
// items consecutively across a group of chunks. Each record is preceded by
// an 8-byte header that either says how big the record is or marks the end
// of usable space in its chunk so readers know to jump to the next one.
package queue

import (
	"encoding/binary"
	"fmt"

	"chunky/chunk"
	"chunky/ident"
	"chunky/internal/superblock"
	"chunky/value"
)

// headerSize is sizeof(NextItemRef): one machine word, fixed regardless of
// platform so on-disk layout does not depend on it.
const headerSize = 8

// nextChunkTag, when set in bit 0 of a header, marks a jump-to-next-chunk
// marker rather than a record. The remaining 63 bits of a SameChunk header
// hold totalSize (header + payload).
const nextChunkTag = uint64(1)

func encodeSameChunk(totalSize int) uint64 {
	return uint64(totalSize) << 1
}

func decodeHeader(word uint64) (totalSize int, isNextChunk bool) {
	if word&nextChunkTag != 0 {
		return 0, true
	}
	return int(word >> 1), false
}

func readHeader(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func writeHeader(b []byte, word uint64) {
	binary.LittleEndian.PutUint64(b, word)
}

// state is the queue's persisted bookkeeping, stored as a single
// value.Value so it survives a reopen of a file-backed Queue.
type state struct {
	firstChunkAt uint64
	lastChunkAt  uint64
	readAt       uint64
	writeAt      uint64
	len          uint64
}

// Queue is a FIFO of byte-slice items. Enqueue/Dequeue hand back raw bytes
// the caller fills in or reads, the same push-then-write-in-place shape used
// throughout chunky so items of heterogeneous size and type can share one
// queue.
type Queue struct {
	id               ident.Ident
	typicalChunkSize int
	chunks           []chunk.Chunk
	state            *value.Value[state]
	chunksToDrop     []chunk.Chunk
	storage          chunk.Storage
}

// New opens (or creates) a Queue rooted at id.
func New(id ident.Ident, typicalChunkSize int, storage chunk.Storage) (*Queue, error) {
	if err := superblock.Bootstrap(storage, id.Sub("sb"), superblock.KindQueue); err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}

	st, err := value.LoadOrDefault(id.Sub("q_state"), state{}, storage)
	if err != nil {
		return nil, fmt.Errorf("queue: load state: %w", err)
	}

	q := &Queue{
		id:               id,
		typicalChunkSize: typicalChunkSize,
		state:            st,
		storage:          storage,
	}

	cur := st.Get()
	if cur.writeAt > 0 {
		for chunkOffset := cur.firstChunkAt; chunkOffset <= cur.lastChunkAt; {
			c, err := storage.LoadChunk(id.Sub(chunkOffset))
			if err != nil {
				return nil, fmt.Errorf("queue: load chunk at offset %d: %w", chunkOffset, err)
			}
			chunkOffset += uint64(c.Len())
			q.chunks = append(q.chunks, c)
		}
	}

	return q, nil
}

// Len returns the number of items currently enqueued.
func (q *Queue) Len() int {
	return int(q.state.Get().len)
}

// IsEmpty reports whether the queue has no items.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Enqueue reserves space for an item of size bytes and returns it for the
// caller to fill in. It may allocate a new chunk if the current tail chunk
// doesn't have room left for the item plus a trailing jump marker.
func (q *Queue) Enqueue(size int) ([]byte, error) {
	st := q.state.Get()
	minSpace := headerSize + size + headerSize

	if len(q.chunks) > 0 {
		c := q.chunks[len(q.chunks)-1]
		offset := st.writeAt - st.lastChunkAt
		if int(offset)+minSpace <= c.Len() {
			buf := c.Bytes()
			writeHeader(buf[offset:], encodeSameChunk(headerSize+size))
			payload := buf[int(offset)+headerSize : int(offset)+headerSize+size]
			st.writeAt += uint64(headerSize + size)
			st.len++
			q.state.Set(st)
			return payload, nil
		}

		// Not enough room: write a jump marker and retry in a new chunk.
		buf := c.Bytes()
		writeHeader(buf[offset:], nextChunkTag)
		st.lastChunkAt += uint64(c.Len())
		st.writeAt = st.lastChunkAt
		q.state.Set(st)
	}

	newChunkSize := max(q.typicalChunkSize, minSpace)
	c, err := q.storage.CreateChunk(q.id.Sub(q.state.Get().lastChunkAt), newChunkSize)
	if err != nil {
		return nil, fmt.Errorf("queue: create chunk: %w", err)
	}
	q.chunks = append(q.chunks, c)
	return q.Enqueue(size)
}

// Dequeue returns the oldest item still in the queue, or ok=false if the
// queue is empty. The chunk backing a fully consumed item's chunk is queued
// for release via DropOldChunks rather than forgotten immediately, so a
// concurrent reader of an in-flight item is never invalidated mid-read.
func (q *Queue) Dequeue() (item []byte, ok bool, err error) {
	st := q.state.Get()
	if st.readAt == st.writeAt {
		return nil, false, nil
	}

	c := q.chunks[0]
	offset := st.readAt - st.firstChunkAt
	buf := c.Bytes()
	totalSize, isNextChunk := decodeHeader(readHeader(buf[offset:]))

	if isNextChunk {
		st.firstChunkAt += uint64(c.Len())
		st.readAt = st.firstChunkAt
		q.state.Set(st)
		q.chunksToDrop = append(q.chunksToDrop, c)
		q.chunks = q.chunks[1:]
		return q.Dequeue()
	}

	payload := buf[int(offset)+headerSize : int(offset)+totalSize]
	st.readAt += uint64(totalSize)
	st.len--
	q.state.Set(st)
	return payload, true, nil
}

// DropOldChunks deletes chunks that have already been fully read and were
// held back by Dequeue until now.
func (q *Queue) DropOldChunks() error {
	for _, c := range q.chunksToDrop {
		if err := q.storage.ForgetChunk(c); err != nil {
			return fmt.Errorf("queue: forget chunk: %w", err)
		}
	}
	q.chunksToDrop = nil
	return nil
}
