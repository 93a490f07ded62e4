// Package superblock implements the small versioned header collections stamp
// into a reserved chunk of their own storage. It lets a collection recognize
// storage it created, refuse to open storage written by an incompatible
// version, and tell apart "empty, never used" from "belongs to a different
// kind of collection."
package superblock

import (
	"errors"
	"fmt"

	"chunky/chunk"
	"chunky/ident"
)

// Layout (8 bytes):
//
//	signature (4 bytes, "CHNK")
//	kind      (1 byte, identifies the directory's owner collection)
//	version   (1 byte)
//	flags     (2 bytes, reserved, always zero for now)
const (
	Size = 8

	signature = "CHNK"

	// Version is the current superblock format version written by this
	// package. Bump it whenever the on-disk chunk layout changes in a way
	// that is not backward compatible.
	Version = 1

	// Kind codes identify which chunky collection owns the header's chunk.
	// There is no KindValue: a Value[T]'s chunk is exactly sizeof(T) bytes so
	// it can be addressed directly via unsafe.Pointer, leaving no room to
	// prepend a header without breaking that aliasing.
	KindGeneric    byte = 'g'
	KindArena      byte = 'a'
	KindQueue      byte = 'q'
	KindMultiArena byte = 'm'
)

var (
	ErrTooSmall          = errors.New("superblock: buffer smaller than superblock size")
	ErrSignatureMismatch = errors.New("superblock: signature mismatch, not a chunky directory")
	ErrVersionMismatch   = errors.New("superblock: version mismatch, written by an incompatible version")
	ErrKindMismatch      = errors.New("superblock: directory belongs to a different collection kind")
)

// Superblock is the decoded manifest.
type Superblock struct {
	Kind    byte
	Version byte
}

// Encode serializes s into an 8-byte array ready to write to disk.
func (s Superblock) Encode() [Size]byte {
	var buf [Size]byte
	copy(buf[0:4], signature)
	buf[4] = s.Kind
	buf[5] = s.Version
	return buf
}

// New builds a Superblock for the current format version.
func New(kind byte) Superblock {
	return Superblock{Kind: kind, Version: Version}
}

// Decode parses a Superblock from buf, validating its signature.
func Decode(buf []byte) (Superblock, error) {
	if len(buf) < Size {
		return Superblock{}, ErrTooSmall
	}
	if string(buf[0:4]) != signature {
		return Superblock{}, ErrSignatureMismatch
	}
	return Superblock{Kind: buf[4], Version: buf[5]}, nil
}

// DecodeAndValidate parses a Superblock and additionally checks that it
// matches the expected kind and the current Version.
func DecodeAndValidate(buf []byte, expectedKind byte) (Superblock, error) {
	sb, err := Decode(buf)
	if err != nil {
		return Superblock{}, err
	}
	if sb.Version != Version {
		return Superblock{}, ErrVersionMismatch
	}
	if sb.Kind != expectedKind {
		return Superblock{}, ErrKindMismatch
	}
	return sb, nil
}

// Bootstrap stamps a Size-byte header of the given kind into the chunk
// identified by id on first use, or validates a pre-existing one against
// kind and Version on later opens. Callers reserve id outside the namespace
// their own items use, the same way chunk/file.Storage reserves "_superblock"
// for its own directory-level header.
func Bootstrap(storage chunk.Storage, id ident.Ident, kind byte) error {
	c, created, err := storage.LoadOrCreateChunk(id, Size)
	if err != nil {
		return fmt.Errorf("superblock: bootstrap %s: %w", id, err)
	}
	if created {
		buf := New(kind).Encode()
		copy(c.Bytes(), buf[:])
		return nil
	}
	if _, err := DecodeAndValidate(c.Bytes(), kind); err != nil {
		return fmt.Errorf("superblock: %s: %w", id, err)
	}
	return nil
}
