// Package file implements a chunk.Storage backed by one memory-mapped file
// per chunk inside a single directory. This is the persistent backend: its
// chunks survive the process and can be reopened by a later run, making it
// the right choice for savegames and any other state that must outlive a
// restart.
package file

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"

	"chunky/chunk"
	"chunky/ident"
	"chunky/internal/logging"
	"chunky/internal/superblock"
)

const (
	lockFileName    = ".lock"
	superblockIdent = ident.Ident("_superblock")
)

var (
	ErrMissingDir      = errors.New("file: Dir is required")
	ErrDirectoryLocked = errors.New("file: directory is locked by another process")
	ErrStorageClosed   = errors.New("file: storage is closed")
)

// Config configures a Storage.
type Config struct {
	// Dir is the directory chunks are stored under. One regular file is
	// created per chunk, named after its Ident.
	Dir string

	// FileMode is the permission bits used for new chunk files, the lock
	// file, and the superblock. Defaults to 0o644.
	FileMode os.FileMode

	// Logger for structured logging. If nil, logging is disabled. Storage
	// scopes this logger with component="chunk", type="file".
	Logger *slog.Logger
}

// Storage allocates chunks as memory-mapped files inside Config.Dir. A
// Storage value holds an exclusive advisory lock on its directory for its
// entire lifetime, so only one process at a time may open a given directory.
type Storage struct {
	mu       sync.Mutex
	cfg      Config
	lockFile *os.File
	logger   *slog.Logger
	closed   bool
}

// New opens (or creates) a file-backed Storage rooted at cfg.Dir. It creates
// the directory if missing, acquires the directory lock, and bootstraps or
// validates the directory's superblock.
func New(cfg Config) (*Storage, error) {
	if cfg.Dir == "" {
		return nil, ErrMissingDir
	}
	cfg.FileMode = cmp.Or(cfg.FileMode, 0o644)

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("file: create dir %q: %w", cfg.Dir, err)
	}

	lockPath := filepath.Join(cfg.Dir, lockFileName)
	lockFile, err := os.OpenFile(filepath.Clean(lockPath), os.O_CREATE|os.O_RDWR, cfg.FileMode)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = lockFile.Close()
		return nil, fmt.Errorf("%w: %s", ErrDirectoryLocked, cfg.Dir)
	}

	logger := logging.Default(cfg.Logger).With("component", "chunk", "type", "file")

	s := &Storage{
		cfg:      cfg,
		lockFile: lockFile,
		logger:   logger,
	}

	if err := s.bootstrapSuperblock(); err != nil {
		_ = lockFile.Close()
		return nil, err
	}

	logger.Info("opened chunk directory", "dir", cfg.Dir)
	return s, nil
}

// bootstrapSuperblock writes a superblock on first use and validates it on
// later opens, using the Storage's own chunk.Storage methods to persist it.
// The reserved "_superblock" ident lives outside the namespace application
// code is expected to use.
func (s *Storage) bootstrapSuperblock() error {
	if err := superblock.Bootstrap(s, superblockIdent, superblock.KindGeneric); err != nil {
		return fmt.Errorf("file: %s: %w", s.cfg.Dir, err)
	}
	return nil
}

// Close releases the directory lock. It does not unmap or close any chunks
// still held by the caller; those remain valid until the process exits.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.lockFile.Close()
}

func (s *Storage) path(id ident.Ident) string {
	return filepath.Join(s.cfg.Dir, id.String())
}

// mmapFile maps file's first size bytes read-write and wraps it as a Chunk.
// The file is assumed to already be at least size bytes long.
func mmapFile(file *os.File, size int) (chunk.Chunk, error) {
	if size == 0 {
		return chunk.New(nil, &mmapHandle{file: file}), nil
	}
	data, err := syscall.Mmap(int(file.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return chunk.Chunk{}, fmt.Errorf("file: mmap %q: %w", file.Name(), err)
	}
	return chunk.New(data, &mmapHandle{file: file, data: data}), nil
}

type mmapHandle struct {
	file *os.File
	data []byte
}

func (h *mmapHandle) close() error {
	var err error
	if h.data != nil {
		if unmapErr := syscall.Munmap(h.data); unmapErr != nil {
			err = unmapErr
		}
		h.data = nil
	}
	if h.file != nil {
		if closeErr := h.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		h.file = nil
	}
	return err
}

// CreateChunk creates a new file of the given size under ident, failing if
// one already exists.
func (s *Storage) CreateChunk(id ident.Ident, size int) (chunk.Chunk, error) {
	path := s.path(id)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, s.cfg.FileMode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return chunk.Chunk{}, fmt.Errorf("file: create %q: %w", id, chunk.ErrChunkExists)
		}
		return chunk.Chunk{}, err
	}
	if err := file.Truncate(int64(size)); err != nil {
		_ = file.Close()
		return chunk.Chunk{}, fmt.Errorf("file: grow %q: %w", id, err)
	}
	s.logger.Debug("created chunk", "ident", id.String(), "size", size)
	return mmapFile(file, size)
}

// LoadOrCreateChunk opens the file under ident if it already exists,
// otherwise creates it at the given size. created reports which happened.
func (s *Storage) LoadOrCreateChunk(id ident.Ident, size int) (chunk.Chunk, bool, error) {
	path := s.path(id)
	_, statErr := os.Stat(path)
	existed := statErr == nil

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, s.cfg.FileMode)
	if err != nil {
		return chunk.Chunk{}, false, err
	}
	if !existed {
		if err := file.Truncate(int64(size)); err != nil {
			_ = file.Close()
			return chunk.Chunk{}, false, fmt.Errorf("file: grow %q: %w", id, err)
		}
	} else {
		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return chunk.Chunk{}, false, err
		}
		size = int(info.Size())
	}

	c, err := mmapFile(file, size)
	if err != nil {
		return chunk.Chunk{}, false, err
	}
	return c, !existed, nil
}

// LoadChunk opens a file assumed to already exist under ident.
func (s *Storage) LoadChunk(id ident.Ident) (chunk.Chunk, error) {
	path := s.path(id)
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return chunk.Chunk{}, fmt.Errorf("file: load %q: %w", id, chunk.ErrChunkNotFound)
		}
		return chunk.Chunk{}, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return chunk.Chunk{}, err
	}
	return mmapFile(file, int(info.Size()))
}

// ForgetChunk unmaps, closes, and deletes the file backing c.
func (s *Storage) ForgetChunk(c chunk.Chunk) error {
	h, ok := c.Handle().(*mmapHandle)
	if !ok {
		return chunk.ErrForeignChunk
	}
	path := h.file.Name()
	if err := h.close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// Sweep globs Config.Dir for regular files that are not the lock file, the
// superblock, or any of the identifiers in known. It is a diagnostic only:
// it reports candidate orphan chunk files left behind by a crash between
// CreateChunk and the collection recording the new chunk's identifier in its
// own persisted state, but it never deletes anything itself.
func (s *Storage) Sweep(known []ident.Ident) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(s.cfg.Dir, "*"))
	if err != nil {
		return nil, err
	}

	reserved := map[string]bool{
		lockFileName:         true,
		superblockIdent.String(): true,
	}
	for _, id := range known {
		reserved[id.String()] = true
	}

	var orphans []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if reserved[filepath.Base(m)] {
			continue
		}
		orphans = append(orphans, m)
	}
	return orphans, nil
}

var _ chunk.Storage = (*Storage)(nil)
