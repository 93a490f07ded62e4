// Package snapshot implements directory-level export and import of a
// chunk/file storage directory into a single archive. It compresses each
// file independently so export can compress a directory's chunk files
// concurrently, and optionally throttles I/O so a background export doesn't
// starve a live interactive session of disk bandwidth.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrNotEmpty is returned by Import when the destination directory already
// contains files and Options.Overwrite was not set.
var ErrNotEmpty = errors.New("snapshot: destination directory is not empty")

const (
	// defaultWorkers bounds how many files Export compresses concurrently
	// when Options.Workers is left at zero.
	defaultWorkers = 4

	// maxBurstSize caps the token bucket burst size for rate-limited I/O,
	// matching the sibling backup tool this throttling is grounded on.
	maxBurstSize = 256 * 1024

	// excludedName is never included in an export: it is process-local
	// advisory lock state, meaningless once restored elsewhere.
	excludedName = ".lock"
)

// Options configures Export and Import.
type Options struct {
	// Workers bounds how many files Export reads and compresses
	// concurrently. Defaults to 4 when <= 0.
	Workers int

	// RateLimit caps throughput in bytes/sec for the archive stream itself.
	// Zero (the default) means unlimited.
	RateLimit int64

	// Overwrite allows Import to write into a non-empty directory.
	Overwrite bool
}

// throttledWriter wraps an io.Writer with a token-bucket rate limit,
// splitting large writes into burst-sized chunks so the limiter's Wait calls
// apply gradually rather than up front.
type throttledWriter struct {
	w       io.Writer
	limiter *rate.Limiter
	ctx     context.Context
}

func newThrottledWriter(ctx context.Context, w io.Writer, bytesPerSec int64) io.Writer {
	if bytesPerSec <= 0 {
		return w
	}
	burst := min(int(bytesPerSec), maxBurstSize)
	return &throttledWriter{w: w, limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst), ctx: ctx}
}

func (tw *throttledWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		chunkLen := min(len(p), tw.limiter.Burst())
		if err := tw.limiter.WaitN(tw.ctx, chunkLen); err != nil {
			return written, err
		}
		n, err := tw.w.Write(p[:chunkLen])
		written += n
		p = p[n:]
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

type throttledReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func newThrottledReader(ctx context.Context, r io.Reader, bytesPerSec int64) io.Reader {
	if bytesPerSec <= 0 {
		return r
	}
	burst := min(int(bytesPerSec), maxBurstSize)
	return &throttledReader{r: r, limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst), ctx: ctx}
}

func (tr *throttledReader) Read(p []byte) (int, error) {
	if len(p) > tr.limiter.Burst() {
		p = p[:tr.limiter.Burst()]
	}
	if err := tr.limiter.WaitN(tr.ctx, len(p)); err != nil {
		return 0, err
	}
	return tr.r.Read(p)
}

// discoverFiles returns, relative to dir, every regular file in dir's tree
// except excludedName, in a stable (lexical) order.
func discoverFiles(dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == excludedName {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, rel)
		return nil
	})
	return names, err
}

func compressBytes(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// writeEntry appends one archive entry to w:
// [nameLen uint16][name][compressedLen uint64][compressed bytes].
func writeEntry(w io.Writer, name string, compressed []byte) error {
	var header bytes.Buffer
	if err := binary.Write(&header, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	header.WriteString(name)
	if err := binary.Write(&header, binary.LittleEndian, uint64(len(compressed))); err != nil {
		return err
	}
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(compressed)
	return err
}

// Export walks dir and writes every regular file (except the directory lock
// file) into w as a sequence of zstd-compressed entries. Files are read and
// compressed concurrently (bounded by Options.Workers) but written to w in a
// stable order, since w itself is a single sequential stream.
func Export(ctx context.Context, dir string, w io.Writer, opts Options) error {
	names, err := discoverFiles(dir)
	if err != nil {
		return fmt.Errorf("snapshot: discover files: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	compressed := make([][]byte, len(names))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("read %q: %w", name, err)
			}
			buf, err := compressBytes(data)
			if err != nil {
				return fmt.Errorf("compress %q: %w", name, err)
			}
			compressed[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := newThrottledWriter(ctx, w, opts.RateLimit)
	for i, name := range names {
		if err := writeEntry(out, name, compressed[i]); err != nil {
			return fmt.Errorf("snapshot: write entry %q: %w", name, err)
		}
	}
	return nil
}

func readEntry(r io.Reader) (name string, compressed []byte, err error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return "", nil, err
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return "", nil, err
	}
	var dataLen uint64
	if err := binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
		return "", nil, err
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", nil, err
	}
	return string(nameBytes), data, nil
}

// Import reads an archive produced by Export from r and recreates the
// directory tree rooted at dir. It refuses to write into a directory that
// already contains files unless opts.Overwrite is set.
func Import(ctx context.Context, r io.Reader, dir string, opts Options) error {
	if !opts.Overwrite {
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		if len(entries) > 0 {
			return ErrNotEmpty
		}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	in := newThrottledReader(ctx, r, opts.RateLimit)
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("snapshot: create zstd decoder: %w", err)
	}
	defer dec.Close()

	for {
		name, compressed, err := readEntry(in)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("snapshot: read entry: %w", err)
		}

		data, err := dec.DecodeAll(compressed, nil)
		if err != nil {
			return fmt.Errorf("snapshot: decompress %q: %w", name, err)
		}

		dest := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("snapshot: write %q: %w", name, err)
		}
	}
}
