package archive

import (
	"archive/zip"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Result describes a finalized archive.
type Result struct {
	Path    string   `json:"path"`
	Entries []string `json:"entries"`
	Bytes   int64    `json:"bytes"`
}

// Builder writes zip entries to a single output file.
type Builder struct {
	path    string
	out     io.WriteCloser
	counter *countingWriter
	zw      *zip.Writer
	entries []string
	err     error
	closed  bool
}

// Begin creates (or truncates) the archive at path.
func Begin(path string) (*Builder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, &WriteError{Op: "create", Path: path, Err: err}
	}
	return newBuilder(path, file), nil
}

func newBuilder(path string, out io.WriteCloser) *Builder {
	counter := &countingWriter{w: out}
	zw := zip.NewWriter(counter)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	return &Builder{path: path, out: out, counter: counter, zw: zw}
}

// Path returns the archive location.
func (b *Builder) Path() string { return b.path }

// Add copies srcPath into the archive as entryName and flushes the stream.
func (b *Builder) Add(srcPath, entryName string) error {
	if b.closed {
		return ErrClosed
	}
	if b.err != nil {
		return b.err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return b.fail(&WriteError{Op: "open", Path: srcPath, Entry: entryName, Err: err})
	}
	defer src.Close()

	modified := time.Now()
	if info, statErr := src.Stat(); statErr == nil {
		modified = info.ModTime()
	}
	header := &zip.FileHeader{
		Name:     filepath.ToSlash(entryName),
		Method:   zip.Deflate,
		Modified: modified,
	}
	w, err := b.zw.CreateHeader(header)
	if err != nil {
		return b.fail(&WriteError{Op: "add", Path: b.path, Entry: entryName, Err: err})
	}
	if _, err := io.Copy(w, src); err != nil {
		return b.fail(&WriteError{Op: "add", Path: b.path, Entry: entryName, Err: err})
	}
	if err := b.zw.Flush(); err != nil {
		return b.fail(&WriteError{Op: "flush", Path: b.path, Entry: entryName, Err: err})
	}
	b.entries = append(b.entries, header.Name)
	return nil
}

// Finalize writes the central directory, syncs and closes the file.
func (b *Builder) Finalize() (Result, error) {
	if b.closed {
		return Result{}, ErrClosed
	}
	if b.err != nil {
		return Result{}, b.err
	}
	if err := b.zw.Close(); err != nil {
		return Result{}, b.fail(&WriteError{Op: "finalize", Path: b.path, Err: err})
	}
	if syncer, ok := b.out.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return Result{}, b.fail(&WriteError{Op: "sync", Path: b.path, Err: err})
		}
	}
	b.closed = true
	if err := b.out.Close(); err != nil {
		b.err = &WriteError{Op: "close", Path: b.path, Err: err}
		return Result{}, b.err
	}
	return Result{
		Path:    b.path,
		Entries: append([]string(nil), b.entries...),
		Bytes:   b.counter.n,
	}, nil
}

// Abort closes the output and removes the partial archive. Aborting a
// finalized builder is a no-op.
func (b *Builder) Abort() error {
	if b.closed && b.err == nil {
		return nil
	}
	if !b.closed {
		b.closed = true
		_ = b.out.Close()
	}
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial archive: %w", err)
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.err = err
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
