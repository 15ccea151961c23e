package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"barcoder/internal/testsupport"
)

func TestBuilderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteDocuments(t, dir, "B001.pdf", "B002.pdf")
	big := bytes.Repeat([]byte("0123456789abcdef"), 8192)
	testsupport.WriteFile(t, filepath.Join(dir, "B003.pdf"), big)

	archivePath := filepath.Join(dir, "out", "processed_files.zip")
	b, err := Begin(archivePath)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, name := range []string{"B001.pdf", "B002.pdf", "B003.pdf"} {
		if err := b.Add(filepath.Join(dir, name), name); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	res, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		t.Fatalf("stat archive: %v", err)
	}
	if res.Bytes != info.Size() {
		t.Fatalf("result bytes %d, file size %d", res.Bytes, info.Size())
	}
	if res.Path != archivePath || len(res.Entries) != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Bytes >= int64(len(big)) {
		t.Fatalf("expected compression, archive is %d bytes", res.Bytes)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(reader.File))
	}
	for _, f := range reader.File {
		if f.Method != zip.Deflate {
			t.Errorf("entry %s method = %d, want deflate", f.Name, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		want, err := os.ReadFile(filepath.Join(dir, f.Name))
		if err != nil {
			t.Fatalf("read source %s: %v", f.Name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("entry %s content differs from source", f.Name)
		}
	}
}

func TestBuilderEmptyArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	b, err := Begin(path)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	res, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(res.Entries) != 0 || res.Bytes == 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	reader.Close()
}

func TestBuilderRejectsUseAfterFinalize(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteDocuments(t, dir, "B001.pdf")
	path := filepath.Join(dir, "a.zip")
	b, err := Begin(path)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := b.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := b.Add(filepath.Join(dir, "B001.pdf"), "B001.pdf"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := b.Abort(); err != nil {
		t.Fatalf("Abort after Finalize: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("finalized archive should remain: %v", err)
	}
}

type toggleWriter struct {
	buf    bytes.Buffer
	fail   bool
	closed bool
}

func (w *toggleWriter) Write(p []byte) (int, error) {
	if w.fail {
		return 0, errors.New("disk full")
	}
	return w.buf.Write(p)
}

func (w *toggleWriter) Close() error {
	w.closed = true
	return nil
}

func TestBuilderWriteFailureIsArchiveWriteError(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteDocuments(t, dir, "B001.pdf", "B002.pdf", "B003.pdf")
	path := filepath.Join(dir, "partial.zip")
	testsupport.WriteFile(t, path, []byte("partial"))

	out := &toggleWriter{}
	b := newBuilder(path, out)
	for _, name := range []string{"B001.pdf", "B002.pdf"} {
		if err := b.Add(filepath.Join(dir, name), name); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}

	out.fail = true
	err := b.Add(filepath.Join(dir, "B003.pdf"), "B003.pdf")
	if !errors.Is(err, ErrArchiveWrite) {
		t.Fatalf("expected ErrArchiveWrite, got %v", err)
	}
	var writeErr *WriteError
	if !errors.As(err, &writeErr) || writeErr.Entry != "B003.pdf" {
		t.Fatalf("expected WriteError for B003.pdf, got %#v", err)
	}

	if _, err := b.Finalize(); !errors.Is(err, ErrArchiveWrite) {
		t.Fatalf("Finalize after failure should return the failure, got %v", err)
	}
	if err := b.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if !out.closed {
		t.Fatal("Abort should close the output")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("partial archive should be removed, stat err = %v", err)
	}
}

func TestBuilderMissingSourceFails(t *testing.T) {
	dir := t.TempDir()
	b, err := Begin(filepath.Join(dir, "a.zip"))
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer b.Abort()
	err = b.Add(filepath.Join(dir, "nope.pdf"), "nope.pdf")
	if !errors.Is(err, ErrArchiveWrite) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected archive write error wrapping not-exist, got %v", err)
	}
}
