package reconcile_test

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"barcoder/internal/archive"
	"barcoder/internal/mapping"
	"barcoder/internal/reconcile"
	"barcoder/internal/staging"
	"barcoder/internal/testsupport"
)

func TestRunPackagesRenamedDocuments(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteDocuments(t, dir, "A-123.pdf", "C 7.pdf", "unrelated.pdf")
	mappingPath := filepath.Join(dir, "a123.xlsx")
	testsupport.WriteWorkbook(t, mappingPath, [][]string{
		{"Ipd No.", "Barcode", "Notes"},
		{"A-123", "B001", ""},
		{"c7", "B002", ""},
		{"X9", "B003", ""},
		{"", "", "checked"},
	})

	result, err := reconcile.Run(context.Background(), reconcile.Request{MappingPath: mappingPath, Dir: dir})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	archivePath := filepath.Join(dir, archive.DefaultName)
	if result.Archive.Path != archivePath {
		t.Fatalf("archive path = %s, want %s", result.Archive.Path, archivePath)
	}
	if result.Records != 4 {
		t.Fatalf("records = %d, want 4", result.Records)
	}
	wantMessages := []string{
		"Invalid entry found: both Ipd No. and Barcode are missing.",
		"Document not found for Ipd No.: X9",
	}
	if !reflect.DeepEqual(result.Messages(), wantMessages) {
		t.Fatalf("messages = %q, want %q", result.Messages(), wantMessages)
	}

	wantDir := []string{"B001.pdf", "B002.pdf", "a123.xlsx", "processed_files.zip", "unrelated.pdf"}
	if got := testsupport.ListNames(t, dir); !reflect.DeepEqual(got, wantDir) {
		t.Fatalf("directory = %v, want %v", got, wantDir)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		t.Fatalf("stat archive: %v", err)
	}
	if info.Size() != result.Archive.Bytes {
		t.Fatalf("archive size %d, reported %d", info.Size(), result.Archive.Bytes)
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()
	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		got, _ := io.ReadAll(rc)
		rc.Close()
		want, _ := os.ReadFile(filepath.Join(dir, f.Name))
		if string(got) != string(want) {
			t.Errorf("entry %s differs from renamed file", f.Name)
		}
	}
	if !reflect.DeepEqual(names, []string{"B001.pdf", "B002.pdf"}) {
		t.Fatalf("archive entries = %v", names)
	}
}

func TestRunMissingMappingLeavesNoArchive(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteDocuments(t, dir, "A1.pdf")

	result, err := reconcile.Run(context.Background(), reconcile.Request{
		MappingPath: filepath.Join(dir, "missing.xlsx"),
		Dir:         dir,
	})
	if !errors.Is(err, mapping.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if !reflect.DeepEqual(result, reconcile.Result{}) {
		t.Fatalf("expected zero result, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, archive.DefaultName)); !os.IsNotExist(err) {
		t.Fatalf("archive should not exist, stat err = %v", err)
	}
}

func TestRunRenameFailureRemovesArchive(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteDocuments(t, dir, "A1.pdf", "A2.pdf")
	testsupport.WriteDocuments(t, filepath.Join(dir, "B001.pdf"), "blocker")
	mappingPath := filepath.Join(t.TempDir(), "map.csv")
	testsupport.WriteFile(t, mappingPath, []byte("Ipd No.,Barcode\nA2,B002\nA1,B001\n"))
	archivePath := filepath.Join(t.TempDir(), "out.zip")

	result, err := reconcile.Run(context.Background(), reconcile.Request{
		MappingPath: mappingPath,
		Dir:         dir,
		ArchivePath: archivePath,
		Collision:   reconcile.CollisionOverwrite,
	})
	var renameErr *reconcile.RenameError
	if !errors.As(err, &renameErr) {
		t.Fatalf("expected RenameError, got %v", err)
	}
	if result.Archive.Path != "" {
		t.Fatalf("expected zero result, got %+v", result)
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Fatalf("partial archive should be removed, stat err = %v", err)
	}
}

func TestRunRejectsLockedDirectory(t *testing.T) {
	dir := t.TempDir()
	unlock, err := staging.LockDir(dir)
	if err != nil {
		t.Fatalf("LockDir: %v", err)
	}
	defer unlock()

	_, err = reconcile.Run(context.Background(), reconcile.Request{MappingPath: filepath.Join(dir, "m.xlsx"), Dir: dir})
	if !errors.Is(err, staging.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunMissingDirectory(t *testing.T) {
	_, err := reconcile.Run(context.Background(), reconcile.Request{Dir: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, reconcile.ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}
