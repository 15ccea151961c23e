package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"barcoder/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "mapping.xlsx")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckReadableFile("mapping", f); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckReadableFile("mapping", dir); r.Passed {
		t.Fatal("expected failure for directory")
	}
	if r := CheckReadableFile("mapping", filepath.Join(dir, "nope.xlsx")); r.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestCheckBindAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:2700", true},
		{":2700", true},
		{"localhost:0", true},
		{"[::1]:8080", true},
		{"2700", false},
		{"127.0.0.1:", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := CheckBindAddress("bind", tt.addr); got.Passed != tt.want {
			t.Errorf("CheckBindAddress(%q) passed = %v, want %v (%s)", tt.addr, got.Passed, tt.want, got.Detail)
		}
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := RunAll(cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	cfg.Paths.StagingDir = filepath.Join(t.TempDir(), "missing")
	failed := Failed(RunAll(cfg))
	if len(failed) != 1 || failed[0].Name != "Staging directory" {
		t.Fatalf("expected staging failure, got %+v", failed)
	}
	if RunAll(nil) != nil {
		t.Fatal("nil config should yield no results")
	}
}
