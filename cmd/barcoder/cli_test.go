package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"barcoder/internal/staging"
	"barcoder/internal/testsupport"
)

type cliEnv struct {
	configPath string
	stagingDir string
	logDir     string
}

func setupCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := cliEnv{
		configPath: filepath.Join(base, "config.toml"),
		stagingDir: filepath.Join(base, "staging"),
		logDir:     filepath.Join(base, "logs"),
	}
	content := fmt.Sprintf("[paths]\nstaging_dir = %q\nlog_dir = %q\n\n[logging]\nlevel = \"warn\"\n", env.stagingDir, env.logDir)
	testsupport.WriteFile(t, env.configPath, []byte(content))
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeRunFixture(t *testing.T) (mappingPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	testsupport.WriteDocuments(t, dir, "A-123.pdf", "keep.pdf")
	mappingPath = filepath.Join(t.TempDir(), "mapping.xlsx")
	testsupport.WriteWorkbook(t, mappingPath, [][]string{
		{"Ipd No.", "Barcode"},
		{"A-123", "B001"},
		{"X9", "B009"},
		{"", "B010"},
	})
	return mappingPath, dir
}

func TestRunCommandPrintsTables(t *testing.T) {
	env := setupCLIEnv(t)
	mappingPath, dir := writeRunFixture(t)

	out, _, err := runCLI(t, []string{"run", "--mapping", mappingPath, "--dir", dir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Archive: "+filepath.Join(dir, "processed_files.zip"))
	requireContains(t, out, "Records: 3, documents archived: 1")
	requireContains(t, out, "B001.pdf")
	requireContains(t, out, "Invalid entry found: Ipd No. is missing. Barcode: B010")
	requireContains(t, out, "Document not found for Ipd No.: X9")

	if got := testsupport.ListNames(t, dir); !containsAll(got, "B001.pdf", "keep.pdf", "processed_files.zip") {
		t.Fatalf("directory = %v", got)
	}
}

func TestRunCommandJSON(t *testing.T) {
	env := setupCLIEnv(t)
	mappingPath, dir := writeRunFixture(t)
	archivePath := filepath.Join(t.TempDir(), "out.zip")

	out, _, err := runCLI(t, []string{"--json", "run", "-m", mappingPath, "-d", dir, "-o", archivePath}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var payload runJSON
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Archive != archivePath || payload.Matched != 1 || payload.Records != 3 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	want := []string{
		"Invalid entry found: Ipd No. is missing. Barcode: B010",
		"Document not found for Ipd No.: X9",
	}
	if strings.Join(payload.Messages, "\n") != strings.Join(want, "\n") {
		t.Fatalf("messages = %q", payload.Messages)
	}
	if info, err := os.Stat(archivePath); err != nil || info.Size() != payload.ArchiveSize {
		t.Fatalf("archive mismatch: %v", err)
	}
}

func TestRunCommandErrors(t *testing.T) {
	env := setupCLIEnv(t)
	mappingPath, dir := writeRunFixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing mapping", []string{"run", "--mapping", filepath.Join(dir, "nope.xlsx"), "--dir", dir}, "does not exist"},
		{"missing dir", []string{"run", "--mapping", mappingPath, "--dir", filepath.Join(dir, "nope")}, "does not exist"},
		{"bad collision", []string{"run", "--mapping", mappingPath, "--dir", dir, "--collision", "merge"}, "--collision"},
		{"same columns", []string{"run", "--mapping", mappingPath, "--dir", dir, "--barcode-column", "ipd no."}, "must differ"},
		{"required flags", []string{"run"}, "required flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.configPath)
			if err == nil {
				t.Fatal("expected error")
			}
			requireContains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Staging directory")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestInvalidLogOverrideFails(t *testing.T) {
	env := setupCLIEnv(t)
	_, _, err := runCLI(t, []string{"--log-format", "xml", "staging", "list"}, env.configPath)
	if err == nil {
		t.Fatal("expected validation error for log format")
	}
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "No workspaces found")

	ws, err := staging.Acquire(env.stagingDir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	testsupport.WriteDocuments(t, ws.DocumentsDir(), "A1.pdf")
	_ = ws.Unlock()

	out, _, err = runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, ws.ID()[:8])
	requireContains(t, strings.ToLower(out), "1 total")

	out, _, err = runCLI(t, []string{"staging", "clean"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "No stale workspaces to clean")

	out, _, err = runCLI(t, []string{"--json", "staging", "clean", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean --all: %v", err)
	}
	var payload struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil || payload.Removed != 1 {
		t.Fatalf("unexpected clean output %q (%v)", out, err)
	}
	if _, err := os.Stat(ws.Path()); !os.IsNotExist(err) {
		t.Fatal("workspace should be removed")
	}
}

func containsAll(values []string, want ...string) bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}
