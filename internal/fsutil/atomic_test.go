package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates a new notebook file", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "plan.json")
		if err := WriteFileAtomic(filename, []byte(`{"id":"a"}`), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(got) != `{"id":"a"}` {
			t.Errorf("unexpected content %q", got)
		}
	})

	t.Run("Overwrites and leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, "plan.json")
		if err := os.WriteFile(filename, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := WriteFileAtomic(filename, []byte("new"), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		got, _ := os.ReadFile(filename)
		if string(got) != "new" {
			t.Errorf("expected overwritten content, got %q", got)
		}
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), TempFilePrefix) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("Fails if directory missing", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "missing", "plan.json")
		if err := WriteFileAtomic(filename, []byte("x"), 0644); err == nil {
			t.Error("expected error when directory is missing")
		}
	})

	t.Run("Overwrite keeps the existing permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permissions")
		}
		filename := filepath.Join(t.TempDir(), "app-config.json")
		if err := os.WriteFile(filename, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(filename, 0600); err != nil {
			t.Fatal(err)
		}
		if err := WriteFileAtomic(filename, []byte(`{"theme":null}`), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		info, err := os.Stat(filename)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("Temp files are hidden", func(t *testing.T) {
		if !strings.HasPrefix(TempFilePrefix, ".") {
			t.Errorf("prefix %q is not a dotfile", TempFilePrefix)
		}
	})
}
