package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	tempDir := os.TempDir()
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}

	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}

	return false
}

// SandboxPath maps an application directory name into a namespaced
// directory below the system temp dir, so development runs never touch the
// user's real notebooks.
func SandboxPath(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == string(os.PathSeparator) || name == "" {
		name = "default"
	}
	return filepath.Join(os.TempDir(), AppName+"-dev", name)
}

// IsInTemp reports whether p lies inside the system temp directory.
func IsInTemp(p string) bool {
	rel, err := filepath.Rel(os.TempDir(), filepath.Clean(p))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
