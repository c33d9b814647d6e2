package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/aretw0/mindvault/pkg/core"
)

// AppName names the per-user application directory.
const AppName = "mindvault"

// Dirs resolves the platform application-data directory.
type Dirs struct {
	App string
	// Sandbox re-roots the directory under the system temp dir, see IsDevRun.
	Sandbox bool
}

// AppDataDir returns the per-user data directory of the application:
// %APPDATA% on Windows, ~/Library/Application Support on macOS and
// $XDG_DATA_HOME (default ~/.local/share) elsewhere.
func (d Dirs) AppDataDir() (string, error) {
	app := d.App
	if app == "" {
		app = AppName
	}
	if d.Sandbox {
		return SandboxPath(app), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, app), nil
		}
		return filepath.Join(home, "AppData", "Roaming", app), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", app), nil
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && filepath.IsAbs(xdg) {
			return filepath.Join(xdg, app), nil
		}
		return filepath.Join(home, ".local", "share", app), nil
	}
}

var _ core.PlatformDirs = Dirs{}
