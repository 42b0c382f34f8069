// Package paths resolves per-user locations for fabricscan files.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "fabricscan"

// ConfigDir returns the fabricscan config directory.
// Order: XDG_CONFIG_HOME/fabricscan, %AppData%\Fabricscan on Windows, ~/.config/fabricscan.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Fabricscan")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// ConfigFile returns the default config file path, or "" when no home directory is
// known.
func ConfigFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
