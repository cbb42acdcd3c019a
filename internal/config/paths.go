package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	platformLinux = "linux"
	appDir        = "sharepoint-go"
	configFile    = "config.toml"
)

// DefaultConfigDir is $XDG_CONFIG_HOME/sharepoint-go when XDG_CONFIG_HOME
// is set on Linux, ~/Library/Application Support/sharepoint-go on macOS and
// ~/.config/sharepoint-go everywhere else. Empty when the home directory is
// unknown.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" && runtime.GOOS == platformLinux {
		return filepath.Join(xdg, appDir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", appDir)
	}

	return filepath.Join(home, ".config", appDir)
}

// DefaultConfigPath is used when neither SHAREPOINT_GO_CONFIG nor --config
// names a file.
func DefaultConfigPath() string {
	if dir := DefaultConfigDir(); dir != "" {
		return filepath.Join(dir, configFile)
	}

	return ""
}
