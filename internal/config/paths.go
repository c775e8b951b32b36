package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath returns $XDG_CONFIG_HOME/voidkv/config.toml (or the
// platform equivalent via os.UserConfigDir).
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "voidkv", "config.toml"), nil
}

// DefaultSnapshotPath returns $HOME/.local/share/voidkv/snapshot.mpk (or
// the platform equivalent via os.UserHomeDir), following the same
// XDG-style convention as DefaultConfigPath.
func DefaultSnapshotPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "voidkv", "snapshot.mpk"), nil
}
