package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the path to the overlay config directory (~/.overlay).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".overlay"), nil
}

// EnsureConfigDir creates the config directory if it does not exist.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultPath returns the path of name inside the config directory.
// Absolute names are returned as-is.
func DefaultPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ResolveConfigPath picks the config file to load: explicit wins, then
// ~/.overlay/config.yaml if it exists. An empty result means defaults only.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path, err := DefaultPath("config.yaml")
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	return path, nil
}

// SessionPath returns the configured session path, or a default inside the
// config directory named for the store kind.
func (c *Config) SessionPath() (string, error) {
	if c.Session.Path != "" {
		return c.Session.Path, nil
	}
	switch c.Session.Store {
	case StoreSQLite:
		return DefaultPath("session.db")
	default:
		return DefaultPath("session.yaml")
	}
}
