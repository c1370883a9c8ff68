package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath overrides the config file search.
	EnvConfigPath = "RRBRIDGE_CONFIG"

	// ConfigFileName is looked up in the working directory.
	ConfigFileName = "rrbridge.yaml"
)

// FindConfigPath returns the first existing config file, or "" if none.
//
// Search order:
//  1. $RRBRIDGE_CONFIG
//  2. ./rrbridge.yaml
//  3. ~/.config/rrbridge/config.yaml
//  4. /etc/rrbridge/config.yaml
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if path := UserConfigPath(); path != "" && fileExists(path) {
		return path
	}

	if path := SystemConfigPath(); fileExists(path) {
		return path
	}

	return ""
}

// UserConfigPath returns ~/.config/rrbridge/config.yaml, or "" without a home.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rrbridge", "config.yaml")
}

// SystemConfigPath returns the system-wide config path.
func SystemConfigPath() string {
	return "/etc/rrbridge/config.yaml"
}

// EnsureConfigDir creates the directory holding configPath.
func EnsureConfigDir(configPath string) error {
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
