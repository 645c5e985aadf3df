// ABOUTME: Standard filesystem paths for stickybar configuration
// ABOUTME: Resolves ~/.stickybar/ for global and .stickybar/ for project-local paths

package config

import (
	"os"
	"path/filepath"
)

const (
	globalDirName  = ".stickybar"
	projectDirName = ".stickybar"
	configFileName = "config.yaml"
)

// GlobalDir returns the user-global config directory (~/.stickybar/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// ProjectDir returns the project-local config directory (.stickybar/ in cwd).
func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, projectDirName)
}

// GlobalConfigFile returns the path to the global config file.
func GlobalConfigFile() string {
	return filepath.Join(GlobalDir(), configFileName)
}

// ProjectConfigFile returns the path to the project-local config file.
func ProjectConfigFile(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), configFileName)
}

// DefaultLogFile returns the log path used when logging is enabled
// without an explicit file.
func DefaultLogFile() string {
	return filepath.Join(GlobalDir(), "stickybar.log")
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
