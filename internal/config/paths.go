package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExecutableDir returns the directory of the running binary, falling back to
// the working directory.
func ExecutableDir() string {
	if exe, err := os.Executable(); err == nil && strings.TrimSpace(exe) != "" {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// ResolveRuntimePath resolves relative runtime directories against the
// executable directory.
func ResolveRuntimePath(raw string, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallbackSubdir)
	}
	if target == "" {
		return ExecutableDir()
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(ExecutableDir(), target)
}

// UploadsDir is where the local provider writes files.
func (c *AppConfig) UploadsDir() string {
	return filepath.Join(c.StaticDir(), "uploads")
}
