// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a user-supplied file path to an absolute form the
// storage layer can open: a leading ~ becomes the home directory and $VAR
// references are substituted from the environment. Paths that need no
// expansion pass through unchanged.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~":
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	case strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}

	return os.ExpandEnv(path)
}
