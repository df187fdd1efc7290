// Package config resolves user-supplied filesystem paths from flags and
// config files before they reach the storage and batch layers.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~ to the current user's home directory and
// expands $VAR references, so values like "~/slips/$TENANT" arrive at the
// filesystem fully resolved. If the home directory cannot be determined the
// tilde is left as written.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}
