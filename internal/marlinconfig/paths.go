package marlinconfig

import (
	"os"
	"path/filepath"
	"strings"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marlin"
	}
	return filepath.Join(home, ".marlin")
}

// expandPath expands a leading ~/ to the user's home directory, mirroring
// the teacher's cache-path expansion. Paths without that prefix are
// returned unchanged.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func joinPath(dir, name string) string {
	return filepath.Join(expandPath(dir), name)
}
