package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// rejectTraversal fails on empty paths and on any ".." segment that survives
// cleaning, so "a/b/../c" passes while "../c" does not.
func rejectTraversal(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(filepath.Clean(path), "..") {
		return fmt.Errorf("path contains directory traversal: %s", path)
	}
	return nil
}

// ValidateFilePath checks an archive entry name before it is used as a path.
func ValidateFilePath(path string) error {
	return rejectTraversal(path)
}

// ValidateConfigPath checks a user-supplied config or database path. Relative
// and absolute paths are both allowed.
func ValidateConfigPath(path string) error {
	return rejectTraversal(path)
}
