// Package security validates user-supplied file paths before they reach
// the OS. The CLI accepts request document paths on the command line, so
// shell metacharacters and traversal tricks are rejected up front.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// forbiddenPathChars are shell metacharacters that have no business in a
// document path.
const forbiddenPathChars = ";&|$`(){}<>!\n\r"

// ValidateFilePath cleans a path, makes it absolute, and resolves symlinks
// when the target exists. Empty paths and paths carrying shell
// metacharacters are rejected.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	if idx := strings.IndexAny(path, forbiddenPathChars); idx >= 0 {
		return "", fmt.Errorf("file path contains forbidden character %q: %s", string(path[idx]), path)
	}

	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		clean = filepath.Join(cwd, clean)
	}

	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			// Target does not exist yet; the cleaned absolute path is as
			// far as resolution can go.
			return clean, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolved, nil
}

// SafeReadFile reads a file after validating the path. Drop-in replacement
// for os.ReadFile on user-supplied paths.
func SafeReadFile(path string) ([]byte, error) {
	clean, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated above
	return os.ReadFile(clean)
}
