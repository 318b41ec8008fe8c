package util

import (
	"errors"
	"strings"
)

var errBadFileName = errors.New("invalid file name")

// SanitizeFileName rejects traversal patterns and flattens path separators
// so the result is safe to embed in a storage key.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errBadFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errBadFileName
	}
	return s, nil
}
