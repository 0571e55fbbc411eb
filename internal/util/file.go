package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ClipExtensions is the list of supported baked clip file extensions.
var ClipExtensions = map[string]bool{
	".json": true,
}

// IsClipFile checks if the given path is a baked clip file.
func IsClipFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	return ClipExtensions[ext]
}

// GetFileStem returns the filename without extension.
func GetFileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// EnsureDirectory creates a directory if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// EnsureParentDirectory creates the directory holding path if it doesn't exist.
func EnsureParentDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return EnsureDirectory(dir)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
