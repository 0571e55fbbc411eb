// Package discovery provides clip file discovery for batch loop searches.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/util"
)

// DiscoveryLogger defines the interface for discovery logging.
// *logging.Logger satisfies it.
type DiscoveryLogger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// DiscoveryResult contains the results of file discovery with metadata.
type DiscoveryResult struct {
	Files        []string
	SkippedCount int
}

// FindClipFiles finds clip files in the given directory.
// Returns files sorted alphabetically by filename.
func FindClipFiles(inputDir string) ([]string, error) {
	result, err := FindClipFilesWithLogging(inputDir, nil)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

// FindClipFilesWithLogging finds clip files and logs discovery progress.
// Logs the first 5 files found plus a count summary.
func FindClipFilesWithLogging(inputDir string, logger DiscoveryLogger) (*DiscoveryResult, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, coreerrors.NewPathError(fmt.Sprintf("directory does not exist: %s", inputDir))
	}
	if !info.IsDir() {
		return nil, coreerrors.NewPathError(fmt.Sprintf("%s is not a directory", inputDir))
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, coreerrors.NewIOError(fmt.Sprintf("cannot read directory %s", inputDir), err)
	}

	result := &DiscoveryResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Skip hidden files
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(inputDir, name)
		if util.IsClipFile(fullPath) {
			result.Files = append(result.Files, fullPath)
		} else {
			result.SkippedCount++
		}
	}

	if len(result.Files) == 0 {
		return nil, coreerrors.NewNoFilesFoundError(inputDir)
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(result.Files[i])) < strings.ToLower(filepath.Base(result.Files[j]))
	})

	if logger != nil {
		logDiscoveredFiles(result, logger)
	}

	return result, nil
}

// ResolveInputs expands input into clip files: a single clip file is returned as
// is, a directory is searched with FindClipFilesWithLogging.
func ResolveInputs(input string, logger DiscoveryLogger) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, coreerrors.NewPathError(fmt.Sprintf("input does not exist: %s", input))
	}
	if !info.IsDir() {
		if !util.IsClipFile(input) {
			return nil, coreerrors.NewPathError(fmt.Sprintf("%s is not a clip file", input))
		}
		return []string{input}, nil
	}

	result, err := FindClipFilesWithLogging(input, logger)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

// logDiscoveredFiles logs the first 5 discovered files plus a count.
func logDiscoveredFiles(result *DiscoveryResult, logger DiscoveryLogger) {
	logger.Info("found clip files", "count", len(result.Files), "skipped", result.SkippedCount)

	maxToLog := min(5, len(result.Files))
	for i := range maxToLog {
		logger.Debug("clip file", "name", filepath.Base(result.Files[i]))
	}

	if len(result.Files) > 5 {
		logger.Debug("more clip files", "remaining", len(result.Files)-5)
	}
}
