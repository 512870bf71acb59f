package buildsys

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// CacheFilename is written by cmake into every configured build tree.
	CacheFilename = "CMakeCache.txt"

	homeDirectoryKey = "CMAKE_HOME_DIRECTORY"
)

// ErrSourceRootNotInCache is returned when the cache has no CMAKE_HOME_DIRECTORY entry.
var ErrSourceRootNotInCache = errors.New("CMAKE_HOME_DIRECTORY not found in cache")

// SourceRootFromCache returns the source directory recorded in buildDir/CMakeCache.txt.
func SourceRootFromCache(buildDir string) (string, error) {
	path := filepath.Join(buildDir, CacheFilename)

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open cmake cache: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Entries look like KEY:TYPE=VALUE.
		key, rest, ok := strings.Cut(line, ":")
		if !ok || key != homeDirectoryKey {
			continue
		}

		_, value, ok := strings.Cut(rest, "=")
		if ok && value != "" {
			return value, nil
		}
	}

	if err = scanner.Err(); err != nil {
		return "", fmt.Errorf("read cmake cache: %w", err)
	}

	return "", fmt.Errorf("%s: %w", path, ErrSourceRootNotInCache)
}
