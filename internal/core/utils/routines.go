package utils

import (
	"os"
	"path/filepath"
)

// CleanTempRuntimes removes every directory matching pattern.
func CleanTempRuntimes(pattern string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			os.RemoveAll(path)
		}
	}
	return nil
}

// ExistsMatchingDirs reports whether a directory other than exclude matches pattern.
func ExistsMatchingDirs(pattern, exclude string) (bool, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return false, err
	}

	for _, path := range matches {
		if filepath.Clean(path) == filepath.Clean(exclude) {
			continue
		}
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			return true, nil
		}
	}
	return false, nil
}

// IndexPaths maps every file under root by its path relative to root.
func IndexPaths(root string) (map[string]string, error) {
	indexed := make(map[string]string)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		indexed[relPath] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return indexed, nil
}
