// Package storage provides atomic file operations for JSON data in ~/.wu/
package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// HomeEnv overrides the data directory when set.
const HomeEnv = "WU_HOME"

// Dir returns the wu data directory (~/.wu or $WU_HOME), creating it if needed.
func Dir() (string, error) {
	dir := os.Getenv(HomeEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".wu")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// SaveJSON atomically writes data as JSON to path.
// The parent directory is created, the data goes to a temp file which is
// then renamed over path.
func SaveJSON(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return WriteAtomic(path, jsonData)
}

// WriteAtomic writes b to a temp file next to path and renames it into place.
func WriteAtomic(path string, b []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

// LoadJSON reads JSON from path into dest.
// Returns an error satisfying os.IsNotExist if the file doesn't exist.
func LoadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Remove deletes path. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
