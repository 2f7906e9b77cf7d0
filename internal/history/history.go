// Package history tracks recently opened writeups per repository.
// This enables `wu show` with no arguments to reopen the last document and
// lets the browser start on it.
package history

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"time"

	"github.com/raphi011/wu/internal/storage"
)

// maxEntries caps the history file; the least recently opened entries go first.
const maxEntries = 100

// Entry is one opened writeup.
type Entry struct {
	Path        string    `json:"path"`
	Repo        string    `json:"repo"`
	LastAccess  time.Time `json:"last_access"`
	AccessCount int       `json:"access_count"`
}

// History stores recently opened writeups, most recent first.
type History struct {
	Entries []Entry `json:"entries"`
}

// DefaultPath returns the history file inside the data directory.
func DefaultPath() (string, error) {
	dir, err := storage.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// Load reads the history from file. A missing or corrupted file yields an
// empty history.
func Load(file string) (*History, error) {
	var h History
	if err := storage.LoadJSON(file, &h); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &History{}, nil
		}
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, err
		}
		// Corrupted - start fresh
		return &History{}, nil
	}
	h.sort()
	return &h, nil
}

// Save writes the history to file atomically.
func (h *History) Save(file string) error {
	h.sort()
	if len(h.Entries) > maxEntries {
		h.Entries = h.Entries[:maxEntries]
	}
	return storage.SaveJSON(file, h)
}

// Record marks path in repo as opened now.
func (h *History) Record(repo, path string, now time.Time) {
	i := h.index(repo, path)
	if i < 0 {
		h.Entries = append(h.Entries, Entry{Path: path, Repo: repo})
		i = len(h.Entries) - 1
	}
	h.Entries[i].LastAccess = now
	h.Entries[i].AccessCount++
	h.sort()
}

// MostRecent returns the last opened writeup of repo.
func (h *History) MostRecent(repo string) (Entry, bool) {
	for _, e := range h.Entries {
		if e.Repo == repo {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove drops path in repo, e.g. once it no longer exists upstream.
// Reports whether an entry was removed.
func (h *History) Remove(repo, path string) bool {
	i := h.index(repo, path)
	if i < 0 {
		return false
	}
	h.Entries = slices.Delete(h.Entries, i, i+1)
	return true
}

func (h *History) index(repo, path string) int {
	return slices.IndexFunc(h.Entries, func(e Entry) bool {
		return e.Repo == repo && e.Path == path
	})
}

func (h *History) sort() {
	slices.SortStableFunc(h.Entries, func(a, b Entry) int {
		return b.LastAccess.Compare(a.LastAccess)
	})
}

// RecordAccess loads file, records path in repo and saves it back.
func RecordAccess(repo, path, file string) error {
	h, err := Load(file)
	if err != nil {
		return err
	}
	h.Record(repo, path, time.Now())
	return h.Save(file)
}

// GetMostRecent returns the last opened writeup path of repo, or "" when
// nothing was opened yet.
func GetMostRecent(repo, file string) (string, error) {
	h, err := Load(file)
	if err != nil {
		return "", err
	}
	e, _ := h.MostRecent(repo)
	return e.Path, nil
}
