package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/raphi011/wu/internal/storage"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileBackend stores each key as <dir>/<key>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a backend rooted at dir. The directory is created
// on the first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path returns the file that holds key.
func (b *FileBackend) Path(key string) string {
	return filepath.Join(b.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (b *FileBackend) lockPath(key string) string {
	return b.Path(key) + ".lock"
}

func (b *FileBackend) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(b.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (b *FileBackend) Put(key string, data []byte) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	return withLock(b.lockPath(key), func() error {
		return storage.WriteAtomic(b.Path(key), data)
	})
}

// Delete removes the record for key. It does not wait for a writer: while
// another process holds the record's lock it returns ErrLocked.
func (b *FileBackend) Delete(key string) error {
	if _, err := os.Stat(b.dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return tryWithLock(b.lockPath(key), func() error {
		return storage.Remove(b.Path(key))
	})
}

func (b *FileBackend) Close() error {
	return nil
}
