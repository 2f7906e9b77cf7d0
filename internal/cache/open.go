package cache

import (
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates the named backend under dir.
func Open(backend, dir string) (Backend, error) {
	switch backend {
	case "", BackendFile:
		return NewFileBackend(filepath.Join(dir, "cache")), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "cache.db"))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
