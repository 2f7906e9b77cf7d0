package cache

import (
	"errors"
	"os"
	"syscall"
)

// ErrLocked is returned by TryLock when another process holds the lock.
var ErrLocked = errors.New("cache is locked by another process")

// FileLock is an exclusive flock on a sidecar file. It serialises cache
// writes between concurrent wu processes (e.g. `wu serve` and `wu list`).
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock for path. The file is created on first Lock.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Lock blocks until the lock is acquired.
func (l *FileLock) Lock() error {
	return l.acquire(syscall.LOCK_EX)
}

// TryLock acquires the lock without blocking, returning ErrLocked if it is held.
func (l *FileLock) TryLock() error {
	err := l.acquire(syscall.LOCK_EX | syscall.LOCK_NB)
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return ErrLocked
	}
	return err
}

func (l *FileLock) acquire(how int) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}

	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return err
	}

	l.file = f
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *FileLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// withLock runs fn while holding the lock at path.
func withLock(path string, fn func() error) error {
	lock := NewFileLock(path)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// tryWithLock is withLock without waiting: it returns ErrLocked when another
// process holds the lock at path.
func tryWithLock(path string, fn func() error) error {
	lock := NewFileLock(path)
	if err := lock.TryLock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}
