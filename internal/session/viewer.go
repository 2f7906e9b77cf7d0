package session

import "github.com/raphi011/wu/internal/writeup"

// ViewerState is the lifecycle state of the document modal.
type ViewerState int

const (
	ViewerClosed ViewerState = iota
	ViewerLoading
	ViewerReady
	ViewerError
)

func (s ViewerState) String() string {
	switch s {
	case ViewerLoading:
		return "loading"
	case ViewerReady:
		return "ready"
	case ViewerError:
		return "error"
	default:
		return "closed"
	}
}

// ScrollPos is a list position: the selected row and the first visible row.
type ScrollPos struct {
	Cursor int
	Offset int
}

// ScrollLock suspends list navigation while a modal is open and remembers
// where the list was.
type ScrollLock struct {
	held bool
	pos  ScrollPos
}

// Acquire saves pos and takes the lock. Acquiring a held lock keeps the
// position saved first.
func (l *ScrollLock) Acquire(pos ScrollPos) {
	if l.held {
		return
	}
	l.held = true
	l.pos = pos
}

// Release drops the lock and returns the saved position.
// ok is false if the lock was not held.
func (l *ScrollLock) Release() (pos ScrollPos, ok bool) {
	if !l.held {
		return ScrollPos{}, false
	}
	l.held = false
	pos, l.pos = l.pos, ScrollPos{}
	return pos, true
}

// Held reports whether the lock is taken.
func (l *ScrollLock) Held() bool {
	return l.held
}

// Viewer is the exclusive document modal. At most one document is open.
// Each open or retry gets a new request id; content delivered for an
// older id is ignored.
type Viewer struct {
	lock    ScrollLock
	state   ViewerState
	item    writeup.Item
	content string
	err     error
	request uint64
}

// Open shows item, replacing any open document, and takes the scroll lock
// at pos. The viewer starts in the loading state; the returned id must be
// passed to Loaded or Failed.
func (v *Viewer) Open(item writeup.Item, pos ScrollPos) uint64 {
	v.lock.Acquire(pos)
	v.item = item
	return v.load()
}

// Retry reloads a document whose load failed.
func (v *Viewer) Retry() (uint64, bool) {
	if v.state != ViewerError {
		return 0, false
	}
	return v.load(), true
}

func (v *Viewer) load() uint64 {
	v.request++
	v.state = ViewerLoading
	v.content = ""
	v.err = nil
	return v.request
}

// Loaded delivers content for request id.
func (v *Viewer) Loaded(id uint64, content string) bool {
	if v.state != ViewerLoading || id != v.request {
		return false
	}
	v.state = ViewerReady
	v.content = content
	return true
}

// Failed delivers a load error for request id.
func (v *Viewer) Failed(id uint64, err error) bool {
	if v.state != ViewerLoading || id != v.request {
		return false
	}
	v.state = ViewerError
	v.err = err
	return true
}

// Close hides the document and releases the scroll lock, returning the
// list position saved by the first Open.
func (v *Viewer) Close() (ScrollPos, bool) {
	if v.state == ViewerClosed {
		return ScrollPos{}, false
	}
	v.request++
	v.state = ViewerClosed
	v.item = writeup.Item{}
	v.content = ""
	v.err = nil
	return v.lock.Release()
}

// IsOpen reports whether a document is shown.
func (v *Viewer) IsOpen() bool { return v.state != ViewerClosed }

// State returns the lifecycle state.
func (v *Viewer) State() ViewerState { return v.state }

// Item returns the open document.
func (v *Viewer) Item() writeup.Item { return v.item }

// Content returns the loaded text when ready.
func (v *Viewer) Content() string { return v.content }

// Err returns the load error in the error state.
func (v *Viewer) Err() error { return v.err }

// Locked reports whether list navigation is suspended.
func (v *Viewer) Locked() bool { return v.lock.Held() }
