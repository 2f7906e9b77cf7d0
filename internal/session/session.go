package session

import (
	"context"
	"sync"

	"github.com/raphi011/wu/internal/github"
	"github.com/raphi011/wu/internal/writeup"
)

// State is a point-in-time copy of a Session.
type State struct {
	Items []writeup.Item
	// Generation is the current collection generation.
	Generation uint64
	// Loading is set while a crawl runs and nothing is shown yet.
	Loading bool
	// Refreshing is set while a crawl runs over already visible items.
	Refreshing bool
	// Err is the root failure of the last crawl, set only when no items
	// could be shown.
	Err error
	// Failed lists top-level directories skipped by the last crawl.
	Failed []string
}

// Busy reports whether a crawl is in flight.
func (s State) Busy() bool {
	return s.Loading || s.Refreshing
}

// Session is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	items      []writeup.Item
	generation uint64
	cancel     context.CancelFunc
	loading    bool
	refreshing bool
	err        error
	failed     []string
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// Seed shows items (typically read from the cache) before any crawl.
func (s *Session) Seed(items []writeup.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = writeup.Merge(nil, items)
}

// Begin starts a new generation, cancelling the current one.
// The returned context is cancelled when the generation is superseded.
func (s *Session) Begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.generation++
	s.err = nil
	s.loading = len(s.items) == 0
	s.refreshing = !s.loading
	return ctx, s.generation
}

// Cancel stops the current generation. Results still in flight are dropped.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.loading = false
	s.refreshing = false
}

// Current reports whether gen is the live generation.
func (s *Session) Current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation && s.cancel != nil
}

// ApplyBatch merges a partial result into the visible list.
// It returns false, changing nothing, if gen is not current.
func (s *Session) ApplyBatch(gen uint64, items []writeup.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.cancel == nil {
		return false
	}
	s.items = writeup.Merge(s.items, items)
	if len(s.items) > 0 && s.loading {
		s.loading = false
		s.refreshing = true
	}
	return true
}

// Finish ends generation gen with the crawl outcome.
// It returns false, changing nothing, if gen is not current.
//
// A complete crawl replaces the list so removed documents disappear. When
// some directories failed the result is merged instead, keeping what is
// already known about them. A root failure surfaces as Err only when there
// is nothing to show; cancellation never does.
func (s *Session) Finish(gen uint64, items []writeup.Item, failed []string, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.loading = false
	s.refreshing = false

	switch {
	case err != nil:
		if !github.IsCancelled(err) && len(s.items) == 0 {
			s.err = err
		}
	case len(failed) > 0:
		s.items = writeup.Merge(s.items, items)
		s.failed = failed
	default:
		s.items = writeup.Merge(nil, items)
		s.failed = nil
	}
	return true
}

// Items returns a copy of the visible list.
func (s *Session) Items() []writeup.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]writeup.Item(nil), s.items...)
}

// Find returns the visible item with the given path.
func (s *Session) Find(path string) (writeup.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Path == path {
			return it, true
		}
	}
	return writeup.Item{}, false
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Items:      append([]writeup.Item(nil), s.items...),
		Generation: s.generation,
		Loading:    s.loading,
		Refreshing: s.refreshing,
		Err:        s.err,
		Failed:     append([]string(nil), s.failed...),
	}
}
