// Package content lazily fetches and memoises writeup documents.
package content

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/raphi011/wu/internal/github"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/writeup"
)

// Fetcher retrieves the raw text at a URL.
type Fetcher interface {
	Raw(ctx context.Context, url string) (string, error)
}

// Loader maps item paths to document text. Each path is fetched at most once
// while it succeeds; failed fetches are not remembered, so the next Load
// retries. Concurrent loads of one path share a single request, which is
// not bound to any one caller's context: a caller that gives up gets
// github.ErrCancelled while the others keep waiting.
type Loader struct {
	fetcher Fetcher

	mu   sync.RWMutex
	docs map[string]string

	group singleflight.Group
}

// NewLoader creates an empty Loader.
func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f, docs: make(map[string]string)}
}

// Cached returns the memoised text for path without fetching.
func (l *Loader) Cached(path string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	text, ok := l.docs[path]
	return text, ok
}

// Load returns the text of it, fetching it.RawURL if it isn't memoised yet.
func (l *Loader) Load(ctx context.Context, it writeup.Item) (string, error) {
	if text, ok := l.Cached(it.Path); ok {
		return text, nil
	}

	if ctx.Err() != nil {
		return "", github.ErrCancelled
	}

	ch := l.group.DoChan(it.Path, func() (any, error) {
		if text, ok := l.Cached(it.Path); ok {
			return text, nil
		}
		text, err := l.fetcher.Raw(context.WithoutCancel(ctx), it.RawURL)
		if err != nil {
			return "", err
		}
		l.mu.Lock()
		l.docs[it.Path] = text
		l.mu.Unlock()
		return text, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", github.ErrCancelled
	case res = <-ch:
	}
	if res.Err != nil {
		log.FromContext(ctx).Debug("content fetch failed", "path", it.Path, "err", res.Err)
		return "", res.Err
	}
	if res.Shared {
		log.FromContext(ctx).Debug("content fetch shared", "path", it.Path)
	}
	return res.Val.(string), nil
}

// Len returns the number of memoised documents.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}
