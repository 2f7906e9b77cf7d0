// Package collector crawls the writeups repository and reports markdown
// documents as each top-level directory resolves.
package collector

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/raphi011/wu/internal/github"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/writeup"
)

// Lister returns the direct children of a repository path.
type Lister interface {
	List(ctx context.Context, path string) ([]github.Entry, error)
}

// EventKind distinguishes progress events.
type EventKind int

const (
	// Batch carries the items of one resolved subtree (or the root files).
	Batch EventKind = iota
	// Done is sent once after every top-level directory resolved.
	Done
)

// Event reports crawl progress.
type Event struct {
	Kind EventKind
	// Dir is the top-level directory a Batch came from; "" for root files.
	Dir string
	// Items is the batch for Batch, and the full merged set for Done.
	Items []writeup.Item
	// Failed lists top-level directories whose subtree could not be read.
	// Only set on Done.
	Failed []string
}

// Result is the outcome of a completed crawl.
type Result struct {
	Items  []writeup.Item
	Failed []string
}

// Collector walks a repository through a Lister.
type Collector struct {
	lister Lister
	limit  int
}

// Option configures a Collector.
type Option func(*Collector)

// WithConcurrency caps how many directories are listed at once per level.
// Zero means unbounded.
func WithConcurrency(n int) Option {
	return func(c *Collector) { c.limit = n }
}

// New creates a Collector.
func New(lister Lister, opts ...Option) *Collector {
	c := &Collector{lister: lister}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run crawls from the repository root. Root markdown files are emitted
// first, then one Batch per top-level directory as its subtree resolves, then
// a single Done.
//
// A failure listing the root is returned. A failure inside a subtree drops
// that subtree and is otherwise ignored. If ctx is cancelled Run returns
// github.ErrCancelled and emits nothing further. emit is never called
// concurrently.
func (c *Collector) Run(ctx context.Context, emit func(Event)) (*Result, error) {
	l := log.FromContext(ctx)

	var mu sync.Mutex
	send := func(ev Event) bool {
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			return false
		}
		emit(ev)
		return true
	}

	root, err := c.list(ctx, "")
	if err != nil {
		return nil, err
	}

	files, dirs := split(root)
	if len(files) > 0 && !send(Event{Kind: Batch, Items: writeup.Merge(nil, files)}) {
		return nil, github.ErrCancelled
	}

	var (
		collected []writeup.Item
		failed    []string
	)

	g, gctx := errgroup.WithContext(ctx)
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	for _, dir := range dirs {
		g.Go(func() error {
			items, err := c.walk(gctx, dir.Path)
			if err != nil {
				if github.IsCancelled(err) || ctx.Err() != nil {
					return github.ErrCancelled
				}
				l.Debug("skipping directory", "path", dir.Path, "err", err)
				mu.Lock()
				failed = append(failed, dir.Path)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			collected = append(collected, items...)
			mu.Unlock()

			if len(items) > 0 && !send(Event{Kind: Batch, Dir: dir.Path, Items: writeup.Merge(nil, items)}) {
				return github.ErrCancelled
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil || ctx.Err() != nil {
		return nil, github.ErrCancelled
	}

	res := &Result{Items: writeup.Merge(files, collected), Failed: failed}
	if !send(Event{Kind: Done, Items: res.Items, Failed: failed}) {
		return nil, github.ErrCancelled
	}
	return res, nil
}

// walk collects every markdown file below path. Nested directories are
// listed concurrently; any failure fails the whole subtree.
func (c *Collector) walk(ctx context.Context, path string) ([]writeup.Item, error) {
	entries, err := c.list(ctx, path)
	if err != nil {
		return nil, err
	}

	files, dirs := split(entries)
	if len(dirs) == 0 {
		return files, nil
	}

	nested := make([][]writeup.Item, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	for i, dir := range dirs {
		g.Go(func() error {
			items, err := c.walk(gctx, dir.Path)
			nested[i] = items
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, items := range nested {
		files = append(files, items...)
	}
	return files, nil
}

func (c *Collector) list(ctx context.Context, path string) ([]github.Entry, error) {
	if ctx.Err() != nil {
		return nil, github.ErrCancelled
	}
	entries, err := c.lister.List(ctx, path)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, github.ErrCancelled
		}
		return nil, err
	}
	log.FromContext(ctx).Debug("listed", "path", displayPath(path), "entries", len(entries))
	return entries, nil
}

func split(entries []github.Entry) (files []writeup.Item, dirs []github.Entry) {
	for _, e := range entries {
		switch {
		case writeup.IsMarkdown(e):
			files = append(files, writeup.FromEntry(e))
		case e.Type == github.TypeDir:
			dirs = append(dirs, e)
		}
	}
	return files, dirs
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
