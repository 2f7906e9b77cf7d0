package session

import (
	"context"

	"github.com/raphi011/wu/internal/collector"
	"github.com/raphi011/wu/internal/writeup"
)

// Crawler runs one collection. *collector.Collector implements it.
type Crawler interface {
	Run(ctx context.Context, emit func(collector.Event)) (*collector.Result, error)
}

// Cache persists the merged list. *cache.Store implements it.
type Cache interface {
	Write(ctx context.Context, items []writeup.Item)
}

// Sync crawls for generation gen, merging each batch into s as it
// arrives, and writes a completed result to store. It blocks until the
// crawl ends and returns the crawl error. ctx should be the context
// returned by Begin.
func (s *Session) Sync(ctx context.Context, gen uint64, crawler Crawler, store Cache) error {
	res, err := crawler.Run(ctx, func(ev collector.Event) {
		if ev.Kind == collector.Batch {
			s.ApplyBatch(gen, ev.Items)
		}
	})

	var (
		items  []writeup.Item
		failed []string
	)
	if res != nil {
		items, failed = res.Items, res.Failed
	}
	if !s.Finish(gen, items, failed, err) {
		return err
	}
	if err == nil && store != nil {
		store.Write(context.WithoutCancel(ctx), s.Items())
	}
	return err
}

// Refresh begins a new generation and syncs it in the background.
// done, if not nil, is called with the crawl error when it ends.
func (s *Session) Refresh(parent context.Context, crawler Crawler, store Cache, done func(error)) uint64 {
	ctx, gen := s.Begin(parent)
	go func() {
		err := s.Sync(ctx, gen, crawler, store)
		if done != nil {
			done(err)
		}
	}()
	return gen
}
