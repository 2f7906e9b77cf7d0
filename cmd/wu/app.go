package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/raphi011/wu/internal/cache"
	"github.com/raphi011/wu/internal/collector"
	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/content"
	"github.com/raphi011/wu/internal/github"
	"github.com/raphi011/wu/internal/history"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/session"
	"github.com/raphi011/wu/internal/storage"
	"github.com/raphi011/wu/internal/ui/progress"
	"github.com/raphi011/wu/internal/writeup"
)

// app holds the data sources every command shares.
type app struct {
	cfg       *config.Config
	client    *github.Client
	store     *cache.Store
	collector *collector.Collector
	loader    *content.Loader
	session   *session.Session
	history   string // history file
}

// newApp wires the GitHub client, cache, collector and loader for cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	dir, err := dataDir(cfg)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg, dir)
	if err != nil {
		return nil, err
	}

	repo := github.Repo{Owner: cfg.Source.Owner, Name: cfg.Source.Repo, Ref: cfg.Source.Ref}
	token := github.ResolveToken(ctx, cfg.Source.Token)
	if token == "" {
		log.FromContext(ctx).Debug("no GitHub token, requests are unauthenticated")
	}
	client := github.NewClient(repo,
		github.WithAPIURL(cfg.Source.APIURL),
		github.WithToken(token),
	)

	return &app{
		cfg:       cfg,
		client:    client,
		store:     store,
		collector: collector.New(client, collector.WithConcurrency(cfg.Source.Concurrency)),
		loader:    content.NewLoader(client),
		session:   session.New(),
		history:   filepath.Join(dir, "history.json"),
	}, nil
}

// dataDir is cache.dir when configured, the wu data directory otherwise.
func dataDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := storage.Dir()
	if err != nil {
		return "", fmt.Errorf("data directory: %w", err)
	}
	return dir, nil
}

// openStore opens the configured cache backend. The record key includes
// the repository so switching repos never serves the wrong list.
func openStore(cfg *config.Config, dir string) (*cache.Store, error) {
	backend, err := cache.Open(cfg.Cache.Backend, dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return cache.NewStore(backend,
		cache.WithTTL(cfg.CacheTTL()),
		cache.WithKey(cacheKey(cfg)),
	), nil
}

func cacheKey(cfg *config.Config) string {
	src := cfg.Source
	if src.Owner == config.DefaultOwner && src.Repo == config.DefaultRepo && src.Ref == "" {
		return cache.Key
	}
	repo := github.Repo{Owner: src.Owner, Name: src.Repo, Ref: src.Ref}
	return cache.Key + "-" + repo.String()
}

func (a *app) Close() error {
	a.session.Cancel()
	return a.store.Close()
}

func (a *app) repoLabel() string {
	return a.client.Repo().String()
}

// writeups returns the writeup list, from the cache when it is fresh and
// refresh is false, otherwise by crawling. failed lists top-level
// directories the crawl could not read.
func (a *app) writeups(ctx context.Context, refresh bool) (items []writeup.Item, failed []string, err error) {
	l := log.FromContext(ctx)

	if !refresh {
		if items, ok := a.store.Read(ctx); ok {
			l.Debug("using cached writeups", "items", len(items))
			return items, nil, nil
		}
	}

	sp := progress.NewSpinner(a.repoLabel())
	sp.Start()
	defer sp.Stop()

	ctx, gen := a.session.Begin(ctx)
	if err := a.session.Sync(ctx, gen, crawlerFunc(func(ctx context.Context, emit func(collector.Event)) (*collector.Result, error) {
		return a.collector.Run(ctx, func(ev collector.Event) {
			sp.Observe(ev)
			emit(ev)
		})
	}), a.store); err != nil {
		if github.IsCancelled(err) {
			return nil, nil, context.Canceled
		}
		// An expired record beats nothing
		if rec, ierr := a.store.Inspect(); ierr == nil && len(rec.Items) > 0 {
			l.Printf("Warning: crawl %s failed (%v), showing cached list from %s\n",
				a.repoLabel(), err, rec.WrittenAt().Format(time.DateTime))
			writeup.Sort(rec.Items)
			return rec.Items, nil, nil
		}
		return nil, nil, fmt.Errorf("crawl %s: %w", a.repoLabel(), err)
	}

	st := a.session.Snapshot()
	return st.Items, st.Failed, nil
}

// crawlerFunc adapts a function to session.Crawler.
type crawlerFunc func(ctx context.Context, emit func(collector.Event)) (*collector.Result, error)

func (f crawlerFunc) Run(ctx context.Context, emit func(collector.Event)) (*collector.Result, error) {
	return f(ctx, emit)
}

// find resolves path to a known writeup, crawling if the cache misses it.
func (a *app) find(ctx context.Context, path string) (writeup.Item, error) {
	items, _, err := a.writeups(ctx, false)
	if err != nil {
		return writeup.Item{}, err
	}
	if it, ok := lookup(items, path); ok {
		return it, nil
	}

	// The cache may predate the file
	items, _, err = a.writeups(ctx, true)
	if err != nil {
		return writeup.Item{}, err
	}
	if it, ok := lookup(items, path); ok {
		return it, nil
	}
	return writeup.Item{}, fmt.Errorf("no writeup at %q in %s", path, a.repoLabel())
}

func lookup(items []writeup.Item, path string) (writeup.Item, bool) {
	for _, it := range items {
		if it.Path == path {
			return it, true
		}
	}
	return writeup.Item{}, false
}

// recordOpen remembers path as the last opened writeup of this repo.
// Failures only warrant a debug line.
func (a *app) recordOpen(ctx context.Context, path string) {
	if err := history.RecordAccess(a.repoLabel(), path, a.history); err != nil {
		log.FromContext(ctx).Debug("record history failed", "path", path, "err", err)
	}
}

// lastOpened returns the last opened writeup path of this repo, or "".
func (a *app) lastOpened(ctx context.Context) string {
	path, err := history.GetMostRecent(a.repoLabel(), a.history)
	if err != nil {
		log.FromContext(ctx).Debug("read history failed", "err", err)
	}
	return path
}
