package browser

import (
	"context"
	"errors"
	"sync"
	"testing"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphi011/wu/internal/collector"
	"github.com/raphi011/wu/internal/content"
	"github.com/raphi011/wu/internal/session"
	"github.com/raphi011/wu/internal/writeup"
)

type fakeCrawler struct {
	mu    sync.Mutex
	calls int
	run   func(ctx context.Context, call int, emit func(collector.Event)) (*collector.Result, error)
}

func (f *fakeCrawler) Run(ctx context.Context, emit func(collector.Event)) (*collector.Result, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.run(ctx, call, emit)
}

// blockingCrawler never finishes on its own.
func blockingCrawler() *fakeCrawler {
	return &fakeCrawler{run: func(ctx context.Context, _ int, _ func(collector.Event)) (*collector.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

type fakeCache struct {
	mu     sync.Mutex
	writes [][]writeup.Item
}

func (c *fakeCache) Write(_ context.Context, items []writeup.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, items)
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	fail  int // number of leading calls that fail
	text  string
}

func (f *fakeFetcher) Raw(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.fail {
		return "", errors.New("502 bad gateway")
	}
	return f.text, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func item(path, title string) writeup.Item {
	return writeup.Item{
		Path:     path,
		Name:     path,
		Title:    title,
		Category: "Web",
		Badge:    writeup.BadgeWeb,
		Size:     1024,
		RawURL:   "https://raw.githubusercontent.com/o/r/main/" + path,
		HTMLURL:  "https://github.com/o/r/blob/main/" + path,
	}
}

func keyMsg(key string) tea.KeyPressMsg {
	switch key {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "ctrl+c":
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	default:
		if len(key) == 1 {
			r := rune(key[0])
			return tea.KeyPressMsg{Code: r, Text: key}
		}
		return tea.KeyPressMsg{}
	}
}

type fixture struct {
	m       *Model
	session *session.Session
	crawler *fakeCrawler
	cache   *fakeCache
	fetcher *fakeFetcher
	copied  []string
}

func newFixture(t *testing.T, crawler *fakeCrawler, seed ...writeup.Item) *fixture {
	t.Helper()

	f := &fixture{
		session: session.New(),
		crawler: crawler,
		cache:   &fakeCache{},
		fetcher: &fakeFetcher{text: "# Title\n\nbody text\n"},
	}
	if crawler == nil {
		f.crawler = blockingCrawler()
	}
	f.session.Seed(seed)

	f.m = New(context.Background(), Config{
		Session: f.session,
		Crawler: f.crawler,
		Cache:   f.cache,
		Loader:  content.NewLoader(f.fetcher),
		Repo:    "o/r",
		Copy: func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
	})
	f.m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	t.Cleanup(f.m.Close)
	return f
}

// press sends a key and returns the resulting command.
func (f *fixture) press(key string) tea.Cmd {
	_, cmd := f.m.Update(keyMsg(key))
	return cmd
}

// run executes cmd and feeds every message it produces back into the
// model until no work is left. Spinner ticks are dropped.
func (f *fixture) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := f.m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (f *fixture) view() string {
	return ansi.Strip(f.m.screen())
}

func visiblePaths(m *Model) []string {
	out := make([]string, len(m.visible))
	for i, it := range m.visible {
		out[i] = it.Path
	}
	return out
}

func TestInit_CrawlFillsListAndCache(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{run: func(_ context.Context, _ int, emit func(collector.Event)) (*collector.Result, error) {
		a, b := item("web/a.md", "alpha"), item("web/b.md", "beta")
		emit(collector.Event{Kind: collector.Batch, Dir: "web", Items: []writeup.Item{a}})
		return &collector.Result{Items: []writeup.Item{a, b}}, nil
	}}
	f := newFixture(t, crawler)

	f.run(f.m.Init())

	assert.Equal(t, []string{"web/a.md", "web/b.md"}, visiblePaths(f.m))
	assert.False(t, f.m.state.Busy())
	require.Len(t, f.cache.writes, 1)
	assert.Len(t, f.cache.writes[0], 2)

	v := f.view()
	assert.Contains(t, v, "Writeups")
	assert.Contains(t, v, "2 files")
	assert.Contains(t, v, "alpha")
}

func TestInit_SeededShowsRefreshing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, item("web/a.md", "alpha"))
	f.m.Init()

	assert.True(t, f.m.state.Refreshing)
	assert.Contains(t, f.view(), "Refreshing...")
	assert.Contains(t, f.view(), "alpha")
}

func TestStaleGenerationIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.m.Init()
	f.press("R")

	f.m.Update(batchMsg{gen: 1, items: []writeup.Item{item("web/old.md", "old")}})
	f.m.Update(doneMsg{gen: 1, result: &collector.Result{Items: []writeup.Item{item("web/old.md", "old")}}})
	assert.Empty(t, f.m.visible)
	assert.Empty(t, f.cache.writes)

	f.m.Update(batchMsg{gen: 2, items: []writeup.Item{item("web/new.md", "new")}})
	assert.Equal(t, []string{"web/new.md"}, visiblePaths(f.m))
}

func TestRootFailure_WithoutCacheShowsRetry(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{run: func(_ context.Context, call int, _ func(collector.Event)) (*collector.Result, error) {
		if call == 1 {
			return nil, errors.New("403 rate limited")
		}
		return &collector.Result{Items: []writeup.Item{item("web/a.md", "alpha")}}, nil
	}}
	f := newFixture(t, crawler)

	f.run(f.m.Init())
	require.Error(t, f.m.state.Err)
	v := f.view()
	assert.Contains(t, v, "Failed to load writeups: 403 rate limited")
	assert.Contains(t, v, "press r to retry")

	f.run(f.press("r"))
	assert.NoError(t, f.m.state.Err)
	assert.Equal(t, []string{"web/a.md"}, visiblePaths(f.m))
	assert.Equal(t, 2, crawler.calls)
}

func TestRootFailure_WithCacheKeepsList(t *testing.T) {
	t.Parallel()

	crawler := &fakeCrawler{run: func(context.Context, int, func(collector.Event)) (*collector.Result, error) {
		return nil, errors.New("network down")
	}}
	f := newFixture(t, crawler, item("web/a.md", "alpha"))

	f.run(f.m.Init())

	assert.NoError(t, f.m.state.Err)
	assert.Equal(t, []string{"web/a.md"}, visiblePaths(f.m))
	assert.NotContains(t, f.view(), "Failed to load writeups")
	assert.Empty(t, f.cache.writes)
}

func TestRetryIgnoredWithoutError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, item("web/a.md", "alpha"))
	assert.Nil(t, f.press("r"))
	assert.Equal(t, 0, f.crawler.calls)
}

func TestOpen_LoadsOnceThenFromMemory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, item("web/a.md", "alpha"))

	f.run(f.press("enter"))
	require.Equal(t, session.ViewerReady, f.m.viewer.State())
	assert.Equal(t, 1, f.fetcher.Calls())
	assert.Contains(t, f.view(), "body text")

	f.press("esc")
	assert.False(t, f.m.viewer.IsOpen())

	cmd := f.press("enter")
	assert.Nil(t, cmd, "memoised document must not issue a fetch")
	assert.Equal(t, session.ViewerReady, f.m.viewer.State())
	assert.Equal(t, 1, f.fetcher.Calls())
}

func TestOpen_ErrorThenRetry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, item("web/a.md", "alpha"))
	f.fetcher.fail = 1

	f.run(f.press("enter"))
	require.Equal(t, session.ViewerError, f.m.viewer.State())
	assert.Contains(t, f.view(), "Failed to load document: 502 bad gateway")

	f.run(f.press("r"))
	assert.Equal(t, session.ViewerReady, f.m.viewer.State())
	assert.Equal(t, 2, f.fetcher.Calls())
}

func TestClose_DropsLateContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, item("web/a.md", "alpha"))

	cmd := f.press("enter")
	require.NotNil(t, cmd)
	require.Equal(t, session.ViewerLoading, f.m.viewer.State())
	f.press("esc")

	f.m.Update(contentMsg{id: 1, text: "late"})
	assert.False(t, f.m.viewer.IsOpen())
	assert.NotContains(t, f.view(), "late")
}

func TestClose_RestoresCursor(t *testing.T) {
	t.Parallel()

	var items []writeup.Item
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		items = append(items, item("web/"+p+".md", p))
	}
	f := newFixture(t, nil, items...)

	f.press("j")
	f.press("j")
	f.press("j")
	require.Equal(t, 3, f.m.cursor)

	f.run(f.press("enter"))
	assert.Equal(t, "web/d.md", f.m.viewer.Item().Path)

	f.press("q")
	assert.False(t, f.m.viewer.IsOpen(), "q closes the viewer before quitting")
	assert.Equal(t, 3, f.m.cursor)
	sel, ok := f.m.Selected()
	require.True(t, ok)
	assert.Equal(t, "web/d.md", sel.Path)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil,
		item("web/sqli.md", "sql injection"),
		item("web/xss.md", "xss reflected"),
		item("web/ssrf.md", "ssrf"),
	)

	f.press("/")
	require.True(t, f.m.filtering)
	for _, k := range []string{"x", "s", "s"} {
		f.press(k)
	}
	assert.Equal(t, []string{"web/xss.md"}, visiblePaths(f.m))

	f.press("enter")
	assert.False(t, f.m.filtering)
	assert.Equal(t, "xss", f.m.filter.Value(), "enter keeps the query")

	f.press("esc")
	assert.Len(t, f.m.visible, 3)
}

func TestBadgeCycle(t *testing.T) {
	t.Parallel()

	htb := item("htb/box.md", "box")
	htb.Category, htb.Badge = "HTB", writeup.BadgeHTB
	f := newFixture(t, nil, item("web/a.md", "alpha"), htb)

	f.press("b")
	assert.Equal(t, []string{"htb/box.md"}, visiblePaths(f.m))
	assert.Contains(t, f.view(), "only HTB")

	f.press("b")
	assert.Equal(t, []string{"web/a.md"}, visiblePaths(f.m))

	f.press("b")
	assert.Len(t, f.m.visible, 2)
}

func TestCopyRawURL(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, item("web/a.md", "alpha"))

	f.run(f.press("y"))

	assert.Equal(t, []string{"https://raw.githubusercontent.com/o/r/main/web/a.md"}, f.copied)
	assert.Contains(t, f.view(), "Copied raw URL")
}

func TestQuit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.m.Init()

	cmd := f.press("q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, f.m.cfg.Session.Snapshot().Busy(), "quitting cancels the crawl")
}

func TestLastOpenedRestoresCursor(t *testing.T) {
	sess := session.New()
	sess.Seed([]writeup.Item{item("web/a.md", "A"), item("web/b.md", "B")})

	var opened []string
	m := New(context.Background(), Config{
		Session:    sess,
		Crawler:    blockingCrawler(),
		Cache:      &fakeCache{},
		Loader:     content.NewLoader(&fakeFetcher{text: "# B\n"}),
		LastOpened: "web/c.md",
		OnOpen:     func(it writeup.Item) { opened = append(opened, it.Path) },
	})
	t.Cleanup(m.Close)
	f := &fixture{m: m, session: sess}

	// not listed yet; the cursor waits for it
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "web/a.md", sel.Path)

	m.Init()
	gen := sess.Snapshot().Generation
	m.Update(batchMsg{gen: gen, items: []writeup.Item{item("web/c.md", "C")}})
	sel, _ = m.Selected()
	assert.Equal(t, "web/c.md", sel.Path)

	f.run(f.press("enter"))
	assert.Equal(t, []string{"web/c.md"}, opened)
}

func TestLastOpenedDroppedAfterMove(t *testing.T) {
	sess := session.New()
	sess.Seed([]writeup.Item{item("web/a.md", "A"), item("web/b.md", "B")})

	m := New(context.Background(), Config{
		Session:    sess,
		Crawler:    blockingCrawler(),
		Cache:      &fakeCache{},
		Loader:     content.NewLoader(&fakeFetcher{}),
		LastOpened: "web/c.md",
	})
	t.Cleanup(m.Close)

	m.Init()
	m.Update(keyMsg("down"))
	m.Update(batchMsg{gen: sess.Snapshot().Generation, items: []writeup.Item{item("web/c.md", "C")}})

	sel, _ := m.Selected()
	assert.Equal(t, "web/b.md", sel.Path)
}
