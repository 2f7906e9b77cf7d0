package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphi011/wu/internal/collector"
	"github.com/raphi011/wu/internal/content"
	"github.com/raphi011/wu/internal/github"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/session"
	"github.com/raphi011/wu/internal/writeup"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeCrawler struct {
	items []writeup.Item
	err   error
}

func (f *fakeCrawler) Run(ctx context.Context, emit func(collector.Event)) (*collector.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	emit(collector.Event{Kind: collector.Batch, Items: f.items})
	return &collector.Result{Items: f.items}, nil
}

type fakeCache struct {
	mu     sync.Mutex
	writes int
}

func (c *fakeCache) Write(context.Context, []writeup.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (f *fakeFetcher) Raw(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

func webItem(path, title string) writeup.Item {
	return writeup.Item{
		Path: path, Name: path, Title: title,
		Category: "Web", Badge: writeup.BadgeWeb, Size: 2048,
		RawURL:  "https://raw.githubusercontent.com/o/r/main/" + path,
		HTMLURL: "https://github.com/o/r/blob/main/" + path,
	}
}

func htbItem(path, title string) writeup.Item {
	it := webItem(path, title)
	it.Category, it.Badge = "HTB", writeup.BadgeHTB
	return it
}

type fixture struct {
	srv     *Server
	session *session.Session
	crawler *fakeCrawler
	cache   *fakeCache
	fetcher *fakeFetcher
}

func newFixture(t *testing.T, seed ...writeup.Item) *fixture {
	t.Helper()

	f := &fixture{
		session: session.New(),
		crawler: &fakeCrawler{},
		cache:   &fakeCache{},
		fetcher: &fakeFetcher{text: "# Reflected XSS\n\n```go\nfmt.Println(1)\n```\n"},
	}
	f.session.Seed(seed)

	srv, err := New(context.Background(), Config{
		Session: f.session,
		Crawler: f.crawler,
		Cache:   f.cache,
		Loader:  content.NewLoader(f.fetcher),
		Repo:    "o/r",
	})
	require.NoError(t, err)
	f.srv = srv
	t.Cleanup(f.session.Cancel)
	return f
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","items":0,"documents":0}`, rec.Body.String())
}

func TestHealth_CountsDocuments(t *testing.T) {
	t.Parallel()

	f := newFixture(t, webItem("web/xss.md", "xss"), htbItem("htb/box.md", "box"))
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/writeups/web/xss.md").Code)

	rec := f.do(t, http.MethodGet, "/healthz")
	assert.JSONEq(t, `{"status":"ok","items":2,"documents":1}`, rec.Body.String())
}

func TestListWriteups(t *testing.T) {
	t.Parallel()

	f := newFixture(t, webItem("web/xss.md", "xss"), htbItem("htb/box.md", "box"))

	tests := []struct {
		name   string
		target string
		status int
		paths  []string
	}{
		{"all", "/api/writeups", http.StatusOK, []string{"htb/box.md", "web/xss.md"}},
		{"by badge", "/api/writeups?badge=htb", http.StatusOK, []string{"htb/box.md"}},
		{"by category", "/api/writeups?category=web", http.StatusOK, []string{"web/xss.md"}},
		{"no match", "/api/writeups?category=pwn", http.StatusOK, []string{}},
		{"bad badge", "/api/writeups?badge=ctf", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := f.do(t, http.MethodGet, tt.target)
			require.Equal(t, tt.status, rec.Code)
			if tt.paths == nil {
				return
			}

			var resp listResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			got := make([]string, 0, len(resp.Items))
			for _, it := range resp.Items {
				got = append(got, it.Path)
			}
			assert.Equal(t, tt.paths, got)
			assert.False(t, resp.Loading)
		})
	}
}

func TestListWriteups_EmptyIsArray(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/writeups")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	f := newFixture(t, webItem("web/xss.md", "xss"), webItem("web/sqli.md", "sqli"), htbItem("htb/box.md", "box"))
	rec := f.do(t, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := document(t, rec)

	var categories []string
	doc.Find("section.category h2").Each(func(_ int, s *goquery.Selection) {
		categories = append(categories, s.Text())
	})
	assert.Equal(t, []string{"HTB", "Web"}, categories)
	assert.Equal(t, 3, doc.Find("li.writeup").Length())

	counts := doc.Find("#counts").Text()
	assert.Contains(t, counts, "HTB 1")
	assert.Contains(t, counts, "Web 2")
	assert.Contains(t, counts, "3 files")

	href, ok := doc.Find(`li.writeup[data-path="web/xss.md"] a`).Attr("href")
	require.True(t, ok)
	assert.Equal(t, "/writeups/web/xss.md", href)
	assert.Zero(t, doc.Find("#error").Length())
}

func TestIndex_RootFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, gen := f.session.Begin(context.Background())
	f.session.Finish(gen, nil, nil, errors.New("GitHub API error (403)"))

	doc := document(t, f.do(t, http.MethodGet, "/"))

	assert.Equal(t, "Failed to load writeups: GitHub API error (403)", doc.Find("#error").Text())
	assert.Equal(t, 1, doc.Find(`form[action="/api/refresh"]`).Length())
}

func TestWriteup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, webItem("web/xss.md", "xss"))

	rec := f.do(t, http.MethodGet, "/writeups/web/xss.md")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := document(t, rec)
	assert.Equal(t, "Reflected XSS", doc.Find("#document h1").Text())
	assert.Equal(t, 1, doc.Find(`#document .code-block[data-language="go"]`).Length())
	raw, _ := doc.Find("#raw").Attr("href")
	assert.Equal(t, "https://raw.githubusercontent.com/o/r/main/web/xss.md", raw)
	assert.Contains(t, doc.Find("style").Text(), ".chroma")

	rec = f.do(t, http.MethodGet, "/writeups/web/xss.md")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.fetcher.calls, "document must be fetched once")
}

func TestWriteup_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target string
		status int
	}{
		{"unknown path", nil, "/writeups/web/nope.md", http.StatusNotFound},
		{"raw 404", &github.RemoteError{Status: 404, Raw: true}, "/writeups/web/xss.md", http.StatusNotFound},
		{"raw 500", &github.RemoteError{Status: 500, Raw: true}, "/writeups/web/xss.md", http.StatusBadGateway},
		{"network", &github.FetchError{URL: "u", Err: errors.New("reset")}, "/writeups/web/xss.md", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, webItem("web/xss.md", "xss"))
			f.fetcher.err = tt.err

			rec := f.do(t, http.MethodGet, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, strings.TrimSpace(document(t, rec).Find("#error").Text()))
		})
	}
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.crawler.items = []writeup.Item{webItem("web/xss.md", "xss")}

	rec := f.do(t, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"generation":1}`, rec.Body.String())

	require.Eventually(t, func() bool {
		return !f.session.Snapshot().Busy()
	}, time.Second, 5*time.Millisecond)

	var resp listResponse
	require.NoError(t, json.Unmarshal(f.do(t, http.MethodGet, "/api/writeups").Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "web/xss.md", resp.Items[0].Path)

	require.Eventually(t, func() bool {
		f.cache.mu.Lock()
		defer f.cache.mu.Unlock()
		return f.cache.writes == 1
	}, time.Second, 5*time.Millisecond)
}

// lockedBuffer is a log sink safe for the crawl goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// blockingCrawler runs until cancelled and ends like the collector does.
type blockingCrawler struct {
	stopped atomic.Int32
}

func (b *blockingCrawler) Run(ctx context.Context, _ func(collector.Event)) (*collector.Result, error) {
	<-ctx.Done()
	b.stopped.Add(1)
	return nil, github.ErrCancelled
}

func TestRefresh_SupersededCrawlIsNotLogged(t *testing.T) {
	t.Parallel()

	var logs lockedBuffer
	ctx := log.WithLogger(context.Background(), log.New(&logs, false, false))
	sess := session.New()
	crawler := &blockingCrawler{}

	srv, err := New(ctx, Config{
		Session: sess,
		Crawler: crawler,
		Cache:   &fakeCache{},
		Loader:  content.NewLoader(&fakeFetcher{}),
		Repo:    "o/r",
	})
	require.NoError(t, err)

	srv.Refresh()
	srv.Refresh() // supersedes the first
	sess.Cancel() // shutdown

	require.Eventually(t, func() bool { return crawler.stopped.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return logs.String() != "" }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestCrawlDone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, ""},
		{"cancelled request", github.ErrCancelled, ""},
		{"wrapped cancellation", fmt.Errorf("list web: %w", github.ErrCancelled), ""},
		{"context cancelled", context.Canceled, ""},
		{"remote failure", &github.RemoteError{Status: 500}, "crawl failed: GitHub API error (500)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logs lockedBuffer
			ctx := log.WithLogger(context.Background(), log.New(&logs, false, false))
			srv, err := New(ctx, Config{
				Session: session.New(),
				Crawler: &fakeCrawler{},
				Loader:  content.NewLoader(&fakeFetcher{}),
			})
			require.NoError(t, err)

			srv.crawlDone(tt.err)
			assert.Equal(t, tt.want, logs.String())
		})
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- f.srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
