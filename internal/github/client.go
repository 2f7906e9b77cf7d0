package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raphi011/wu/internal/log"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	userAgent = "wu (writeups browser)"
)

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	TypeFile EntryType = "file"
	TypeDir  EntryType = "dir"
)

// Entry is one child of a directory listing. Only the fields wu uses are decoded.
type Entry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	SHA         string    `json:"sha"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	HTMLURL     string    `json:"html_url"`
	GitURL      string    `json:"git_url"`
	DownloadURL string    `json:"download_url"`
	Type        EntryType `json:"type"`
}

// Repo identifies the repository to browse.
type Repo struct {
	Owner string
	Name  string
	// Ref is an optional branch, tag or commit.
	Ref string
}

func (r Repo) String() string {
	if r.Ref != "" {
		return r.Owner + "/" + r.Name + "@" + r.Ref
	}
	return r.Owner + "/" + r.Name
}

// Client reads directory listings and raw files from GitHub.
type Client struct {
	repo   Repo
	apiURL string
	token  string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL points the client at another API root (GitHub Enterprise, tests).
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = strings.TrimRight(u, "/") }
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for repo.
func NewClient(repo Repo, opts ...Option) *Client {
	c := &Client{
		repo:   repo,
		apiURL: DefaultAPIURL,
		http:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repo returns the repository the client reads from.
func (c *Client) Repo() Repo {
	return c.repo
}

// ContentsURL builds the listing URL for path. Each segment is escaped on its own.
func (c *Client) ContentsURL(path string) string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, url.PathEscape(s))
		}
	}

	u := fmt.Sprintf("%s/repos/%s/%s/contents", c.apiURL, url.PathEscape(c.repo.Owner), url.PathEscape(c.repo.Name))
	if len(segs) > 0 {
		u += "/" + strings.Join(segs, "/")
	}
	if c.repo.Ref != "" {
		u += "?ref=" + url.QueryEscape(c.repo.Ref)
	}
	return u
}

// List returns the direct children of path ("" is the repository root).
// A response that is not a JSON array (e.g. path names a file) yields an
// empty listing.
func (c *Client) List(ctx context.Context, path string) ([]Entry, error) {
	u := c.ContentsURL(path)
	body, err := c.get(ctx, u, false)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", u, err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode listing %s: %w", u, err)
	}
	return entries, nil
}

// Raw fetches the text at rawURL.
func (c *Client) Raw(ctx context.Context, rawURL string) (string, error) {
	body, err := c.get(ctx, rawURL, true)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, u string, raw bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{URL: u, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	if !raw {
		req.Header.Set("Accept", "application/vnd.github+json")
	}
	if c.token != "" && c.sameHost(u) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	done := log.FromContext(ctx).Request(http.MethodGet, u)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		done(0, time.Since(start))
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ErrCancelled
		}
		return nil, &FetchError{URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	done(resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{URL: u, Status: resp.StatusCode, Raw: raw}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ErrCancelled
		}
		return nil, &FetchError{URL: u, Err: err}
	}
	return body, nil
}

// sameHost reports whether the token may be sent to u: only the API host
// and raw.githubusercontent.com receive it.
func (c *Client) sameHost(u string) bool {
	target, err := url.Parse(u)
	if err != nil {
		return false
	}
	api, err := url.Parse(c.apiURL)
	if err != nil {
		return false
	}
	return target.Host == api.Host || target.Host == "raw.githubusercontent.com"
}
