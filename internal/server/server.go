// Package server serves the writeup index and rendered documents over HTTP.
//
// The server owns one session shared by every request. Crawls run in the
// background; handlers only read snapshots, so a request never waits for
// the index. Documents are fetched on first view and memoised.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/raphi011/wu/internal/content"
	"github.com/raphi011/wu/internal/github"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/render"
	"github.com/raphi011/wu/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config wires the server to its data sources.
type Config struct {
	Session *session.Session
	Crawler session.Crawler
	Cache   session.Cache
	Loader  *content.Loader

	// Repo is shown in page titles, e.g. "Is-Ammar/writeups".
	Repo string
	// CodeStyle is the chroma style for code blocks.
	CodeStyle string
}

// Server is the HTTP front end of a session.
type Server struct {
	ctx    context.Context
	cfg    Config
	engine *gin.Engine
	css    template.CSS
}

// New builds the gin engine. ctx bounds every background crawl the
// server starts and carries its logger.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.CodeStyle == "" {
		cfg.CodeStyle = render.DefaultCodeStyle
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	css, err := render.CodeCSS(cfg.CodeStyle)
	if err != nil {
		return nil, fmt.Errorf("code style %q: %w", cfg.CodeStyle, err)
	}

	s := &Server{ctx: ctx, cfg: cfg, css: template.CSS(css)}

	r := gin.New()
	r.Use(requestLogger(log.FromContext(ctx)), gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.GET("/healthz", s.health)
	r.GET("/writeups/*path", s.writeup)

	api := r.Group("/api")
	api.GET("/writeups", s.list)
	api.POST("/refresh", s.refresh)

	s.engine = r
	return s, nil
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Refresh starts a new crawl, superseding any running one, and returns
// its generation.
func (s *Server) Refresh() uint64 {
	return s.cfg.Session.Refresh(s.ctx, s.cfg.Crawler, s.cfg.Cache, s.crawlDone)
}

// crawlDone logs the end of a background crawl. Superseded and shut down
// crawls end cancelled and are not failures.
func (s *Server) crawlDone(err error) {
	logger := log.FromContext(s.ctx)
	switch {
	case err == nil:
		logger.Debug("crawl finished", "items", len(s.cfg.Session.Items()))
	case github.IsCancelled(err), errors.Is(err, context.Canceled):
		logger.Debug("crawl cancelled")
	default:
		logger.Printf("crawl failed: %v\n", err)
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	log.FromContext(ctx).Printf("Serving writeups on http://%s\n", ln.Addr())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request in verbose mode.
func requestLogger(l *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		done := l.Request(c.Request.Method, c.Request.URL.Path)
		c.Next()
		done(c.Writer.Status(), time.Since(start))
	}
}
