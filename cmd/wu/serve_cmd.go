package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve writeups over HTTP",
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Serve an index of the writeups and rendered documents over HTTP.

The repository is crawled in the background on start; the index shows
cached writeups until the crawl completes. POST /api/refresh starts a new
crawl.

Endpoints:
  GET  /                 Index grouped by category
  GET  /writeups/<path>  Rendered document
  GET  /api/writeups     JSON list (?badge=, ?category=)
  POST /api/refresh      Crawl again
  GET  /healthz          Liveness`,
		Example: `  wu serve                  # Listen on server.addr
  wu serve --addr :9000     # Listen on all interfaces, port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if !verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if items, ok := a.store.Read(ctx); ok {
				a.session.Seed(items)
			}

			srv, err := server.New(ctx, server.Config{
				Session:   a.session,
				Crawler:   a.collector,
				Cache:     a.store,
				Loader:    a.loader,
				Repo:      a.repoLabel(),
				CodeStyle: cfg.Render.CodeStyle,
			})
			if err != nil {
				return err
			}

			srv.Refresh()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default server.addr)")

	return cmd
}
