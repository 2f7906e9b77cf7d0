package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/ui/browser"
	"github.com/raphi011/wu/internal/ui/styles"
	"github.com/raphi011/wu/internal/writeup"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "browse",
		Short:   "Browse writeups interactively",
		Aliases: []string{"b"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Open the interactive writeup browser.

Cached writeups are shown immediately while the repository is crawled in
the background. Press / to filter, enter to read, b to cycle badges,
y to copy a raw URL and R to refresh. The cursor starts on the
last opened writeup.`,
		Example: `  wu browse                      # Open the browser
  wu browse --log-file wu.log -v # Keep request logs while browsing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd.Context())
		},
	}
}

func runBrowse(ctx context.Context) error {
	cfg := config.FromContext(ctx)

	// The TUI owns the terminal; logs go to --log-file or nowhere.
	var logOut io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	ctx = log.WithLogger(ctx, log.New(logOut, verbose, logFile == ""))

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if items, ok := a.store.Read(ctx); ok {
		a.session.Seed(items)
	}

	return browser.Run(ctx, browser.Config{
		Session:   a.session,
		Crawler:   a.collector,
		Cache:     a.store,
		Loader:    a.loader,
		Repo:      a.repoLabel(),
		CodeStyle: styles.CodeStyle(cfg.Render.CodeStyle),
		Width:     cfg.Render.Width,

		LastOpened: a.lastOpened(ctx),
		OnOpen: func(it writeup.Item) {
			a.recordOpen(ctx, it.Path)
		},
	})
}
