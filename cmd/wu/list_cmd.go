package main

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/output"
	"github.com/raphi011/wu/internal/ui/static"
	"github.com/raphi011/wu/internal/writeup"
)

func newListCmd() *cobra.Command {
	var (
		jsonOutput bool
		refresh    bool
		badge      string
		category   string
		filter     string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List writeups",
		Aliases: []string{"ls"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `List every writeup in the repository.

The list comes from the local cache while it is fresh (see cache.ttl),
otherwise the repository is crawled. Writeups are sorted by category,
then title.`,
		Example: `  wu list                   # Table of all writeups
  wu list --badge htb       # Only Hack The Box machines
  wu list -c web -f xss     # Fuzzy filter titles within a category
  wu list --json            # Output as JSON
  wu list -R                # Ignore the cache and crawl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			var b writeup.Badge
			if badge != "" {
				var ok bool
				if b, ok = writeup.ParseBadge(badge); !ok {
					return fmt.Errorf("unknown badge %q: must be %q or %q", badge, writeup.BadgeHTB, writeup.BadgeWeb)
				}
			}

			a, err := newApp(ctx, config.FromContext(ctx))
			if err != nil {
				return err
			}
			defer a.Close()

			items, failed, err := a.writeups(ctx, refresh)
			if err != nil {
				return err
			}
			for _, dir := range failed {
				l.Printf("Warning: could not read %s\n", dir)
			}

			items = writeup.Filter(items, b, category)
			if filter != "" {
				items = fuzzyFilter(items, filter)
			}
			l.Debug("listing writeups", "items", len(items))

			if jsonOutput {
				if items == nil {
					items = []writeup.Item{}
				}
				return out.JSON(items)
			}

			if len(items) == 0 {
				out.Println("No writeups found")
				return nil
			}

			rows := make([][]string, len(items))
			for i, it := range items {
				rows[i] = static.WriteupTableRow(it, stdoutIsTerminal())
			}
			out.Print(static.RenderTable(static.WriteupTableHeaders, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&refresh, "refresh", "R", false, "Crawl even if the cache is fresh")
	cmd.Flags().StringVarP(&badge, "badge", "b", "", "Only show writeups with this badge (htb, web)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show writeups in this category")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Fuzzy filter titles")

	cmd.RegisterFlagCompletionFunc("badge", completeBadges)

	return cmd
}

// fuzzyFilter keeps items whose title matches query, best match first.
func fuzzyFilter(items []writeup.Item, query string) []writeup.Item {
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	matches := fuzzy.Find(query, titles)
	out := make([]writeup.Item, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}

func completeBadges(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"htb", "web"}, cobra.ShellCompDirectiveNoFileComp
}
