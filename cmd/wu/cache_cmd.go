package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/wu/internal/cache"
	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/output"
	"github.com/raphi011/wu/internal/ui/styles"
	"github.com/raphi011/wu/internal/writeup"
)

// cacheInfo is the JSON form of `wu cache show`.
type cacheInfo struct {
	Backend   string                `json:"backend"`
	Key       string                `json:"key"`
	Present   bool                  `json:"present"`
	WrittenAt *time.Time            `json:"written_at,omitempty"`
	Fresh     bool                  `json:"fresh"`
	TTL       string                `json:"ttl"`
	Items     int                   `json:"items"`
	Badges    map[writeup.Badge]int `json:"badges,omitempty"`
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Short:   "Inspect or clear the local writeup cache",
		GroupID: GroupConfig,
		Long: `Inspect or clear the cached writeup list.

The list is stored under ~/.wu (or $WU_HOME, or cache.dir) in a JSON file
or a SQLite database, depending on cache.backend.`,
	}

	cmd.AddCommand(newCacheShowCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the cached record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			dir, err := dataDir(cfg)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, dir)
			if err != nil {
				return err
			}
			defer store.Close()

			info := cacheInfo{
				Backend: cfg.Cache.Backend,
				Key:     cacheKey(cfg),
				TTL:     store.TTL().String(),
			}

			rec, err := store.Inspect()
			switch {
			case errors.Is(err, cache.ErrNotFound):
			case err != nil:
				return fmt.Errorf("read cache: %w", err)
			default:
				written := rec.WrittenAt()
				info.Present = true
				info.WrittenAt = &written
				info.Fresh = !rec.IsStale(time.Now(), store.TTL()) && len(rec.Items) > 0
				info.Items = len(rec.Items)
				info.Badges = writeup.Counts(rec.Items)
			}

			if jsonOutput {
				return out.JSON(info)
			}

			out.Printf("backend: %s\n", info.Backend)
			out.Printf("key:     %s\n", info.Key)
			if !info.Present {
				out.Println("record:  (none)")
				return nil
			}

			age := time.Since(*info.WrittenAt).Round(time.Second)
			state := styles.SuccessStyle.Render("fresh")
			if !info.Fresh {
				state = styles.WarningStyle.Render("expired")
			}
			out.Printf("written: %s (%s ago, %s, ttl %s)\n", info.WrittenAt.Format(time.DateTime), age, state, info.TTL)

			var counts []string
			for _, b := range writeup.Badges {
				if n := info.Badges[b]; n > 0 {
					counts = append(counts, styles.FormatBadgeCount(b, n))
				}
			}
			out.Printf("items:   %d %s\n", info.Items, strings.Join(counts, "  "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			dir, err := dataDir(cfg)
			if err != nil {
				return err
			}
			store, err := openStore(cfg, dir)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(); err != nil {
				if errors.Is(err, cache.ErrLocked) {
					return fmt.Errorf("clear cache: a crawl is writing it, try again: %w", err)
				}
				return fmt.Errorf("clear cache: %w", err)
			}
			output.FromContext(ctx).Println("Cache cleared")
			return nil
		},
	}
}
