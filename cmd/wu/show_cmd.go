package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/output"
	"github.com/raphi011/wu/internal/render"
	"github.com/raphi011/wu/internal/ui/styles"
)

func newShowCmd() *cobra.Command {
	var (
		html  bool
		raw   bool
		width int
	)

	cmd := &cobra.Command{
		Use:     "show [path]",
		Short:   "Render one writeup",
		Aliases: []string{"cat"},
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `Render one writeup to stdout.

The path is the file's path in the repository, as shown by wu list.
Without a path the last opened writeup is shown again.
Code blocks are syntax highlighted when stdout supports color.`,
		Example: `  wu show htb/machines/Sau.md          # Render for the terminal
  wu show                              # Reopen the last writeup
  wu show web/xss.md --raw             # Print the markdown source
  wu show web/xss.md --html > xss.html # Render as HTML`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			out := output.FromContext(ctx)

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var path string
			if len(args) > 0 {
				path = args[0]
			} else if path = a.lastOpened(ctx); path == "" {
				return fmt.Errorf("no writeup opened yet in %s, pass a path", a.repoLabel())
			}

			it, err := a.find(ctx, path)
			if err != nil {
				return err
			}
			text, err := a.loader.Load(ctx, it)
			if err != nil {
				return fmt.Errorf("load %s: %w", it.Path, err)
			}
			a.recordOpen(ctx, it.Path)

			switch {
			case raw:
				out.Print(text)
			case html:
				doc, err := render.HTML(text, render.WithCodeStyle(styles.CodeStyle(cfg.Render.CodeStyle)))
				if err != nil {
					return fmt.Errorf("render %s: %w", it.Path, err)
				}
				out.Print(doc)
			default:
				if width == 0 {
					width = cfg.Render.Width
				}
				if width == 0 {
					width = render.DefaultWidth
				}
				profile := colorprofile.Detect(out.Writer(), os.Environ())

				header := styles.Hyperlink(it.HTMLURL, styles.Bold.Render(it.Title))
				if badge := styles.FormatBadge(it.Badge); badge != "" {
					header = badge + " " + header
				}
				out.Println(header + " " + styles.MutedStyle.Render(it.Category))
				out.Println()
				out.Print(render.Terminal(text, width,
					render.WithCodeStyle(styles.CodeStyle(cfg.Render.CodeStyle)),
					render.WithProfile(profile),
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Render as HTML")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Wrap width (default render.width or 80)")
	cmd.MarkFlagsMutuallyExclusive("html", "raw")

	return cmd
}
