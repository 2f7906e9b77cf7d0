package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/log"
	"github.com/raphi011/wu/internal/output"
	"github.com/raphi011/wu/internal/ui/styles"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	logFile string
)

// Command group IDs for organizing help output
const (
	GroupCore   = "core"
	GroupConfig = "config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wu",
	Short: "Browse security writeups stored in a GitHub repository",
	Long: `wu crawls a GitHub repository of markdown writeups and lets you
browse, filter and read them in the terminal or a browser.

Run without a command in a terminal to open the interactive browser.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2, // Enable typo suggestions
	Args:                       cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet are mutually exclusive")
		}

		// Create logger (stderr for diagnostics) now that flags are parsed
		ctx := log.WithLogger(cmd.Context(), log.New(os.Stderr, verbose, quiet))
		cmd.SetContext(ctx)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			return cmd.Help()
		}
		return runBrowse(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: .env: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	styles.Init(cfg.Theme)

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Add output printer (stdout for primary data)
	ctx = output.WithPrinter(ctx, os.Stdout)
	ctx = config.WithConfig(ctx, cfg)

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'wu -h' for help")
		os.Exit(1)
	}
}

// loadConfig layers the config file, a .wu.toml in the working directory
// and environment overrides. On error the best config so far is returned.
func loadConfig() (*config.Config, error) {
	loaded, err := config.Load()
	cfg := &loaded
	if err != nil {
		return cfg, err
	}

	if wd, err := os.Getwd(); err == nil {
		local, err := config.LoadLocal(wd)
		if err != nil {
			return cfg, err
		}
		merged, err := config.MergeLocal(cfg, local)
		if err != nil {
			return cfg, err
		}
		cfg = merged
	}

	withEnv, err := config.ApplyEnv(cfg, os.Getenv)
	if err != nil {
		return cfg, err
	}
	return withEnv, nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and crawl details to stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs of the interactive browser to this file")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Version flag
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Core commands
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newServeCmd())

	// Config commands
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newConfigCmd())
}
