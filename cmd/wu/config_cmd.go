package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/raphi011/wu/internal/config"
	"github.com/raphi011/wu/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage wu configuration.

Global config: ~/.wu/config.toml (or $WU_CONFIG)
Local config:  .wu.toml (in the working directory)`,
		Example: `  wu config init          # Create default global config
  wu config init --local  # Create local config in this directory
  wu config show          # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Long: `Create default config file.

Without flags, creates global config at ~/.wu/config.toml.
With --local, creates .wu.toml in the working directory, which can point
wu at another repository.`,
		Example: `  wu config init           # Create global config
  wu config init --local   # Create local config
  wu config init -f        # Overwrite existing config
  wu config init -s        # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if local {
				return initLocalConfig(out, force, stdout)
			}

			if stdout {
				out.Print(config.DefaultConfig())
				return nil
			}
			path, err := config.Init(force)
			if err != nil {
				return fmt.Errorf("%w (use -f to overwrite)", err)
			}
			out.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")
	cmd.Flags().BoolVar(&local, "local", false, "Create .wu.toml in the working directory instead")

	return cmd
}

func initLocalConfig(out *output.Printer, force, stdout bool) error {
	content := config.DefaultLocalConfig()

	if stdout {
		out.Print(content)
		return nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	path := filepath.Join(wd, config.LocalConfigFileName)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("local config already exists: %s (use -f to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}

	out.Printf("Created local config: %s\n", path)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show effective configuration.

This is the global config merged with .wu.toml and environment overrides
(WU_OWNER, WU_REPO, WU_REF, WU_CACHE_BACKEND, WU_CACHE_TTL, PORT).
The token is never printed.`,
		Example: `  wu config show         # Show as TOML
  wu config show --json  # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			eff := *config.FromContext(ctx)
			if eff.Source.Token != "" {
				eff.Source.Token = "<redacted>"
			}

			if jsonOutput {
				return out.JSON(eff)
			}

			if path, err := config.Path(); err == nil {
				out.Printf("# %s\n", path)
			}
			return toml.NewEncoder(out.Writer()).Encode(eff)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
