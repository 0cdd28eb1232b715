package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"imgoptim/internal/config"
	"imgoptim/internal/options"
	"imgoptim/internal/tui"
	"imgoptim/internal/worker"
)

// version is overridden at build time with -ldflags "-X imgoptim/cmd.version=...".
var version = "dev"

// NewRootCommand builds the imgoptim command with one flag per worker option.
func NewRootCommand() (*cobra.Command, error) {
	catalog := worker.Catalog()
	surface, err := options.Build(catalog)
	if err != nil {
		return nil, err
	}

	cli := config.New()
	var configPaths []string

	rootCmd := &cobra.Command{
		Use:   "imgoptim [flags] PATH...",
		Short: "imgoptim - optimize images in place",
		Long: "imgoptim runs every available optimizer over JPEG, PNG, GIF and SVG files, " +
			"keeps the smallest result and replaces the original with it.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, runConfig{
				cli:         cli,
				catalog:     catalog,
				configPaths: configPaths,
				explicit:    cmd.Flags().Changed("config-paths"),
			})
		},
	}
	rootCmd.SetVersionTemplate("imgoptim {{.Version}}\n")
	// Usage is printed for flag errors only.
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.SilenceUsage = false
		return err
	})

	flags := rootCmd.Flags()
	flags.SortFlags = false
	flags.StringSliceVarP(&configPaths, "config-paths", "c", nil, "config file paths to use instead of the default ones")
	surface.Bind(flags, cli)

	return rootCmd, nil
}

func Execute(ctx context.Context) {
	rootCmd, err := NewRootCommand()
	if err != nil {
		tui.PrintError(os.Stderr, err)
		os.Exit(1)
	}
	if err := executeArgs(ctx, rootCmd, os.Args[1:]); err != nil {
		tui.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// executeArgs runs rootCmd on args once alias shorthands such as -R are
// expanded.
func executeArgs(ctx context.Context, rootCmd *cobra.Command, args []string) error {
	rootCmd.SetArgs(options.ExpandAliases(rootCmd.Flags(), args))
	return rootCmd.ExecuteContext(ctx)
}
