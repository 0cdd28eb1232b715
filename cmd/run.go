package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"imgoptim/internal/config"
	"imgoptim/internal/engine"
	"imgoptim/internal/logger"
	"imgoptim/internal/runner"
	"imgoptim/internal/scanner"
	"imgoptim/internal/tui"
	"imgoptim/internal/worker"
	"imgoptim/pkg/sizefmt"
)

type runConfig struct {
	cli         *config.Config
	catalog     []worker.Descriptor
	configPaths []string
	// explicit is set when --config-paths replaced the default files.
	explicit bool
}

func run(cmd *cobra.Command, args []string, rc runConfig) error {
	paths, required := config.DefaultPaths(), false
	if rc.explicit {
		paths, required = rc.configPaths, true
	}
	cfg, err := config.Load(paths, required)
	if err != nil {
		return err
	}
	cfg.Merge(rc.cli)
	settings := cfg.Resolve()

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger.SetLogger(logger.New(stderr, settings.Verbose))

	formatter := sizefmt.Formatter{Decimal: settings.Decimal}
	if isTerminal(stdout) {
		formatter.Emphasis = tui.Emphasize
	}
	opts := runner.Options{
		NewEngine: func() (runner.Engine, error) {
			eng, err := engine.New(settings, rc.catalog, engine.Options{})
			if err != nil {
				return nil, err
			}
			if settings.Verbose {
				printConfiguration(stdout, settings, eng)
			}
			return eng, nil
		},
		Scan: scanner.Options{
			Recursive:    settings.Recursive,
			ExcludeDirs:  settings.ExcludeDirs,
			ExcludeFiles: settings.ExcludeFiles,
		},
		Formatter: formatter,
		Out:       stdout,
	}

	var bar *progress
	if settings.Progress && len(args) > 0 && isTerminal(stderr) {
		bar = newProgress(stderr, formatter)
		opts.Updates = bar.updates
		opts.Discovered = bar.discovered
	}

	summary, err := runner.Run(cmd.Context(), args, opts)
	if bar != nil {
		bar.wait()
	}
	if err != nil {
		return err
	}

	if bar != nil && summary.Files > 0 {
		fmt.Fprintln(stderr, tui.RenderSummary(summary, formatter))
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
