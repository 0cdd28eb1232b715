package options

import (
	"github.com/spf13/pflag"

	"imgoptim/internal/config"
)

// Bind registers the global flags and every generated flag on fs. Parsing
// fs then writes into cfg; flags are applied in command-line order, so
// later flags win.
func (s *Surface) Bind(fs *pflag.FlagSet, cfg *config.Config) {
	bindGlobals(fs, cfg)

	for _, spec := range s.Specs {
		if spec.Disables() {
			f := fs.VarPF(&disableValue{bin: spec.Worker, cfg: cfg}, spec.Name, "", spec.Help)
			f.NoOptDefVal = "true"
			continue
		}
		fs.Var(&optionValue{spec: spec, cfg: cfg}, spec.Name, spec.Help)
	}
}

func bindGlobals(fs *pflag.FlagSet, cfg *config.Config) {
	boolFlag(fs, &cfg.Recursive, false, "recursive", "r", "recurse over directories (-R works too)")

	fs.Var(&limitValue{target: &cfg.Threads}, "threads", "number of threads or disable (defaults to number of processors)")
	offFlag(fs, &cfg.Threads, "no-threads", "disable threads, optimize one file at a time")
	fs.Var(&limitValue{target: &cfg.Nice}, "nice", "nice level for external tools (defaults to 10)")
	offFlag(fs, &cfg.Nice, "no-nice", "run external tools without nice")

	boolFlag(fs, &cfg.AllowLossy, false, "allow-lossy", "", "allow lossy workers and optimizations")
	boolFlag(fs, &cfg.SkipMissingWorkers, false, "skip-missing-workers", "", "skip workers whose tool is not installed without a warning")
	boolFlag(fs, &cfg.Progress, true, "no-progress", "", "disable the progress bar")
	boolFlag(fs, &cfg.Decimal, false, "decimal", "", "use 1000 instead of 1024 as the size unit denominator")

	fs.Var(&globValue{targets: []*[]string{&cfg.ExcludeDirs}}, "exclude-dir", "skip directories matching GLOB when recursing (defaults to .*)")
	fs.Var(&globValue{targets: []*[]string{&cfg.ExcludeFiles}}, "exclude-file", "skip files matching GLOB when recursing (defaults to .*)")
	fs.Var(&globValue{targets: []*[]string{&cfg.ExcludeDirs, &cfg.ExcludeFiles}}, "exclude", "shortcut for --exclude-dir GLOB --exclude-file GLOB")

	boolFlag(fs, &cfg.Verbose, false, "verbose", "v", "print resolved configuration and debug output")
}

func boolFlag(fs *pflag.FlagSet, target **bool, invert bool, name, shorthand, usage string) *pflag.Flag {
	f := fs.VarPF(&boolValue{target: target, invert: invert}, name, shorthand, usage)
	f.NoOptDefVal = "true"
	return f
}

func offFlag(fs *pflag.FlagSet, target **config.Limit, name, usage string) {
	f := fs.VarPF(&offValue{target: target}, name, "", usage)
	f.NoOptDefVal = "true"
}
