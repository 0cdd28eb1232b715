package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"imgoptim/internal/config"
	"imgoptim/internal/engine"
)

// printConfiguration dumps the resolved settings and the enabled workers.
func printConfiguration(w io.Writer, s config.Settings, eng *engine.Engine) {
	if !isTerminal(w) {
		text.DisableColors()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("OPTION"), text.FgHiCyan.Sprint("VALUE")})
	t.AppendRows([]table.Row{
		{"recursive", s.Recursive},
		{"threads", limit(s.Threads, eng.Threads())},
		{"nice", limit(s.Nice, s.Niceness())},
		{"allow_lossy", s.AllowLossy},
		{"skip_missing_workers", s.SkipMissingWorkers},
		{"progress", s.Progress},
		{"decimal", s.Decimal},
		{"exclude_dir", strings.Join(s.ExcludeDirs, ",")},
		{"exclude_file", strings.Join(s.ExcludeFiles, ",")},
	})
	t.Render()

	workers := table.NewWriter()
	workers.SetOutputMirror(w)
	workers.SetStyle(table.StyleRounded)
	workers.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("WORKER"),
		text.FgHiCyan.Sprint("KIND"),
		text.FgHiCyan.Sprint("FORMATS"),
		text.FgHiCyan.Sprint("OPTIONS"),
	})
	for _, info := range eng.Workers() {
		formats := make([]string, 0, len(info.Formats))
		for _, k := range info.Formats {
			formats = append(formats, k.String())
		}
		kind := "built-in"
		if info.External {
			kind = "external"
		}
		workers.AppendRow(table.Row{info.Bin, kind, strings.Join(formats, ","), formatOptions(info.Options)})
	}
	workers.Render()
}

func limit(l config.Limit, effective int) string {
	if l.Off {
		return "off"
	}
	return fmt.Sprint(effective)
}

func formatOptions(opts map[string]any) string {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		value := opts[name]
		if list, ok := value.([]string); ok {
			value = "[" + strings.Join(list, ",") + "]"
		}
		parts = append(parts, fmt.Sprintf("%s=%v", name, value))
	}
	return strings.Join(parts, " ")
}
