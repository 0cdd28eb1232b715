package cmd

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"imgoptim/internal/runner"
	"imgoptim/internal/tui"
	"imgoptim/pkg/sizefmt"
)

// progress shows a spinner while files are discovered, then the progress
// bar until the runner closes updates.
type progress struct {
	out         io.Writer
	formatter   sizefmt.Formatter
	updates     chan runner.ProgressUpdate
	stopSpinner func()
	stopOnce    sync.Once
	done        chan struct{}
}

func newProgress(out io.Writer, formatter sizefmt.Formatter) *progress {
	return &progress{
		out:         out,
		formatter:   formatter,
		updates:     make(chan runner.ProgressUpdate, 64),
		stopSpinner: tui.StartSpinner(out, "Looking for images..."),
	}
}

func (p *progress) discovered(int) {
	p.stop()

	program := tea.NewProgram(tui.NewModel(p.updates, p.formatter), tea.WithOutput(p.out), tea.WithInput(nil))
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		_, _ = program.Run()
	}()
}

// wait blocks until the progress bar has drawn its last frame.
func (p *progress) wait() {
	p.stop()
	if p.done != nil {
		<-p.done
	}
}

func (p *progress) stop() {
	p.stopOnce.Do(p.stopSpinner)
}
