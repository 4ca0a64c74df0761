package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"flyc/internal/driver"
	"flyc/internal/ui"
)

type compileOutcome struct {
	results []*driver.Result
	err     error
}

// runWithUI compiles units while a progress display follows their phases
// on stderr.
func runWithUI(ctx context.Context, units []string, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan compileOutcome, 1)

	go func() {
		opts.PhaseObserver = func(ev driver.PhaseEvent) { events <- ev }
		res, err := driver.CompileFiles(ctx, units, opts)
		close(events)
		outcomeCh <- compileOutcome{results: res, err: err}
	}()

	title := fmt.Sprintf("compiling %d unit(s)", len(units))
	program := tea.NewProgram(ui.NewProgressModel(title, units, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// The program may stop early; keep the compiler from blocking on events.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
