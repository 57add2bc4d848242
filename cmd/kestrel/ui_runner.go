package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"kestrel/internal/driver"
	"kestrel/internal/ui"
)

type buildOutcome struct {
	results []*driver.Result
	err     error
}

// progressEnabled maps --progress to a decision. "auto" shows progress for
// interactive stdout only.
func progressEnabled(mode string, quiet bool) (bool, error) {
	switch strings.ToLower(mode) {
	case "on", "always", "true":
		return true, nil
	case "off", "never", "false":
		return false, nil
	case "auto", "":
		return !quiet && isTerminal(os.Stdout), nil
	}
	return false, fmt.Errorf("invalid --progress value %q (expected auto|on|off)", mode)
}

// runBuildWithUI runs BuildAll while a Bubble Tea program renders the
// observer events. Any observer already in opts still receives them.
func runBuildWithUI(ctx context.Context, title string, files []string, jobs int, opts driver.Options) ([]*driver.Result, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan buildOutcome, 1)

	next := opts.Observer
	opts.Observer = func(ev driver.PhaseEvent) {
		if next != nil {
			next(ev)
		}
		events <- ev
	}
	go func() {
		res, err := driver.BuildAll(ctx, files, jobs, driver.StageAsm, opts)
		outcomeCh <- buildOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// после выхода из UI (ошибка или Ctrl+C) сборка не должна блокироваться
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
