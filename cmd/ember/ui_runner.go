package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ember/internal/ast"
	"ember/internal/driver"
	"ember/internal/pipeline"
	"ember/internal/ui"
)

type genOutcome struct {
	result *driver.Result
	err    error
}

func runGenWithUI(ctx context.Context, title string, mods []*ast.Module, opts driver.Options) (*driver.Result, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan genOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = pipeline.ChannelSink{Ch: events}
		res, err := driver.Build(ctx, mods, optsCopy)
		outcomeCh <- genOutcome{result: res, err: err}
		close(events)
	}()

	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.Name
	}
	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
