package command

import (
	"context"
	"strings"
)

// MockRunner records executed commands. Handler, when set, decides the outcome of each command.
type MockRunner struct {
	Commands []Command
	Handler  func(command Command) (Result, error)
}

func (m *MockRunner) Execute(_ context.Context, command Command) (Result, error) {
	m.Commands = append(m.Commands, command)
	if m.Handler == nil {
		return Result{}, nil
	}
	return m.Handler(command)
}

// Lines renders the recorded commands as "executable arg..." strings.
func (m *MockRunner) Lines() []string {
	lines := make([]string, 0, len(m.Commands))
	for _, command := range m.Commands {
		lines = append(lines, strings.Join(append([]string{command.Executable}, command.Args...), " "))
	}
	return lines
}
