package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
)

type Command struct {
	WorkDir    string
	Executable string
	Args       []string
	// Verbose streams output to the terminal in addition to capturing it.
	Verbose bool
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Executable}, c.Args...), " ")
}

type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

type Runner interface {
	Execute(ctx context.Context, command Command) (Result, error)
}

func NewCommandRunner(logger applogger.Logger) Runner {
	return &runner{
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

type runner struct {
	logger applogger.Logger
	stdout io.Writer
	stderr io.Writer
}

func (r runner) Execute(ctx context.Context, command Command) (Result, error) {
	if command.Executable == "" {
		return Result{}, errors.New("command executable can not be empty")
	}
	// nolint:gosec
	cmd := exec.CommandContext(ctx, command.Executable, command.Args...)
	cmd.Dir = command.WorkDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if command.Verbose {
		cmd.Stdout = io.MultiWriter(r.stdout, &stdout)
		cmd.Stderr = io.MultiWriter(r.stderr, &stderr)
	}
	r.logger.Debug(fmt.Sprintf("$ %v (in %v)", command, workDirOrDot(command.WorkDir)))

	err := cmd.Run()
	result := Result{
		ExitCode: exitCode(err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		if output := strings.TrimSpace(result.Stderr); output != "" {
			return result, fmt.Errorf("%v: %w: %v", command, err, output)
		}
		return result, fmt.Errorf("%v: %w", command, err)
	}
	return result, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}

func workDirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
