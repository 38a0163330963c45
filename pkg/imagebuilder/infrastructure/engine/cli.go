package engine

import (
	"context"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/service"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/command"
)

const (
	CLI = "cli"
	API = "api"
)

// NewCLIEngine builds images with the docker binary, streaming its output.
func NewCLIEngine(runner command.Runner) service.ImageEngine {
	return &cliEngine{runner: runner}
}

type cliEngine struct {
	runner command.Runner
}

func (e cliEngine) Build(ctx context.Context, request model.ImageBuildRequest) error {
	result, err := e.runner.Execute(ctx, command.Command{
		WorkDir:    request.ContextDir,
		Executable: "docker",
		Args:       []string{"build", "-f", request.DockerFile, "-t", request.Tag, "."},
		Verbose:    true,
	})
	if err != nil {
		return &model.BuildError{Image: request.Tag, Status: result.ExitCode, Err: err}
	}
	return nil
}
