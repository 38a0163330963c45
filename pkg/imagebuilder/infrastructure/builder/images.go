package builder

import (
	stdcontext "context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/service"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/command"
)

const (
	dockerFileExt = ".Dockerfile"
	tagSuffix     = ":latest"
)

func NewImageBuilder(
	settings model.Settings,
	logger applogger.Logger,
	engine service.ImageEngine,
	runner command.Runner,
	preparation service.Preparation,
) service.ImageBuilder {
	return &imageBuilder{
		settings:    settings,
		logger:      logger,
		engine:      engine,
		runner:      runner,
		preparation: preparation,
	}
}

type imageBuilder struct {
	settings model.Settings

	logger      applogger.Logger
	engine      service.ImageEngine
	runner      command.Runner
	preparation service.Preparation

	prepared       bool
	preparationErr error
}

func (builder *imageBuilder) BuildBuilderImage(ctx stdcontext.Context, id model.ServiceID, image string) error {
	dockerFile, ok := builder.dockerFile(id + "-builder")
	if !ok {
		builder.logger.Warning(model.ErrBuildFileMissing, fmt.Sprintf("skip builder image \"%v\", %v not found", id, dockerFile))
		return nil
	}
	return builder.build(ctx, id, builder.settings.RootDir, dockerFile, image)
}

func (builder *imageBuilder) BuildDeployImage(ctx stdcontext.Context, id model.ServiceID, image string) error {
	if id == builder.settings.SQLService {
		err := builder.prepareOnce(ctx)
		if err != nil {
			return err
		}
	}
	dockerFile, ok := builder.dockerFile(id)
	if !ok {
		builder.logger.Warning(model.ErrBuildFileMissing, fmt.Sprintf("skip deploy image \"%v\", %v not found", id, dockerFile))
		return nil
	}

	contextDir := builder.settings.RootDir
	if id == builder.settings.SourceService {
		contextDir = builder.settings.Path(builder.settings.SourceDir)
		builder.generateSources(ctx, id, contextDir)
	}
	return builder.build(ctx, id, contextDir, dockerFile, image)
}

// prepareOnce runs the repository preparation before the first SQL image build of a run.
func (builder *imageBuilder) prepareOnce(ctx stdcontext.Context) error {
	if builder.prepared {
		return builder.preparationErr
	}
	builder.prepared = true
	builder.logger.Info("preparing repositories and collecting SQL scripts...")
	report, err := builder.preparation.Run(ctx)
	if err == nil {
		err = report.Err()
	}
	builder.preparationErr = err
	return err
}

func (builder *imageBuilder) generateSources(ctx stdcontext.Context, id model.ServiceID, contextDir string) {
	generate := builder.settings.GenerateCommand
	if len(generate) == 0 {
		return
	}
	_, err := os.Stat(filepath.Join(contextDir, "Makefile"))
	if err != nil {
		return
	}
	builder.logger.Info(fmt.Sprintf("generating code for \"%v\"...", id))
	_, err = builder.runner.Execute(ctx, command.Command{
		WorkDir:    contextDir,
		Executable: generate[0],
		Args:       generate[1:],
		Verbose:    true,
	})
	if err != nil {
		builder.logger.Error(err, fmt.Sprintf("failed to generate code for \"%v\", building anyway", id))
	}
}

func (builder *imageBuilder) build(ctx stdcontext.Context, id model.ServiceID, contextDir, dockerFile, image string) error {
	rel, err := filepath.Rel(contextDir, dockerFile)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %v against build context %v", dockerFile, contextDir)
	}
	tag := image + tagSuffix
	builder.logger.Info(fmt.Sprintf("start build docker image \"%v\" for \"%v\"...", tag, id))
	start := time.Now()
	defer func() {
		builder.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()
	return builder.engine.Build(ctx, model.ImageBuildRequest{
		ContextDir: contextDir,
		DockerFile: rel,
		Tag:        tag,
	})
}

func (builder *imageBuilder) dockerFile(name string) (string, bool) {
	path := filepath.Join(builder.settings.Path(builder.settings.DockerDir), name+dockerFileExt)
	info, err := os.Stat(path)
	return path, err == nil && !info.IsDir()
}
