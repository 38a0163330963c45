package dependency

import (
	"context"
	"errors"
	"fmt"
	"os"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/service"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/builder"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/command"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/config/repositoryconfig"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/config/serviceconfig"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/engine"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/initscript"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/provider"
)

type dependencyContainer struct{}

type Container interface {
	Images(stages model.Stages) (service.Images, error)
	Preparation() (service.Preparation, error)
}

// NewDependencyContainer reads no registry up front, each service loads the files it needs.
func NewDependencyContainer(logger applogger.Logger, settings model.Settings) Container {
	return &container{
		logger:   logger,
		settings: settings,
		runner:   command.NewCommandRunner(logger),
	}
}

type container struct {
	logger   applogger.Logger
	settings model.Settings
	runner   command.Runner
}

// Images reads the images registry. The repository registry is read only when the selected
// stages build the deploy image of the SQL service, the one build that prepares repositories.
func (c *container) Images(stages model.Stages) (service.Images, error) {
	services, err := serviceconfig.Load(c.settings.Path(c.settings.ImagesFile))
	if err != nil {
		return nil, err
	}
	var repositories []model.Repository
	if stages.Deploys && requiresPreparation(services, c.settings.SQLService) {
		repositories, err = repositoryconfig.Load(c.settings.Path(c.settings.RepositoriesFile))
		if err != nil {
			return nil, err
		}
	}

	imageEngine, err := newEngine(c.settings.Engine, c.runner)
	if err != nil {
		return nil, err
	}
	imageBuilder := builder.NewImageBuilder(c.settings, c.logger, imageEngine, c.runner, c.newPreparation(repositories))
	return service.NewImagesService(services, c.logger, imageBuilder), nil
}

func (c *container) Preparation() (service.Preparation, error) {
	repositories, err := repositoryconfig.Load(c.settings.Path(c.settings.RepositoriesFile))
	if err != nil {
		return nil, err
	}
	return c.newPreparation(repositories), nil
}

func (c *container) newPreparation(repositories []model.Repository) service.Preparation {
	repositoryProvider := provider.NewRepositoryProvider(c.settings.RootDir, c.runner)
	preparer := service.NewRepositoryPreparer(c.logger, repositoryProvider, os.LookupEnv)
	collector := initscript.NewCollector(c.settings.Path(c.settings.InitScriptsDir), c.logger)
	return service.NewPreparationService(repositories, c.logger, preparer, collector)
}

func ContainerFromContext(ctx context.Context) (Container, error) {
	v := ctx.Value(dependencyContainer{})
	if c, ok := v.(Container); ok {
		return c, nil
	}
	return nil, errors.New("dependency container not found")
}

func ContainerToContext(ctx context.Context, c Container) context.Context {
	return context.WithValue(ctx, dependencyContainer{}, c)
}

func newEngine(name string, runner command.Runner) (service.ImageEngine, error) {
	switch name {
	case "", engine.CLI:
		return engine.NewCLIEngine(runner), nil
	case engine.API:
		return engine.NewAPIEngine(os.Stdout)
	}
	return nil, fmt.Errorf("unknown image engine %q, expected %v or %v", name, engine.CLI, engine.API)
}

func requiresPreparation(services []model.ServiceImage, sqlService model.ServiceID) bool {
	for _, s := range services {
		if s.ID == sqlService && s.DeployImage != nil {
			return true
		}
	}
	return false
}
