package service

import (
	"context"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
)

type RepositoryProvider interface {
	Exist(repository model.Repository) (bool, error)
	Clone(ctx context.Context, repository model.Repository) error
	Fetch(ctx context.Context, repository model.Repository) error
	Checkout(ctx context.Context, repository model.Repository, branch string) error
	// CheckoutRemote creates a local branch tracking the remote branch of the same name.
	CheckoutRemote(ctx context.Context, repository model.Repository, branch string) error
	Pull(ctx context.Context, repository model.Repository, branch string) error
	Head(repository model.Repository) (model.RepositoryHead, error)
	RepositoryPath(repository model.Repository) string
}

type InitScriptCollector interface {
	// PurgeGenerated removes previously collected scripts and returns their names.
	PurgeGenerated() ([]string, error)
	// Collect copies at most one init script of the repository. ok reports whether a copy occurred.
	Collect(repositoryName, repositoryPath string, sequence int) (script model.InitScript, ok bool, err error)
}

type ImageEngine interface {
	Build(ctx context.Context, request model.ImageBuildRequest) error
}

type RepositoryPreparer interface {
	Prepare(ctx context.Context, repository model.Repository) model.RepositoryOutcome
}

type Preparation interface {
	Run(ctx context.Context) (model.PreparationReport, error)
}

type ImageBuilder interface {
	BuildBuilderImage(ctx context.Context, id model.ServiceID, image string) error
	BuildDeployImage(ctx context.Context, id model.ServiceID, image string) error
}

type Images interface {
	Build(ctx context.Context, stages model.Stages) error
}
