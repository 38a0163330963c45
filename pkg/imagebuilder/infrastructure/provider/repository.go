package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/service"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/command"
)

const remote = "origin"

func NewRepositoryProvider(
	rootDir string,
	runner command.Runner,
) service.RepositoryProvider {
	return &repositoryProvider{
		rootDir: rootDir,
		runner:  runner,
	}
}

type repositoryProvider struct {
	rootDir string
	runner  command.Runner
}

func (provider repositoryProvider) Exist(repository model.Repository) (bool, error) {
	_, err := os.Stat(provider.RepositoryPath(repository))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Clone clones into the parent directory of the repository path, creating it when missing.
func (provider repositoryProvider) Clone(ctx context.Context, repository model.Repository) error {
	path := provider.RepositoryPath(repository)
	parentDir := filepath.Dir(path)
	err := os.MkdirAll(parentDir, 0o755)
	if err != nil {
		return errors.Wrapf(err, "failed to create directory %v", parentDir)
	}
	_, err = provider.runner.Execute(ctx, command.Command{
		WorkDir:    parentDir,
		Executable: "git",
		Args:       []string{"clone", repository.URL, filepath.Base(path)},
	})
	return errors.Wrapf(err, "failed to clone repository %v", repository.ID)
}

func (provider repositoryProvider) Fetch(ctx context.Context, repository model.Repository) error {
	_, err := provider.git(ctx, repository, "fetch", "--all")
	return errors.Wrapf(err, "failed to fetch repository %v", repository.ID)
}

func (provider repositoryProvider) Checkout(ctx context.Context, repository model.Repository, branch string) error {
	if branch == "" {
		return fmt.Errorf("branch for repository %v is empty", repository.ID)
	}
	_, err := provider.git(ctx, repository, "checkout", branch)
	return errors.Wrapf(err, "failed to checkout repository %v on branch %v", repository.ID, branch)
}

func (provider repositoryProvider) CheckoutRemote(ctx context.Context, repository model.Repository, branch string) error {
	if branch == "" {
		return fmt.Errorf("branch for repository %v is empty", repository.ID)
	}
	_, err := provider.git(ctx, repository, "checkout", "-b", branch, fmt.Sprintf("%v/%v", remote, branch))
	return errors.Wrapf(err, "failed to create branch %v of repository %v from %v", branch, repository.ID, remote)
}

func (provider repositoryProvider) Pull(ctx context.Context, repository model.Repository, branch string) error {
	_, err := provider.git(ctx, repository, "pull", remote, branch)
	return errors.Wrapf(err, "failed to pull repository %v on branch %v", repository.ID, branch)
}

func (provider repositoryProvider) Head(repository model.Repository) (model.RepositoryHead, error) {
	repo, err := git.PlainOpen(provider.RepositoryPath(repository))
	if err != nil {
		return model.RepositoryHead{}, errors.Wrapf(err, "failed to open repository %v", repository.ID)
	}
	ref, err := repo.Head()
	if err != nil {
		return model.RepositoryHead{}, errors.Wrapf(err, "failed to resolve head of repository %v", repository.ID)
	}
	head := model.RepositoryHead{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		head.Branch = ref.Name().Short()
	}
	return head, nil
}

func (provider repositoryProvider) RepositoryPath(repository model.Repository) string {
	if filepath.IsAbs(repository.Path) {
		return repository.Path
	}
	return filepath.Join(provider.rootDir, repository.Path)
}

func (provider repositoryProvider) git(ctx context.Context, repository model.Repository, args ...string) (command.Result, error) {
	return provider.runner.Execute(ctx, command.Command{
		WorkDir:    provider.RepositoryPath(repository),
		Executable: "git",
		Args:       args,
	})
}
