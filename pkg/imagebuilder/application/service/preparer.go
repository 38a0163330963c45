package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
)

type LookupEnvFunc func(key string) (string, bool)

func NewRepositoryPreparer(
	logger applogger.Logger,
	repositoryProvider RepositoryProvider,
	lookupEnv LookupEnvFunc,
) RepositoryPreparer {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &repositoryPreparer{
		logger:             logger,
		repositoryProvider: repositoryProvider,
		lookupEnv:          lookupEnv,
	}
}

type repositoryPreparer struct {
	logger             applogger.Logger
	repositoryProvider RepositoryProvider
	lookupEnv          LookupEnvFunc
}

func (preparer repositoryPreparer) Prepare(ctx context.Context, repository model.Repository) model.RepositoryOutcome {
	preparer.logger.Info(fmt.Sprintf("processing \"%v\"...", repository.Name))
	start := time.Now()
	defer func() {
		preparer.logger.Info(fmt.Sprintf("done in %v", time.Since(start).String()))
	}()

	outcome := model.RepositoryOutcome{
		Repository: repository,
		Path:       preparer.repositoryProvider.RepositoryPath(repository),
		Branch:     preparer.targetBranch(repository),
		State:      model.StateAbsent,
	}
	fail := func(err error) model.RepositoryOutcome {
		outcome.State = model.StateFailed
		outcome.Err = err
		preparer.logger.Error(err, fmt.Sprintf("failed to prepare \"%v\"", repository.ID))
		return outcome
	}

	err := preparer.cloneIfNotExist(ctx, repository)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", model.ErrCloneFailed, err))
	}
	outcome.State = model.StateCloned

	err = preparer.repositoryProvider.Fetch(ctx, repository)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", model.ErrFetchFailed, err))
	}
	err = preparer.checkout(ctx, repository, outcome.Branch)
	if err != nil {
		return fail(err)
	}
	outcome.State = model.StateBranchSelected

	preparer.logger.Info(fmt.Sprintf("pull \"%v\" on branch \"%v\"", repository.ID, outcome.Branch))
	err = preparer.repositoryProvider.Pull(ctx, repository, outcome.Branch)
	if err != nil {
		warning := fmt.Errorf("%w: %w", model.ErrPullFailed, err)
		preparer.logger.Warning(warning, fmt.Sprintf("continue with current checkout of \"%v\"", repository.ID))
		outcome.Warnings = append(outcome.Warnings, warning)
	}
	outcome.State = model.StateSynchronized

	head, err := preparer.repositoryProvider.Head(repository)
	if err != nil {
		preparer.logger.Warning(err, fmt.Sprintf("failed to read head of \"%v\"", repository.ID))
		outcome.Warnings = append(outcome.Warnings, err)
	} else {
		outcome.Head = &head
	}
	outcome.State = model.StateReady
	preparer.logger.Info(fmt.Sprintf("ready \"%v\" on branch \"%v\"", repository.ID, outcome.Branch))
	return outcome
}

// targetBranch prefers a non-empty override variable over the default branch.
func (preparer repositoryPreparer) targetBranch(repository model.Repository) string {
	if repository.EnvVar != nil {
		if branch, ok := preparer.lookupEnv(*repository.EnvVar); ok && branch != "" {
			return branch
		}
	}
	return repository.DefaultBranch
}

func (preparer repositoryPreparer) checkout(ctx context.Context, repository model.Repository, branch string) error {
	if branch == "" || strings.HasPrefix(branch, "-") {
		return fmt.Errorf("%w: invalid branch name %q", model.ErrBranchResolutionFailed, branch)
	}
	preparer.logger.Info(fmt.Sprintf("checkout \"%v\" to branch \"%v\"...", repository.ID, branch))
	checkoutErr := preparer.repositoryProvider.Checkout(ctx, repository, branch)
	if checkoutErr == nil {
		return nil
	}
	preparer.logger.Warning(checkoutErr, fmt.Sprintf("could not checkout \"%v\", trying to create it from origin", branch))
	remoteErr := preparer.repositoryProvider.CheckoutRemote(ctx, repository, branch)
	if remoteErr == nil {
		return nil
	}
	return fmt.Errorf(
		"%w: branch %v does not exist locally or on the remote: %w",
		model.ErrBranchResolutionFailed, branch, errors.Join(checkoutErr, remoteErr),
	)
}

func (preparer repositoryPreparer) cloneIfNotExist(ctx context.Context, repository model.Repository) error {
	exist, err := preparer.repositoryProvider.Exist(repository)
	if err != nil {
		return err
	}
	if exist {
		preparer.logger.Info(fmt.Sprintf("repository exists at %v", repository.Path))
		return nil
	}
	preparer.logger.Info(fmt.Sprintf("cloning from %v...", repository.URL))
	return preparer.repositoryProvider.Clone(ctx, repository)
}
