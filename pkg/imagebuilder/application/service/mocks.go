package service

import (
	"context"
	"fmt"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
)

// MockRepositoryProvider records calls as "op:repository[:branch]". Errors are keyed the same way.
type MockRepositoryProvider struct {
	Existing map[model.RepositoryID]bool
	Errors   map[string]error
	HeadErr  error
	Calls    []string
}

func (m *MockRepositoryProvider) call(op string, repository model.Repository, branch string) error {
	key := op + ":" + repository.ID
	if branch != "" {
		key += ":" + branch
	}
	m.Calls = append(m.Calls, key)
	if m.Errors == nil {
		return nil
	}
	return m.Errors[key]
}

func (m *MockRepositoryProvider) Exist(repository model.Repository) (bool, error) {
	err := m.call("exist", repository, "")
	return m.Existing[repository.ID], err
}

func (m *MockRepositoryProvider) Clone(_ context.Context, repository model.Repository) error {
	err := m.call("clone", repository, "")
	if err == nil {
		if m.Existing == nil {
			m.Existing = make(map[model.RepositoryID]bool)
		}
		m.Existing[repository.ID] = true
	}
	return err
}

func (m *MockRepositoryProvider) Fetch(_ context.Context, repository model.Repository) error {
	return m.call("fetch", repository, "")
}

func (m *MockRepositoryProvider) Checkout(_ context.Context, repository model.Repository, branch string) error {
	return m.call("checkout", repository, branch)
}

func (m *MockRepositoryProvider) CheckoutRemote(_ context.Context, repository model.Repository, branch string) error {
	return m.call("checkout-remote", repository, branch)
}

func (m *MockRepositoryProvider) Pull(_ context.Context, repository model.Repository, branch string) error {
	return m.call("pull", repository, branch)
}

func (m *MockRepositoryProvider) Head(repository model.Repository) (model.RepositoryHead, error) {
	if m.HeadErr != nil {
		return model.RepositoryHead{}, m.HeadErr
	}
	return model.RepositoryHead{Branch: "head-of-" + repository.ID, Commit: "0000"}, nil
}

func (m *MockRepositoryProvider) RepositoryPath(repository model.Repository) string {
	return "/workspace/" + repository.Path
}

// MockRepositoryPreparer returns the configured state per repository, Ready by default.
type MockRepositoryPreparer struct {
	States   map[model.RepositoryID]model.ReadinessState
	Prepared []model.RepositoryID
}

func (m *MockRepositoryPreparer) Prepare(_ context.Context, repository model.Repository) model.RepositoryOutcome {
	m.Prepared = append(m.Prepared, repository.ID)
	state, ok := m.States[repository.ID]
	if !ok {
		state = model.StateReady
	}
	outcome := model.RepositoryOutcome{
		Repository: repository,
		Path:       "/workspace/" + repository.Path,
		Branch:     repository.DefaultBranch,
		State:      state,
	}
	if state == model.StateFailed {
		outcome.Err = fmt.Errorf("%w: %v", model.ErrCloneFailed, repository.ID)
	}
	return outcome
}

// MockInitScriptCollector pretends that repositories named in Scripts hold an init script.
type MockInitScriptCollector struct {
	Scripts  map[string]bool
	Errors   map[string]error
	PurgeErr error
	Purges   int
	Copied   []model.InitScript
}

func (m *MockInitScriptCollector) PurgeGenerated() ([]string, error) {
	m.Purges++
	return nil, m.PurgeErr
}

func (m *MockInitScriptCollector) Collect(repositoryName, repositoryPath string, sequence int) (model.InitScript, bool, error) {
	if err := m.Errors[repositoryName]; err != nil {
		return model.InitScript{}, false, err
	}
	if !m.Scripts[repositoryName] {
		return model.InitScript{}, false, nil
	}
	script := model.InitScript{
		Sequence:       sequence,
		RepositoryName: repositoryName,
		Source:         repositoryPath + "/docker/init.sql",
		Destination:    model.InitScriptFileName(sequence, repositoryName),
	}
	m.Copied = append(m.Copied, script)
	return script, true, nil
}

type MockImageEngine struct {
	Requests []model.ImageBuildRequest
	Errors   map[string]error
}

func (m *MockImageEngine) Build(_ context.Context, request model.ImageBuildRequest) error {
	m.Requests = append(m.Requests, request)
	return m.Errors[request.Tag]
}

type MockPreparation struct {
	Report model.PreparationReport
	Err    error
	Runs   int
	// OnRun is invoked on every run, before the report is returned.
	OnRun func()
}

func (m *MockPreparation) Run(_ context.Context) (model.PreparationReport, error) {
	m.Runs++
	if m.OnRun != nil {
		m.OnRun()
	}
	return m.Report, m.Err
}

// MockImageBuilder records "builder:id:image" and "deploy:id:image" calls.
type MockImageBuilder struct {
	Calls  []string
	Errors map[string]error
}

func (m *MockImageBuilder) BuildBuilderImage(_ context.Context, id model.ServiceID, image string) error {
	key := "builder:" + id + ":" + image
	m.Calls = append(m.Calls, key)
	return m.Errors[key]
}

func (m *MockImageBuilder) BuildDeployImage(_ context.Context, id model.ServiceID, image string) error {
	key := "deploy:" + id + ":" + image
	m.Calls = append(m.Calls, key)
	return m.Errors[key]
}
