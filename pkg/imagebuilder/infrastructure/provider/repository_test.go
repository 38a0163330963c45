package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/command"
)

func testRepository() model.Repository {
	return model.Repository{
		ID:            "users",
		Name:          "users",
		URL:           "git@example.com:teapot/users.git",
		Path:          "repos/teapot-user-service",
		DefaultBranch: "main",
	}
}

func TestClone_CreatesParentAndClonesIntoBaseName(t *testing.T) {
	root := t.TempDir()
	runner := &command.MockRunner{}
	provider := NewRepositoryProvider(root, runner)

	err := provider.Clone(context.Background(), testRepository())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info, err := os.Stat(filepath.Join(root, "repos")); err != nil || !info.IsDir() {
		t.Fatalf("parent directory not created: %v", err)
	}
	if len(runner.Commands) != 1 {
		t.Fatalf("expected one command, got %v", runner.Lines())
	}
	cmd := runner.Commands[0]
	if cmd.WorkDir != filepath.Join(root, "repos") {
		t.Errorf("unexpected workdir %v", cmd.WorkDir)
	}
	if got := runner.Lines()[0]; got != "git clone git@example.com:teapot/users.git teapot-user-service" {
		t.Errorf("unexpected command %q", got)
	}
}

func TestGitCommands(t *testing.T) {
	root := t.TempDir()
	runner := &command.MockRunner{}
	provider := NewRepositoryProvider(root, runner)
	repository := testRepository()
	ctx := context.Background()

	if err := provider.Fetch(ctx, repository); err != nil {
		t.Fatal(err)
	}
	if err := provider.Checkout(ctx, repository, "release-1.2"); err != nil {
		t.Fatal(err)
	}
	if err := provider.CheckoutRemote(ctx, repository, "release-1.2"); err != nil {
		t.Fatal(err)
	}
	if err := provider.Pull(ctx, repository, "release-1.2"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"git fetch --all",
		"git checkout release-1.2",
		"git checkout -b release-1.2 origin/release-1.2",
		"git pull origin release-1.2",
	}
	got := runner.Lines()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d: expected %q, got %q", i, want[i], got[i])
		}
		if runner.Commands[i].WorkDir != filepath.Join(root, repository.Path) {
			t.Errorf("command %d: unexpected workdir %v", i, runner.Commands[i].WorkDir)
		}
	}
}

func TestCheckout_PropagatesRunnerError(t *testing.T) {
	runner := &command.MockRunner{Handler: func(command.Command) (command.Result, error) {
		return command.Result{ExitCode: 1}, errors.New("pathspec 'nope' did not match")
	}}
	provider := NewRepositoryProvider(t.TempDir(), runner)

	if err := provider.Checkout(context.Background(), testRepository(), "nope"); err == nil {
		t.Fatal("expected error")
	}
	if err := provider.Checkout(context.Background(), testRepository(), ""); err == nil {
		t.Fatal("expected error for empty branch")
	}
}

func TestExist(t *testing.T) {
	root := t.TempDir()
	provider := NewRepositoryProvider(root, &command.MockRunner{})
	repository := testRepository()

	exist, err := provider.Exist(repository)
	if err != nil || exist {
		t.Fatalf("expected missing repository, got %v %v", exist, err)
	}
	if err := os.MkdirAll(filepath.Join(root, repository.Path), 0o755); err != nil {
		t.Fatal(err)
	}
	exist, err = provider.Exist(repository)
	if err != nil || !exist {
		t.Fatalf("expected existing repository, got %v %v", exist, err)
	}
}

func TestRepositoryPath_Absolute(t *testing.T) {
	provider := NewRepositoryProvider("/root", &command.MockRunner{})
	repository := testRepository()
	repository.Path = "/srv/users"
	if got := provider.RepositoryPath(repository); got != "/srv/users" {
		t.Errorf("got %v", got)
	}
}

func TestHead_ReadsBranchAndCommit(t *testing.T) {
	root := t.TempDir()
	repository := testRepository()
	path := filepath.Join(root, repository.Path)

	repo, err := git.PlainInitWithOptions(path, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "init.sql"), []byte("select 1;"), 0o644); err != nil {
		t.Fatal(err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := worktree.Add("init.sql"); err != nil {
		t.Fatal(err)
	}
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	head, err := NewRepositoryProvider(root, &command.MockRunner{}).Head(repository)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if head.Commit != hash.String() {
		t.Errorf("expected commit %v, got %v", hash, head.Commit)
	}
	if head.Branch != "main" {
		t.Errorf("expected branch main, got %v", head.Branch)
	}
}

func TestHead_NotARepository(t *testing.T) {
	root := t.TempDir()
	repository := testRepository()
	if err := os.MkdirAll(filepath.Join(root, repository.Path), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRepositoryProvider(root, &command.MockRunner{}).Head(repository); err == nil {
		t.Fatal("expected error")
	}
}
