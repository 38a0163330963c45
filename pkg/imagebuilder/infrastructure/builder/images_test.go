package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tss-calculator/go-lib/pkg/infrastructure/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/service"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/command"
)

type fixture struct {
	settings    model.Settings
	engine      *service.MockImageEngine
	runner      *command.MockRunner
	preparation *service.MockPreparation
	builder     service.ImageBuilder
}

func newFixture(t *testing.T, dockerFiles ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	settings := model.DefaultSettings(root)
	for _, name := range dockerFiles {
		touch(t, filepath.Join(root, "docker", name+".Dockerfile"))
	}
	f := &fixture{
		settings:    settings,
		engine:      &service.MockImageEngine{},
		runner:      &command.MockRunner{},
		preparation: &service.MockPreparation{},
	}
	f.builder = NewImageBuilder(settings, logger.NewTextLogger(), f.engine, f.runner, f.preparation)
	return f
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("FROM scratch\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildBuilderImage(t *testing.T) {
	f := newFixture(t, "tools-builder")

	if err := f.builder.BuildBuilderImage(context.Background(), "tools", "teapot/tools"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.engine.Requests) != 1 {
		t.Fatalf("expected one build, got %+v", f.engine.Requests)
	}
	want := model.ImageBuildRequest{
		ContextDir: f.settings.RootDir,
		DockerFile: filepath.Join("docker", "tools-builder.Dockerfile"),
		Tag:        "teapot/tools:latest",
	}
	if f.engine.Requests[0] != want {
		t.Errorf("expected %+v, got %+v", want, f.engine.Requests[0])
	}
}

func TestBuildBuilderImage_MissingFileIsSkipped(t *testing.T) {
	f := newFixture(t, "tools")

	if err := f.builder.BuildBuilderImage(context.Background(), "tools", "teapot/tools"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.engine.Requests) != 0 {
		t.Fatalf("expected no build, got %+v", f.engine.Requests)
	}
}

func TestBuildDeployImage_EngineFailureIsFatal(t *testing.T) {
	f := newFixture(t, "redis")
	f.engine.Errors = map[string]error{"teapot/redis:latest": &model.BuildError{Image: "teapot/redis:latest", Status: 1, Err: errors.New("boom")}}

	err := f.builder.BuildDeployImage(context.Background(), "redis", "teapot/redis")
	if !errors.Is(err, model.ErrContainerBuildFailed) {
		t.Fatalf("expected build failure, got %v", err)
	}
}

func TestBuildDeployImage_SQLServicePreparesOnce(t *testing.T) {
	f := newFixture(t, "postgres", "redis")
	var buildsBeforePreparation int
	f.preparation.OnRun = func() { buildsBeforePreparation = len(f.engine.Requests) }
	ctx := context.Background()

	if err := f.builder.BuildDeployImage(ctx, "redis", "teapot/redis"); err != nil {
		t.Fatal(err)
	}
	if f.preparation.Runs != 0 {
		t.Fatalf("preparation must only run for the SQL service, ran %d times", f.preparation.Runs)
	}
	if err := f.builder.BuildDeployImage(ctx, "postgres", "teapot/postgres"); err != nil {
		t.Fatal(err)
	}
	if err := f.builder.BuildDeployImage(ctx, "postgres", "teapot/postgres-debug"); err != nil {
		t.Fatal(err)
	}

	if f.preparation.Runs != 1 {
		t.Errorf("expected exactly one preparation, got %d", f.preparation.Runs)
	}
	if buildsBeforePreparation != 1 {
		t.Errorf("preparation must run before the postgres build, saw %d builds first", buildsBeforePreparation)
	}
	if len(f.engine.Requests) != 3 {
		t.Errorf("expected 3 builds, got %+v", f.engine.Requests)
	}
}

func TestBuildDeployImage_FailedPreparationAborts(t *testing.T) {
	f := newFixture(t, "postgres")
	f.preparation.Report = model.PreparationReport{Outcomes: []model.RepositoryOutcome{
		{Repository: model.Repository{ID: "users"}, State: model.StateFailed, Err: model.ErrCloneFailed},
	}}

	err := f.builder.BuildDeployImage(context.Background(), "postgres", "teapot/postgres")
	if !errors.Is(err, model.ErrPreparationFailed) {
		t.Fatalf("expected preparation failure, got %v", err)
	}
	if len(f.engine.Requests) != 0 {
		t.Errorf("no image must be built, got %+v", f.engine.Requests)
	}
}

func TestBuildDeployImage_SourceServiceBuildsFromCheckout(t *testing.T) {
	f := newFixture(t, "user-service")
	sourceDir := f.settings.Path(f.settings.SourceDir)
	touch(t, filepath.Join(sourceDir, "Makefile"))
	f.runner.Handler = func(command.Command) (command.Result, error) {
		return command.Result{ExitCode: 2}, errors.New("make: *** no rule to make target 'generate'")
	}

	if err := f.builder.BuildDeployImage(context.Background(), "user-service", "teapot/user"); err != nil {
		t.Fatalf("generation failure must not be fatal: %v", err)
	}
	if got := f.runner.Lines(); len(got) != 1 || got[0] != "make generate" || f.runner.Commands[0].WorkDir != sourceDir {
		t.Fatalf("unexpected generation commands %v", got)
	}
	want := model.ImageBuildRequest{
		ContextDir: sourceDir,
		DockerFile: filepath.Join("..", "..", "docker", "user-service.Dockerfile"),
		Tag:        "teapot/user:latest",
	}
	if len(f.engine.Requests) != 1 || f.engine.Requests[0] != want {
		t.Errorf("expected %+v, got %+v", want, f.engine.Requests)
	}
}

func TestBuildDeployImage_NoMakefileSkipsGeneration(t *testing.T) {
	f := newFixture(t, "user-service")
	if err := os.MkdirAll(f.settings.Path(f.settings.SourceDir), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := f.builder.BuildDeployImage(context.Background(), "user-service", "teapot/user"); err != nil {
		t.Fatal(err)
	}
	if len(f.runner.Commands) != 0 {
		t.Errorf("expected no generation, got %v", f.runner.Lines())
	}
}
