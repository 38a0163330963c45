package engine

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/pkg/errors"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/service"
)

// injectedDockerFile is the name a build file from outside the context gets inside the context tar.
const injectedDockerFile = ".imagebuilder.Dockerfile"

// NewAPIEngine builds images through the docker daemon API configured by the DOCKER_* environment.
func NewAPIEngine(out io.Writer) (service.ImageEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}
	return &apiEngine{cli: cli, out: out}, nil
}

type apiEngine struct {
	cli *client.Client
	out io.Writer
}

func (e apiEngine) Build(ctx context.Context, request model.ImageBuildRequest) error {
	buildCtx, dockerFile, err := buildContext(request)
	if err != nil {
		return &model.BuildError{Image: request.Tag, Status: 1, Err: err}
	}
	defer buildCtx.Close()

	resp, err := e.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{request.Tag},
		Dockerfile: dockerFile,
		Remove:     true,
	})
	if err != nil {
		return &model.BuildError{Image: request.Tag, Status: 1, Err: errors.Wrap(err, "failed to build image")}
	}
	defer resp.Body.Close()

	err = jsonmessage.DisplayJSONMessagesStream(resp.Body, e.out, 0, false, nil)
	if err != nil {
		status := 1
		var jsonErr *jsonmessage.JSONError
		if errors.As(err, &jsonErr) && jsonErr.Code > 0 {
			status = jsonErr.Code
		}
		return &model.BuildError{Image: request.Tag, Status: status, Err: err}
	}
	return nil
}

// buildContext tars the context directory honouring .dockerignore. A build file outside the
// context is added to the stream under injectedDockerFile.
func buildContext(request model.ImageBuildRequest) (io.ReadCloser, string, error) {
	excludes, err := readIgnorePatterns(request.ContextDir)
	if err != nil {
		return nil, "", err
	}
	tarball, err := archive.TarWithOptions(request.ContextDir, &archive.TarOptions{ExcludePatterns: excludes})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create build context")
	}
	if !outsideContext(request.DockerFile) {
		return tarball, filepath.ToSlash(request.DockerFile), nil
	}

	content, err := os.ReadFile(filepath.Join(request.ContextDir, request.DockerFile))
	if err != nil {
		tarball.Close()
		return nil, "", errors.Wrapf(err, "failed to read build file %v", request.DockerFile)
	}
	now := time.Now()
	tarball = archive.ReplaceFileTarWrapper(tarball, map[string]archive.TarModifierFunc{
		injectedDockerFile: func(_ string, _ *tar.Header, _ io.Reader) (*tar.Header, []byte, error) {
			return &tar.Header{
				Name:       injectedDockerFile,
				Mode:       0o600,
				ModTime:    now,
				AccessTime: now,
				ChangeTime: now,
				Typeflag:   tar.TypeReg,
			}, content, nil
		},
	})
	return tarball, injectedDockerFile, nil
}

func readIgnorePatterns(contextDir string) ([]string, error) {
	f, err := os.Open(filepath.Join(contextDir, ".dockerignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to open .dockerignore")
	}
	defer f.Close()
	patterns, err := ignorefile.ReadAll(f)
	return patterns, errors.Wrap(err, "failed to read .dockerignore")
}

func outsideContext(rel string) bool {
	rel = filepath.Clean(rel)
	return filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
