package repositoryconfig

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/config"
)

const section = "repositories"

type Repository struct {
	Name          string  `json:"name" yaml:"name"`
	URL           string  `json:"url" yaml:"url"`
	Path          string  `json:"path" yaml:"path"`
	DefaultBranch string  `json:"default_branch" yaml:"default_branch"`
	EnvVar        *string `json:"env_var,omitempty" yaml:"env_var,omitempty"`
}

func Load(path string) ([]model.Repository, error) {
	entries, found, err := config.LoadSection(path, section)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.Wrapf(model.ErrConfigMalformed, "config file %v has no %v section", path, section)
	}
	repositories := make([]model.Repository, 0, len(entries))
	for _, entry := range entries {
		var repository Repository
		err = entry.Decode(&repository)
		if err != nil {
			return nil, err
		}
		err = assertRepository(entry.Key, repository)
		if err != nil {
			return nil, errors.Wrapf(err, "config file %v", path)
		}
		repositories = append(repositories, mapToRepository(entry.Key, repository))
	}
	return repositories, nil
}

func mapToRepository(id string, repository Repository) model.Repository {
	return model.Repository{
		ID:            id,
		Name:          repository.Name,
		URL:           repository.URL,
		Path:          repository.Path,
		DefaultBranch: repository.DefaultBranch,
		EnvVar:        config.ToOptString(repository.EnvVar),
	}
}

func assertRepository(id string, repository Repository) error {
	required := []struct {
		field string
		value string
	}{
		{"name", repository.Name},
		{"url", repository.URL},
		{"path", repository.Path},
		{"default_branch", repository.DefaultBranch},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: repository %v: missing required field %v", model.ErrConfigMalformed, id, r.field)
		}
	}
	if strings.ContainsAny(repository.Name, `/\`) {
		return fmt.Errorf("%w: repository %v: name %q must not contain path separators", model.ErrConfigMalformed, id, repository.Name)
	}
	return nil
}
