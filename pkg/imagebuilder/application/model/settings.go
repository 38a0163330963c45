package model

import "path/filepath"

// Settings is built once at startup and handed to every component.
type Settings struct {
	RootDir          string
	ImagesFile       string
	RepositoriesFile string
	DockerDir        string
	InitScriptsDir   string

	SQLService      ServiceID
	SourceService   ServiceID
	SourceDir       string
	GenerateCommand []string

	Engine  string
	Verbose bool
}

func DefaultSettings(rootDir string) Settings {
	return Settings{
		RootDir:          rootDir,
		ImagesFile:       "images.json",
		RepositoriesFile: "config/services.json",
		DockerDir:        "docker",
		InitScriptsDir:   "docker/init-scripts",
		SQLService:       "postgres",
		SourceService:    "user-service",
		SourceDir:        "repos/teapot-user-service",
		GenerateCommand:  []string{"make", "generate"},
		Engine:           "cli",
	}
}

// Path resolves p against RootDir unless it is already absolute.
func (s Settings) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.RootDir, p)
}
