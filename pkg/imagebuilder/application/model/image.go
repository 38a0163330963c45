package model

// ImageBuildRequest describes one container build. DockerFile is relative to ContextDir.
type ImageBuildRequest struct {
	ContextDir string
	DockerFile string
	Tag        string
}
