package model

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound  = errors.New("config not found")
	ErrConfigMalformed = errors.New("config malformed")

	ErrCloneFailed            = errors.New("clone failed")
	ErrFetchFailed            = errors.New("fetch failed")
	ErrBranchResolutionFailed = errors.New("branch resolution failed")
	ErrPullFailed             = errors.New("pull failed")
	ErrInitScriptCopyFailed   = errors.New("init script copy failed")
	ErrPreparationFailed      = errors.New("repository preparation failed")

	ErrBuildFileMissing     = errors.New("build file missing")
	ErrContainerBuildFailed = errors.New("container build failed")
)

// BuildError reports a failed container build together with the exit status of the build tool.
type BuildError struct {
	Image  string
	Status int
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%v: image %v (exit status %v): %v", ErrContainerBuildFailed, e.Image, e.Status, e.Err)
}

func (e *BuildError) Unwrap() []error {
	return []error{ErrContainerBuildFailed, e.Err}
}
