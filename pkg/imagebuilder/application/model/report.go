package model

import (
	"fmt"
	"strings"
)

type RepositoryOutcome struct {
	Repository Repository
	Path       string
	Branch     string
	State      ReadinessState
	Head       *RepositoryHead
	InitScript *InitScript
	Err        error
	Warnings   []error
}

func (o RepositoryOutcome) Ready() bool {
	return o.State == StateReady
}

type PreparationReport struct {
	Outcomes []RepositoryOutcome
	Purged   []string
}

func (r PreparationReport) Failed() []RepositoryOutcome {
	var failed []RepositoryOutcome
	for _, outcome := range r.Outcomes {
		if outcome.State == StateFailed {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Scripts returns collected init scripts in sequence order.
func (r PreparationReport) Scripts() []InitScript {
	var scripts []InitScript
	for _, outcome := range r.Outcomes {
		if outcome.InitScript != nil {
			scripts = append(scripts, *outcome.InitScript)
		}
	}
	return scripts
}

func (r PreparationReport) Summary() string {
	return fmt.Sprintf("%v of %v repositories contributed scripts", len(r.Scripts()), len(r.Outcomes))
}

// Err is nil unless at least one repository failed.
func (r PreparationReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(failed))
	for _, outcome := range failed {
		ids = append(ids, outcome.Repository.ID)
	}
	return fmt.Errorf("%w: %v of %v repositories (%v)", ErrPreparationFailed, len(failed), len(r.Outcomes), strings.Join(ids, ", "))
}
