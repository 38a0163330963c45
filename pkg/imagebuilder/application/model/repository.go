package model

type RepositoryID = string

type Repository struct {
	ID            RepositoryID
	Name          string
	URL           string
	Path          string
	DefaultBranch string
	EnvVar        *string
}

type ReadinessState int

const (
	StateAbsent ReadinessState = iota
	StateCloned
	StateBranchSelected
	StateSynchronized
	StateReady
	StateFailed
)

func (s ReadinessState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateCloned:
		return "cloned"
	case StateBranchSelected:
		return "branch-selected"
	case StateSynchronized:
		return "synchronized"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// RepositoryHead is the branch and commit a checkout ended on.
type RepositoryHead struct {
	Branch string
	Commit string
}
