package model

type ServiceID = string

type ServiceImage struct {
	ID          ServiceID
	BuildImage  *string
	DeployImage *string
}

// Stages selects which kinds of images a run builds.
type Stages struct {
	Builders bool
	Deploys  bool
}

func (s Stages) Empty() bool {
	return !s.Builders && !s.Deploys
}
