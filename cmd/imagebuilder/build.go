package main

import (
	"context"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/dependency"
)

func build(ctx context.Context, stages model.Stages) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	images, err := dependencyContainer.Images(stages)
	if err != nil {
		return err
	}
	return images.Build(ctx, stages)
}
