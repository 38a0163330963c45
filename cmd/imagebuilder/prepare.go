package main

import (
	"context"

	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/dependency"
)

func prepare(ctx context.Context) error {
	dependencyContainer, err := dependency.ContainerFromContext(ctx)
	if err != nil {
		return err
	}
	preparation, err := dependencyContainer.Preparation()
	if err != nil {
		return err
	}
	report, err := preparation.Run(ctx)
	if err != nil {
		return err
	}
	return report.Err()
}
