package service

import (
	"context"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
)

func NewImagesService(
	services []model.ServiceImage,
	logger applogger.Logger,
	imageBuilder ImageBuilder,
) Images {
	return &images{
		services:     services,
		logger:       logger,
		imageBuilder: imageBuilder,
	}
}

type images struct {
	services []model.ServiceImage

	logger       applogger.Logger
	imageBuilder ImageBuilder
}

// Build stops at the first failing image.
func (service images) Build(ctx context.Context, stages model.Stages) error {
	if stages.Builders {
		service.logger.Info("building builder images...")
		err := service.iterateServices(func(s model.ServiceImage) error {
			if s.BuildImage == nil {
				return nil
			}
			return service.imageBuilder.BuildBuilderImage(ctx, s.ID, *s.BuildImage)
		})
		if err != nil {
			return err
		}
	}
	if stages.Deploys {
		service.logger.Info("building deployable images...")
		return service.iterateServices(func(s model.ServiceImage) error {
			if s.DeployImage == nil {
				return nil
			}
			return service.imageBuilder.BuildDeployImage(ctx, s.ID, *s.DeployImage)
		})
	}
	return nil
}

func (service images) iterateServices(f func(s model.ServiceImage) error) error {
	for _, s := range service.services {
		err := f(s)
		if err != nil {
			return err
		}
	}
	return nil
}
