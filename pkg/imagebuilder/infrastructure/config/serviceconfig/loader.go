package serviceconfig

import (
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/infrastructure/config"
)

const section = "services"

type Service struct {
	BuildImage  *string `json:"build_image,omitempty" yaml:"build_image,omitempty"`
	DeployImage *string `json:"deploy_image,omitempty" yaml:"deploy_image,omitempty"`
}

// Load reads the service image registry. A file without a services section is an empty registry.
func Load(path string) ([]model.ServiceImage, error) {
	entries, _, err := config.LoadSection(path, section)
	if err != nil {
		return nil, err
	}
	services := make([]model.ServiceImage, 0, len(entries))
	for _, entry := range entries {
		var service Service
		err = entry.Decode(&service)
		if err != nil {
			return nil, err
		}
		services = append(services, mapToServiceImage(entry.Key, service))
	}
	return services, nil
}

func mapToServiceImage(id string, service Service) model.ServiceImage {
	return model.ServiceImage{
		ID:          id,
		BuildImage:  config.ToOptString(service.BuildImage),
		DeployImage: config.ToOptString(service.DeployImage),
	}
}
