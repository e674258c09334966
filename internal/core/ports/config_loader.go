package ports

import "go.trai.ch/rscript/internal/core/domain"

// ConfigLoader defines the interface for loading the tool configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the optional configuration file, applies environment
	// overrides and defaults, and returns the resolved settings.
	Load() (*domain.Settings, error)
}
