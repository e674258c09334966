package ports

import (
	"context"

	"go.trai.ch/rscript/internal/core/domain"
)

// Launcher defines the interface for running a compiled artifact.
//
//go:generate mockgen -source=launcher.go -destination=mocks/mock_launcher.go -package=mocks
type Launcher interface {
	// Launch runs the artifact to completion and returns its exit code.
	Launch(ctx context.Context, req domain.LaunchRequest) (int, error)
}
