// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/rscript/internal/core/domain"
)

// Builder defines the interface for compiling a materialized package.
//
//go:generate mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Toolchain returns a string identifying the compiler that builds will use.
	Toolchain(ctx context.Context) (string, error)

	// Build compiles the package and returns the location of its executable.
	Build(ctx context.Context, req domain.BuildRequest) (domain.BuildResult, error)
}
