// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/rscript/internal/adapters/cargo"
	_ "go.trai.ch/rscript/internal/adapters/cas"
	_ "go.trai.ch/rscript/internal/adapters/config"
	_ "go.trai.ch/rscript/internal/adapters/logger"
	_ "go.trai.ch/rscript/internal/adapters/shell"
	_ "go.trai.ch/rscript/internal/adapters/templates"
	// Register app and engine nodes.
	_ "go.trai.ch/rscript/internal/app"
	_ "go.trai.ch/rscript/internal/engine/classifier"
	_ "go.trai.ch/rscript/internal/engine/resolver"
)
