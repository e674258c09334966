package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rscript/internal/adapters/cargo"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rscript/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rscript/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rscript/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rscript/internal/adapters/templates" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
)

// NodeID is the unique identifier for the resolver Graft node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			cargo.NodeID,
			templates.NodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: func(ctx context.Context) (*Resolver, error) {
			store, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}

			builder, err := graft.Dep[ports.Builder](ctx)
			if err != nil {
				return nil, err
			}

			tmpls, err := graft.Dep[ports.TemplateSource](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}

			return New(store, builder, tmpls, log).
				WithStrategy(settings.ArtifactStrategy).
				WithQuietThreshold(settings.QuietThreshold), nil
		},
	})
}
