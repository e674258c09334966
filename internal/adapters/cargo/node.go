package cargo

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rscript/internal/adapters/config" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/rscript/internal/adapters/logger" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
)

// NodeID is the unique identifier for the builder Graft node.
const NodeID graft.ID = "adapter.builder"

func init() {
	graft.Register(graft.Node[ports.Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Builder, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewBuilder(settings.Cargo, settings.Rustc, log), nil
		},
	})
}
