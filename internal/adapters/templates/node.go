package templates

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/afero"
	"go.trai.ch/rscript/internal/adapters/config" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
)

// NodeID is the unique identifier for the template source Graft node.
const NodeID graft.ID = "adapter.templates"

func init() {
	graft.Register(graft.Node[ports.TemplateSource]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.TemplateSource, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewRepository(afero.NewOsFs(), settings.TemplateDir), nil
		},
	})
}
