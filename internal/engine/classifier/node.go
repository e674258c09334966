package classifier

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/spf13/afero"
)

// NodeID is the unique identifier for the classifier Graft node.
const NodeID graft.ID = "engine.classifier"

func init() {
	graft.Register(graft.Node[*Classifier]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Classifier, error) {
			return New(afero.NewOsFs()), nil
		},
	})
}
