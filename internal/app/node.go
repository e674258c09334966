package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rscript/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/rscript/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/rscript/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/rscript/internal/adapters/templates" //nolint:depguard // Wired in app layer
	"go.trai.ch/rscript/internal/core/ports"
	"go.trai.ch/rscript/internal/engine/classifier"
	"go.trai.ch/rscript/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			classifier.NodeID,
			resolver.NodeID,
			shell.NodeID,
			cas.NodeID,
			templates.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	c, err := graft.Dep[*classifier.Classifier](ctx)
	if err != nil {
		return nil, err
	}

	r, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	launcher, err := graft.Dep[ports.Launcher](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.CacheStore](ctx)
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

	return New(c, r, launcher, store, tmpls, log), nil
}
