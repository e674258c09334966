// Package app implements the application layer for rscript.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
	"go.trai.ch/rscript/internal/engine/classifier"
	"go.trai.ch/rscript/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	classifier *classifier.Classifier
	resolver   *resolver.Resolver
	launcher   ports.Launcher
	store      ports.CacheStore
	templates  ports.TemplateSource
	logger     ports.Logger
	out        io.Writer
}

// New creates a new App instance.
func New(
	c *classifier.Classifier,
	r *resolver.Resolver,
	launcher ports.Launcher,
	store ports.CacheStore,
	templates ports.TemplateSource,
	logger ports.Logger,
) *App {
	return &App{
		classifier: c,
		resolver:   r,
		launcher:   launcher,
		store:      store,
		templates:  templates,
		logger:     logger,
		out:        os.Stdout,
	}
}

// WithOutput sets where informational output such as generated package paths is written.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	Force      bool
	GenPkgOnly bool
	BuildOnly  bool
	Color      bool
}

// Run classifies the invocation, resolves it to an artifact, and runs the
// artifact with the invocation's arguments. The returned code is the exit
// code of the program, or zero when it was not launched.
func (a *App) Run(ctx context.Context, inv domain.Invocation, opts RunOptions) (int, error) {
	unit, err := a.classifier.Classify(inv)
	if err != nil {
		return 1, err
	}

	outcome, err := a.resolver.Resolve(ctx, unit, resolver.Options{
		Force:          opts.Force,
		GenPackageOnly: opts.GenPkgOnly,
		Color:          opts.Color,
	})
	if err != nil {
		return 1, err
	}

	if opts.GenPkgOnly {
		_, _ = fmt.Fprintln(a.out, outcome.PackageDir)
		return 0, nil
	}
	if opts.BuildOnly {
		a.logger.Debug("built " + outcome.ArtifactPath)
		return 0, nil
	}

	return a.launcher.Launch(ctx, domain.LaunchRequest{
		Path: outcome.ArtifactPath,
		Args: inv.Args,
		Env:  outcome.Env,
		Dir:  inv.WorkDir,
	})
}

// ListTemplates returns every available template.
func (a *App) ListTemplates(_ context.Context) ([]domain.Template, error) {
	return a.templates.List()
}

// DumpTemplate returns the text of the named template.
func (a *App) DumpTemplate(_ context.Context, name string) (string, error) {
	tmpl, err := a.templates.Get(name)
	if err != nil {
		return "", err
	}
	return tmpl.Text, nil
}

// TemplatePath returns the directory user templates are read from.
func (a *App) TemplatePath() (string, error) {
	dir := a.templates.Dir()
	if dir == "" {
		return "", zerr.Wrap(domain.ErrTemplateNotFound, "no template directory configured")
	}
	return dir, nil
}

// Migrate plans or applies the upgrade of older cache layouts and logs each step.
func (a *App) Migrate(_ context.Context, dryRun bool) (domain.MigrationReport, error) {
	kind := domain.Apply
	if dryRun {
		kind = domain.DryRun
	}

	report, err := a.store.Migrate(kind)
	if report.UpToDate() && err == nil {
		a.logger.Info("cache layout is up to date")
		return report, nil
	}

	steps := report.Applied
	if dryRun {
		steps = report.Steps
	}
	for _, step := range steps {
		if dryRun {
			a.logger.Info("would " + step.String())
			continue
		}
		a.logger.Info(step.String())
	}
	for _, f := range report.Failures {
		a.logger.Warn(fmt.Sprintf("failed to %s: %v", f.Step, f.Err))
	}

	return report, err
}

// Clean removes cache entries.
func (a *App) Clean(_ context.Context, opts domain.CleanOptions) (domain.CleanReport, error) {
	report, err := a.store.Clean(opts)
	if err != nil {
		return report, err
	}
	a.logger.Info(fmt.Sprintf("removed %d cache entries", len(report.Removed)))
	return report, nil
}

// ListCache returns the Ready entries of the cache.
func (a *App) ListCache(_ context.Context) ([]domain.CacheEntry, error) {
	return a.store.List()
}
