// Package resolver turns a compilation unit into a runnable artifact, reusing
// the cache when an identical unit was built before.
package resolver

import (
	"context"
	"io"
	"os"
	"time"

	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
	"go.trai.ch/rscript/internal/engine/fingerprint"
	"go.trai.ch/rscript/internal/engine/manifest"
	"go.trai.ch/rscript/internal/engine/render"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Options adjusts a single resolution.
type Options struct {
	// Force rebuilds even when a Ready entry exists.
	Force bool
	// GenPackageOnly writes the package without building it.
	GenPackageOnly bool
	// Color asks the build tool for colored diagnostics.
	Color bool
}

// Outcome describes the artifact a unit resolved to.
type Outcome struct {
	ArtifactPath string
	PackageDir   string
	Fingerprint  domain.Fingerprint
	// Cached is set when the artifact came from the cache.
	Cached bool
	// Built is set when a build ran.
	Built bool
	// Env is passed to the build and should be passed to the program.
	Env []string
}

// Resolver drives extraction, rendering, merging, fingerprinting, cache
// lookup, and building of compilation units.
type Resolver struct {
	store     ports.CacheStore
	builder   ports.Builder
	templates ports.TemplateSource
	logger    ports.Logger
	merger    *manifest.Merger

	strategy domain.ArtifactStrategy
	quiet    time.Duration
	stderr   io.Writer
}

// New creates a new Resolver with the platform default artifact strategy,
// the default quiet threshold, and build output on stderr.
func New(
	store ports.CacheStore,
	builder ports.Builder,
	templates ports.TemplateSource,
	logger ports.Logger,
) *Resolver {
	return &Resolver{
		store:     store,
		builder:   builder,
		templates: templates,
		logger:    logger,
		merger:    manifest.NewMerger(logger),
		strategy:  domain.StrategyAccurate,
		quiet:     domain.DefaultQuietThreshold,
		stderr:    os.Stderr,
	}
}

// WithStrategy sets how built executables are located.
func (r *Resolver) WithStrategy(s domain.ArtifactStrategy) *Resolver {
	r.strategy = s
	return r
}

// WithQuietThreshold sets how long build output is held back.
func (r *Resolver) WithQuietThreshold(d time.Duration) *Resolver {
	r.quiet = d
	return r
}

// WithOutput sets where build output is written.
func (r *Resolver) WithOutput(w io.Writer) *Resolver {
	r.stderr = w
	return r
}

// Resolve returns the artifact for u, building it when the cache has no
// usable entry.
//
// A unit that fails to build leaves no Ready entry; its build output is
// always shown. A build that succeeds within the quiet threshold shows nothing.
//
//nolint:cyclop // orchestration function
func (r *Resolver) Resolve(ctx context.Context, u domain.CompilationUnit, opts Options) (Outcome, error) {
	tmpl, err := r.templates.Get(u.TemplateName())
	if err != nil {
		return Outcome{}, err
	}

	// The toolchain probe runs while the package is prepared.
	var toolchain string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		toolchain, err = r.builder.Toolchain(gctx)
		return err
	})

	pkg, prepErr := r.prepare(u, tmpl)
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}
	if prepErr != nil {
		return Outcome{}, prepErr
	}

	canonical, err := pkg.manifest.Canonical()
	if err != nil {
		return Outcome{}, zerr.Wrap(err, "failed to encode manifest")
	}

	fp := fingerprint.Compute(fingerprint.Input{
		Kind:         u.Kind,
		Source:       pkg.source,
		Manifest:     canonical,
		Mode:         u.Mode,
		Features:     u.Features,
		TemplateName: tmpl.Name,
		TemplateText: tmpl.Text,
		Toolchain:    toolchain,
	})

	out := Outcome{
		Fingerprint: fp,
		PackageDir:  r.store.Layout().EntryDir(fp),
		Env:         domain.BuildEnv(u, r.strategy),
	}
	r.logger.Debug("fingerprint " + fp.Short() + " for " + u.PackageName)

	if !opts.GenPackageOnly {
		lookup, err := r.store.Lookup(fp, domain.LookupOptions{
			Force:         opts.Force,
			SourceModTime: u.SourceModTime,
		})
		if err != nil {
			return Outcome{}, err
		}
		if lookup.State == domain.Ready {
			r.logger.Debug("using cached artifact " + lookup.Entry.ArtifactPath)
			out.ArtifactPath = lookup.Entry.ArtifactPath
			out.Cached = true
			return out, nil
		}
		r.logger.Debug("cache miss: " + lookup.Reason)
	}

	pkgDir, err := r.store.Materialize(fp, pkg.manifest, pkg.source)
	if err != nil {
		return Outcome{}, err
	}
	out.PackageDir = pkgDir

	if opts.GenPackageOnly {
		return out, nil
	}

	res, err := r.build(ctx, u, pkg.manifest, pkgDir, out.Env, opts.Color)
	if err != nil {
		if recErr := r.store.RecordResult(fp, domain.BuildOutcome{Success: false}); recErr != nil {
			r.logger.Warn("failed to clear cache entry: " + recErr.Error())
		}
		return Outcome{}, err
	}

	if err := r.store.RecordResult(fp, domain.BuildOutcome{
		Success: true,
		Entry: domain.CacheEntry{
			PackageName:  pkg.manifest.PackageName,
			ArtifactPath: res.ArtifactPath,
			Mode:         u.Mode,
			Toolchain:    toolchain,
			Manifest:     string(canonical),
			OriginPath:   u.OriginPath,
		},
	}); err != nil {
		return Outcome{}, err
	}

	out.ArtifactPath = res.ArtifactPath
	out.Built = true
	return out, nil
}

type preparedPackage struct {
	manifest domain.MergedManifest
	source   string
}

// prepare extracts the embedded manifests, renders the source, and merges
// the dependency tiers.
func (r *Resolver) prepare(u domain.CompilationUnit, tmpl domain.Template) (preparedPackage, error) {
	var embedded domain.EmbeddedManifest
	if u.Kind == domain.KindFile {
		var err error
		if embedded, err = manifest.Extract(u.Source); err != nil {
			return preparedPackage{}, zerr.With(err, "script", u.OriginPath)
		}
	}

	fromTemplate, err := manifest.Extract(tmpl.Text)
	if err != nil {
		return preparedPackage{}, zerr.With(err, "template", tmpl.Name)
	}

	source, err := render.Render(tmpl, render.Prelude(u.Externs), manifest.StripHashbang(u.Source))
	if err != nil {
		return preparedPackage{}, err
	}

	merged, err := r.merger.Merge(manifest.Input{
		PackageName: u.PackageName,
		BaseDir:     u.BaseDir,
		CLI:         u.CLIDeps,
		Template:    fromTemplate,
		Embedded:    embedded,
	})
	if err != nil {
		return preparedPackage{}, err
	}

	return preparedPackage{manifest: merged, source: source}, nil
}

func (r *Resolver) build(
	ctx context.Context,
	u domain.CompilationUnit,
	m domain.MergedManifest,
	pkgDir string,
	env []string,
	color bool,
) (domain.BuildResult, error) {
	qw := newQuietWriter(r.stderr, r.quiet)

	res, err := r.builder.Build(ctx, domain.BuildRequest{
		PackageDir:  pkgDir,
		PackageName: m.PackageName,
		BinName:     m.BinName,
		Mode:        u.Mode,
		Features:    u.Features,
		Strategy:    r.strategy,
		Env:         env,
		Color:       color,
		Output:      qw,
	})
	if err != nil {
		qw.Flush()
		return domain.BuildResult{}, err
	}

	qw.Discard()
	return res, nil
}
