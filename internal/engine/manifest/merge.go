package manifest

import (
	"fmt"
	"maps"
	"path/filepath"

	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/core/ports"
	"go.trai.ch/zerr"
)

// Tier is a precedence level of dependency declarations.
type Tier int

const (
	// TierEmbedded holds dependencies declared inside the script.
	TierEmbedded Tier = iota
	// TierTemplate holds dependencies declared by the template.
	TierTemplate
	// TierCLI holds dependencies given on the command line.
	TierCLI
)

func (t Tier) String() string {
	switch t {
	case TierCLI:
		return "command line"
	case TierTemplate:
		return "template"
	default:
		return "script"
	}
}

// Input is everything the merger combines into one manifest.
type Input struct {
	PackageName string
	// BaseDir resolves relative path dependencies.
	BaseDir  string
	CLI      []domain.Dependency
	Template domain.EmbeddedManifest
	Embedded domain.EmbeddedManifest
}

// Merger combines dependency declarations by precedence.
type Merger struct {
	logger ports.Logger
}

// NewMerger creates a new Merger that reports shadowed requirements to logger.
func NewMerger(logger ports.Logger) *Merger {
	return &Merger{logger: logger}
}

type tierDep struct {
	dep  domain.Dependency
	tier Tier
}

// Merge produces the package manifest.
//
// Command line dependencies win over template dependencies, which win over
// script dependencies. Two different specifications for one name inside the
// same tier are a conflict.
func (m *Merger) Merge(in Input) (domain.MergedManifest, error) {
	tiers := []struct {
		tier Tier
		deps []domain.Dependency
	}{
		{TierEmbedded, in.Embedded.Dependencies},
		{TierTemplate, in.Template.Dependencies},
		{TierCLI, in.CLI},
	}

	var order []string
	winners := make(map[string]tierDep)
	for _, t := range tiers {
		deps, err := normalizeTier(t.tier, t.deps, in.BaseDir)
		if err != nil {
			return domain.MergedManifest{}, err
		}
		for _, dep := range deps {
			prev, ok := winners[dep.Name]
			if !ok {
				order = append(order, dep.Name)
			} else {
				m.checkShadow(dep.Name, tierDep{dep, t.tier}, prev)
			}
			winners[dep.Name] = tierDep{dep: dep, tier: t.tier}
		}
	}

	deps := make([]domain.Dependency, 0, len(order))
	depTable := make(map[string]any, len(order))
	for _, name := range order {
		dep := winners[name].dep
		deps = append(deps, dep)
		depTable[name] = dep.Spec.Value()
	}

	doc := map[string]any{
		"package": map[string]any{
			"name":    in.PackageName,
			"version": "0.1.0",
			"edition": "2021",
		},
	}
	overlay(doc, in.Embedded.Fragment)
	overlay(doc, in.Template.Fragment)

	pkgName := in.PackageName
	if pkg, ok := doc["package"].(map[string]any); ok {
		if name, ok := pkg["name"].(string); ok && name != "" {
			pkgName = name
		}
	}

	binName := pkgName
	if _, ok := doc["bin"]; !ok {
		doc["bin"] = []map[string]any{{
			"name": pkgName,
			"path": domain.SourceFileName,
		}}
	} else if name, ok := firstBinName(doc["bin"]); ok {
		binName = name
	}

	if len(depTable) > 0 {
		doc[domain.DependenciesKey] = depTable
	}

	return domain.MergedManifest{
		PackageName:  pkgName,
		BinName:      binName,
		Dependencies: deps,
		Document:     doc,
	}, nil
}

func normalizeTier(tier Tier, deps []domain.Dependency, baseDir string) ([]domain.Dependency, error) {
	out := make([]domain.Dependency, 0, len(deps))
	seen := make(map[string]domain.DependencySpec, len(deps))
	for _, dep := range deps {
		spec, err := normalizeSpec(dep.Spec, baseDir)
		if err != nil {
			return nil, zerr.With(err, "dependency", dep.Name)
		}
		if prev, ok := seen[dep.Name]; ok {
			if prev.Equal(spec) {
				continue
			}
			err := zerr.Wrap(domain.ErrManifestConflict, fmt.Sprintf("%s declares %q twice", tier, dep.Name))
			err = zerr.With(err, "first", prev.String())
			return nil, zerr.With(err, "second", spec.String())
		}
		seen[dep.Name] = spec
		out = append(out, domain.Dependency{Name: dep.Name, Spec: spec})
	}
	return out, nil
}

func normalizeSpec(spec domain.DependencySpec, baseDir string) (domain.DependencySpec, error) {
	if !spec.IsTable() {
		req, err := NormalizeRequirement(spec.Version)
		if err != nil {
			return domain.DependencySpec{}, err
		}
		return domain.VersionSpec(req), nil
	}

	table := maps.Clone(spec.Table)
	if v, ok := table["version"].(string); ok {
		req, err := NormalizeRequirement(v)
		if err != nil {
			return domain.DependencySpec{}, err
		}
		table["version"] = req
	}
	if p, ok := table["path"].(string); ok && !filepath.IsAbs(p) && baseDir != "" {
		table["path"] = filepath.Join(baseDir, p)
	}
	return domain.DependencySpec{Table: table}, nil
}

func (m *Merger) checkShadow(name string, winner, shadowed tierDep) {
	if winner.dep.Spec.Equal(shadowed.dep.Spec) {
		return
	}
	want := winner.dep.Spec.Requirement()
	have := shadowed.dep.Spec.Requirement()
	if ok, known := accepts(want, have); known && !ok {
		m.logger.Warn(fmt.Sprintf(
			"dependency %q: %s requirement %q overrides %s requirement %q",
			name, winner.tier, want, shadowed.tier, have,
		))
	}
}

// overlay merges src into dst. Nested tables are merged key by key,
// every other value in src replaces the one in dst.
func overlay(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				merged := maps.Clone(dv)
				overlay(merged, sv)
				dst[k] = merged
				continue
			}
		}
		dst[k] = v
	}
}

func firstBinName(v any) (string, bool) {
	switch bins := v.(type) {
	case []map[string]any:
		if len(bins) > 0 {
			name, ok := bins[0]["name"].(string)
			return name, ok
		}
	case []any:
		if len(bins) > 0 {
			if bin, ok := bins[0].(map[string]any); ok {
				name, ok := bin["name"].(string)
				return name, ok
			}
		}
	}
	return "", false
}
