package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/zerr"
)

// DependenciesKey is the manifest table holding the dependency list.
const DependenciesKey = "dependencies"

// DependencySpec is either a version requirement or an inline table
// such as { path = "..", features = [..] }.
type DependencySpec struct {
	Version string
	Table   map[string]any
}

// VersionSpec returns a spec holding only a version requirement.
func VersionSpec(req string) DependencySpec {
	return DependencySpec{Version: req}
}

// IsTable reports whether the spec is an inline table.
func (s DependencySpec) IsTable() bool {
	return s.Table != nil
}

// Requirement returns the version requirement of the spec, if any.
func (s DependencySpec) Requirement() string {
	if s.Table == nil {
		return s.Version
	}
	if v, ok := s.Table["version"].(string); ok {
		return v
	}
	return ""
}

// Value returns the spec as it appears in a manifest document.
func (s DependencySpec) Value() any {
	if s.Table != nil {
		return maps.Clone(s.Table)
	}
	return s.Version
}

// Equal reports whether two specs describe the same dependency source.
func (s DependencySpec) Equal(o DependencySpec) bool {
	if s.IsTable() != o.IsTable() {
		return false
	}
	if !s.IsTable() {
		return s.Version == o.Version
	}
	return reflect.DeepEqual(s.Table, o.Table)
}

func (s DependencySpec) String() string {
	if s.Table == nil {
		return s.Version
	}
	data, err := json.Marshal(s.Table)
	if err != nil {
		return "{...}"
	}
	return string(data)
}

// Dependency is a named crate requirement.
type Dependency struct {
	Name string
	Spec DependencySpec
}

// ParseDependency parses "name" or "name=requirement". A missing requirement is "*".
func ParseDependency(s string) (Dependency, error) {
	name, req, found := strings.Cut(strings.TrimSpace(s), "=")
	name = strings.TrimSpace(name)
	req = strings.TrimSpace(req)
	if !IsValidCrateName(name) {
		return Dependency{}, zerr.With(zerr.Wrap(ErrInvalidDependency, "invalid dependency name"), "dependency", s)
	}
	if !found || req == "" {
		req = "*"
	}
	return Dependency{Name: name, Spec: VersionSpec(req)}, nil
}

// EmbeddedManifest is the manifest information found inside a script or template.
type EmbeddedManifest struct {
	Dependencies []Dependency
	// Fragment holds every top-level manifest key other than [dependencies].
	Fragment map[string]any
}

// IsEmpty reports whether the manifest declares nothing.
func (m EmbeddedManifest) IsEmpty() bool {
	return len(m.Dependencies) == 0 && len(m.Fragment) == 0
}

// MergedManifest is the final package manifest for a compilation unit.
type MergedManifest struct {
	PackageName string
	// BinName is the name of the executable target.
	BinName      string
	Dependencies []Dependency
	// Document is the complete manifest, including the [dependencies] table.
	Document map[string]any
}

// Canonical returns a deterministic serialization of the manifest.
// Map keys are emitted in sorted order, so equal manifests always produce equal bytes.
func (m MergedManifest) Canonical() ([]byte, error) {
	data, err := json.Marshal(m.Document)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to serialize manifest")
	}
	return data, nil
}

// TOML renders the manifest as a Cargo.toml document.
func (m MergedManifest) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m.Document); err != nil {
		return nil, zerr.Wrap(err, "failed to encode manifest")
	}
	return buf.Bytes(), nil
}
