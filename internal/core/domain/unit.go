package domain

import (
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// UnitKind identifies how the source of a compilation unit was supplied.
type UnitKind string

const (
	// KindFile is a script read from a file.
	KindFile UnitKind = "file"
	// KindExpression is an inline expression given on the command line.
	KindExpression UnitKind = "expression"
	// KindFilter is a closure applied to every line of standard input.
	KindFilter UnitKind = "filter"
)

// BuildMode selects the cargo profile and command used for a build.
type BuildMode string

const (
	// ModeDebug builds with the dev profile.
	ModeDebug BuildMode = "debug"
	// ModeRelease builds with the release profile.
	ModeRelease BuildMode = "release"
	// ModeTest builds the unit test harness.
	ModeTest BuildMode = "test"
	// ModeBench builds the benchmark harness.
	ModeBench BuildMode = "bench"
)

// ParseBuildMode converts a mode name into a BuildMode. An empty name is release.
func ParseBuildMode(s string) (BuildMode, error) {
	switch BuildMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRelease:
		return ModeRelease, nil
	case ModeDebug:
		return ModeDebug, nil
	case ModeTest:
		return ModeTest, nil
	case ModeBench:
		return ModeBench, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidBuildMode, "unknown build mode"), "mode", s)
	}
}

// Profile returns the name of the target subdirectory cargo writes artifacts to.
func (m BuildMode) Profile() string {
	switch m {
	case ModeRelease, ModeBench:
		return "release"
	default:
		return "debug"
	}
}

// IsHarness reports whether the mode builds a test or bench harness instead of the binary.
func (m BuildMode) IsHarness() bool {
	return m == ModeTest || m == ModeBench
}

// Extern is a crate that the prelude imports with #[macro_use].
type Extern struct {
	Name  string
	Alias string
}

// ParseExtern parses "name" or "name=alias".
func ParseExtern(s string) (Extern, error) {
	name, alias, _ := strings.Cut(strings.TrimSpace(s), "=")
	name = strings.TrimSpace(name)
	alias = strings.TrimSpace(alias)
	if !IsValidCrateName(name) || (alias != "" && !IsValidCrateName(alias)) {
		return Extern{}, zerr.With(zerr.Wrap(ErrInvalidDependency, "invalid extern crate"), "extern", s)
	}
	return Extern{Name: name, Alias: alias}, nil
}

// CrateName returns the identifier the crate is referenced by in Rust source.
func (e Extern) CrateName() string {
	return strings.ReplaceAll(e.Name, "-", "_")
}

// IsValidCrateName reports whether s may be used as a package or crate name.
func IsValidCrateName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Invocation carries the raw command line request before classification.
type Invocation struct {
	Script     string
	Args       []string
	Expr       string
	HasExpr    bool
	Loop       string
	HasLoop    bool
	Count      bool
	Deps       []string
	DepExterns []string
	Externs    []string
	Template   string
	Mode       BuildMode
	Features   []string
	WorkDir    string
}

// CompilationUnit is a classified, immutable request to build one program.
type CompilationUnit struct {
	Kind UnitKind
	// Source is the script text as supplied, hashbang included.
	Source        string
	OriginPath    string
	BaseDir       string
	SourceModTime time.Time
	CLIDeps       []Dependency
	Externs       []Extern
	Template      string
	Mode          BuildMode
	Features      []string
	Count         bool
	PackageName   string
}

// SafeName returns the package name as a valid Rust identifier.
func (u CompilationUnit) SafeName() string {
	return strings.ReplaceAll(u.PackageName, "-", "_")
}
