// Package classifier turns a command line invocation into a compilation unit.
package classifier

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
)

// Names of the packages generated for units that have no file.
const (
	ExpressionPackageName = "expr"
	FilterPackageName     = "loop"
)

// Classifier resolves script paths and validates invocation options.
type Classifier struct {
	fs afero.Fs
}

// New creates a new Classifier reading scripts from fsys.
func New(fsys afero.Fs) *Classifier {
	return &Classifier{fs: fsys}
}

// Classify validates inv and builds the compilation unit it describes.
func (c *Classifier) Classify(inv domain.Invocation) (domain.CompilationUnit, error) {
	if err := validate(inv); err != nil {
		return domain.CompilationUnit{}, err
	}

	mode := inv.Mode
	if mode == "" {
		mode = domain.ModeRelease
	}

	u := domain.CompilationUnit{
		Template: inv.Template,
		Mode:     mode,
		Features: splitFeatures(inv.Features),
		Count:    inv.Count,
		BaseDir:  inv.WorkDir,
	}

	var err error
	if u.CLIDeps, u.Externs, err = parseDeps(inv); err != nil {
		return domain.CompilationUnit{}, err
	}

	switch {
	case inv.HasExpr:
		u.Kind = domain.KindExpression
		u.Source = inv.Expr
		u.PackageName = ExpressionPackageName
	case inv.HasLoop:
		u.Kind = domain.KindFilter
		u.Source = inv.Loop
		u.PackageName = FilterPackageName
	default:
		if err := c.loadFile(&u, inv.Script, inv.WorkDir); err != nil {
			return domain.CompilationUnit{}, err
		}
	}
	return u, nil
}

func validate(inv domain.Invocation) error {
	sources := 0
	for _, given := range []bool{inv.Script != "", inv.HasExpr, inv.HasLoop} {
		if given {
			sources++
		}
	}
	switch {
	case sources == 0:
		return zerr.Wrap(domain.ErrInvalidInvocation, "no script, expression or filter given")
	case sources > 1:
		return zerr.Wrap(domain.ErrInvalidInvocation, "a script, an expression and a filter are mutually exclusive")
	case inv.Count && !inv.HasLoop:
		return zerr.Wrap(domain.ErrInvalidInvocation, "--count requires --loop")
	case inv.Mode.IsHarness() && (inv.HasExpr || inv.HasLoop):
		return zerr.With(
			zerr.Wrap(domain.ErrInvalidInvocation, "test and bench builds need a script file"),
			"mode", string(inv.Mode),
		)
	}
	return nil
}

func parseDeps(inv domain.Invocation) ([]domain.Dependency, []domain.Extern, error) {
	deps := make([]domain.Dependency, 0, len(inv.Deps)+len(inv.DepExterns))
	var externs []domain.Extern

	for _, raw := range inv.Deps {
		dep, err := domain.ParseDependency(raw)
		if err != nil {
			return nil, nil, err
		}
		deps = append(deps, dep)
	}
	for _, raw := range inv.DepExterns {
		dep, err := domain.ParseDependency(raw)
		if err != nil {
			return nil, nil, err
		}
		deps = append(deps, dep)
		externs = append(externs, domain.Extern{Name: dep.Name})
	}
	for _, raw := range inv.Externs {
		e, err := domain.ParseExtern(raw)
		if err != nil {
			return nil, nil, err
		}
		externs = append(externs, e)
	}
	return deps, externs, nil
}

func (c *Classifier) loadFile(u *domain.CompilationUnit, script, workDir string) error {
	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	info, err := c.fs.Stat(path)
	if errors.Is(err, fs.ErrNotExist) && filepath.Ext(path) == "" {
		path += domain.ScriptExt
		info, err = c.fs.Stat(path)
	}
	if err != nil || info.IsDir() {
		return zerr.With(zerr.Wrap(domain.ErrScriptNotFound, "cannot open script"), "path", script)
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrScriptNotFound, "cannot read script"), "path", script)
	}

	u.Kind = domain.KindFile
	u.Source = string(data)
	u.OriginPath = path
	u.BaseDir = filepath.Dir(path)
	u.SourceModTime = info.ModTime()
	u.PackageName = PackageName(path)
	return nil
}

// PackageName derives a valid cargo package name from a script path.
func PackageName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var sb strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	name := sb.String()
	switch {
	case name == "":
		return "script"
	case name[0] >= '0' && name[0] <= '9':
		return "script_" + name
	default:
		return name
	}
}

func splitFeatures(raw []string) []string {
	var features []string
	for _, item := range raw {
		for f := range strings.FieldsFuncSeq(item, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
			features = append(features, f)
		}
	}
	return features
}
