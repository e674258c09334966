// Package templates provides the template source backed by the user template
// directory and the builtin templates.
package templates

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
)

// Repository implements ports.TemplateSource.
type Repository struct {
	fs  afero.Fs
	dir string
}

// NewRepository creates a repository reading user templates from dir.
// An empty dir disables user templates.
func NewRepository(fsys afero.Fs, dir string) *Repository {
	return &Repository{fs: fsys, dir: dir}
}

// Dir returns the directory user templates are read from.
func (r *Repository) Dir() string {
	return r.dir
}

// Get returns the named template. A user template with the same name as a
// builtin replaces it.
func (r *Repository) Get(name string) (domain.Template, error) {
	if !validName(name) {
		return domain.Template{}, zerr.With(
			zerr.Wrap(domain.ErrTemplateNotFound, "invalid template name"), "template", name)
	}

	tmpl, found, err := r.readUser(name)
	if err != nil {
		return domain.Template{}, err
	}
	if found {
		return tmpl, nil
	}

	if builtin, ok := domain.BuiltinTemplate(name); ok {
		return builtin, nil
	}

	err = zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "no such template"), "template", name)
	if r.dir != "" {
		err = zerr.With(err, "template_dir", r.dir)
	}
	return domain.Template{}, err
}

// List returns the union of user and builtin templates sorted by name.
func (r *Repository) List() ([]domain.Template, error) {
	byName := make(map[string]domain.Template)
	for _, name := range domain.BuiltinTemplateNames() {
		tmpl, _ := domain.BuiltinTemplate(name)
		byName[name] = tmpl
	}

	names, err := r.userNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		tmpl, found, err := r.readUser(name)
		if err != nil {
			return nil, err
		}
		if found {
			byName[name] = tmpl
		}
	}

	out := make([]domain.Template, 0, len(byName))
	for _, tmpl := range byName {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) readUser(name string) (domain.Template, bool, error) {
	if r.dir == "" {
		return domain.Template{}, false, nil
	}

	path := filepath.Join(r.dir, name+domain.TemplateExt)
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Template{}, false, nil
		}
		return domain.Template{}, false, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrTemplateNotFound, "failed to read template"),
			"path", path), "cause", err.Error())
	}

	return domain.Template{Name: name, Text: string(data), Path: path}, true, nil
}

func (r *Repository) userNames() ([]string, error) {
	if r.dir == "" {
		return nil, nil
	}

	entries, err := afero.ReadDir(r.fs, r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.With(
			zerr.Wrap(domain.ErrTemplateNotFound, "failed to list templates"),
			"path", r.dir), "cause", err.Error())
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != domain.TemplateExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), domain.TemplateExt)
		if validName(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// validName rejects names that would escape the template directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
