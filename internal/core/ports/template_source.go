package ports

import "go.trai.ch/rscript/internal/core/domain"

// TemplateSource defines the interface for looking up templates.
//
//go:generate mockgen -source=template_source.go -destination=mocks/mock_template_source.go -package=mocks
type TemplateSource interface {
	// Get returns the named template. User templates shadow builtins.
	Get(name string) (domain.Template, error)

	// List returns every available template sorted by name.
	List() ([]domain.Template, error)

	// Dir returns the directory user templates are read from.
	Dir() string
}
