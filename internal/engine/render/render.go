// Package render expands templates into the source of a generated package.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
)

var placeholderRe = regexp.MustCompile(`#\{([A-Za-z_][A-Za-z0-9_-]*)\}`)

// Validate checks that the template contains every placeholder exactly once
// and nothing else that looks like a placeholder.
func Validate(tmpl domain.Template) error {
	counts := map[string]int{
		domain.PreludePlaceholder: 0,
		domain.ScriptPlaceholder:  0,
	}
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl.Text, -1) {
		name := m[1]
		if _, known := counts[name]; !known {
			return malformed(tmpl, "unknown placeholder", name)
		}
		counts[name]++
	}
	for _, name := range []string{domain.PreludePlaceholder, domain.ScriptPlaceholder} {
		switch counts[name] {
		case 1:
		case 0:
			return malformed(tmpl, "missing placeholder", name)
		default:
			return malformed(tmpl, "repeated placeholder", name)
		}
	}
	return nil
}

// Render substitutes the prelude and the script body into the template.
// Substitution is a single pass, so placeholder-like text inside the body
// is copied verbatim.
func Render(tmpl domain.Template, prelude, body string) (string, error) {
	if err := Validate(tmpl); err != nil {
		return "", err
	}

	out := placeholderRe.ReplaceAllStringFunc(tmpl.Text, func(token string) string {
		if token == "#{"+domain.PreludePlaceholder+"}" {
			return prelude
		}
		return body
	})
	return out, nil
}

// Prelude returns the crate imports for the given externs, one per line.
func Prelude(externs []domain.Extern) string {
	if len(externs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, e := range externs {
		if e.Alias != "" {
			fmt.Fprintf(&sb, "#[macro_use] extern crate %s as %s;\n", e.CrateName(), e.Alias)
			continue
		}
		fmt.Fprintf(&sb, "#[macro_use] extern crate %s;\n", e.CrateName())
	}
	return sb.String()
}

func malformed(tmpl domain.Template, msg, placeholder string) error {
	err := zerr.Wrap(domain.ErrTemplateMalformed, msg)
	err = zerr.With(err, "template", tmpl.Name)
	return zerr.With(err, "placeholder", placeholder)
}
