// Package manifest extracts dependency metadata embedded in scripts and merges
// it into the manifest of the generated package.
package manifest

import (
	"errors"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
)

// shortHandRe matches the dependency line that may open a script.
var shortHandRe = regexp.MustCompile(`^\s*//\s*(?:cargo-deps|deps|dep)\s*:(.*)$`)

const fenceTag = "cargo"

// Extract finds the manifest embedded in a script or template.
//
// Two forms are recognized. The short-hand form is a comment on the first
// non-hashbang line listing name[=version] pairs. The fenced form is a
// ```cargo block inside the leading doc comments, parsed as TOML.
// A script using both forms is rejected.
func Extract(text string) (domain.EmbeddedManifest, error) {
	lines := splitLines(text)
	start := 0
	if len(lines) > 0 && IsHashbang(lines[0]) {
		start = 1
	}

	var shortHand []domain.Dependency
	hasShortHand := false
	if start < len(lines) {
		if m := shortHandRe.FindStringSubmatch(lines[start]); m != nil {
			deps, err := parseShortHand(m[1])
			if err != nil {
				return domain.EmbeddedManifest{}, zerr.With(err, "line", start+1)
			}
			shortHand = deps
			hasShortHand = true
			start++
		}
	}

	fence, fenceLine, hasFence := findFence(lines[start:])
	if hasShortHand && hasFence {
		return domain.EmbeddedManifest{}, zerr.With(
			zerr.Wrap(domain.ErrManifestParse, "script declares both a short-hand and a fenced manifest"),
			"line", start+fenceLine+1,
		)
	}

	switch {
	case hasShortHand:
		return domain.EmbeddedManifest{Dependencies: shortHand}, nil
	case hasFence:
		m, err := parseFence(fence)
		if err != nil {
			return domain.EmbeddedManifest{}, withFenceLine(err, start+fenceLine+1)
		}
		return m, nil
	default:
		return domain.EmbeddedManifest{}, nil
	}
}

// IsHashbang reports whether line is an interpreter line rather than an inner attribute.
func IsHashbang(line string) bool {
	return strings.HasPrefix(line, "#!") && !strings.HasPrefix(line, "#![")
}

// StripHashbang removes a leading hashbang line, keeping the line count intact.
func StripHashbang(text string) string {
	first, rest, found := strings.Cut(text, "\n")
	if !IsHashbang(first) {
		return text
	}
	if !found {
		return ""
	}
	return "\n" + rest
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func parseShortHand(list string) ([]domain.Dependency, error) {
	var deps []domain.Dependency
	seen := make(map[string]domain.DependencySpec)
	for item := range strings.SplitSeq(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		dep, err := domain.ParseDependency(item)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrManifestParse, "invalid short-hand dependency"), "dependency", item)
		}
		if prev, ok := seen[dep.Name]; ok {
			if !prev.Equal(dep.Spec) {
				return nil, zerr.With(
					zerr.With(zerr.Wrap(domain.ErrManifestConflict, "dependency listed twice"), "dependency", dep.Name),
					"specs", prev.String()+" vs "+dep.Spec.String(),
				)
			}
			continue
		}
		seen[dep.Name] = dep.Spec
		deps = append(deps, dep)
	}
	return deps, nil
}

// findFence scans the leading comment block for a ```cargo fence.
// It returns the fence body and the index of its opening line.
func findFence(lines []string) (string, int, bool) {
	var doc []string
	var docLine []int

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "//!"):
			doc = append(doc, stripPrefix(trimmed, "//!"))
			docLine = append(docLine, i)
		case strings.HasPrefix(trimmed, "/*!"):
			body := strings.TrimPrefix(trimmed, "/*!")
			for {
				text, closed := strings.CutSuffix(strings.TrimSpace(body), "*/")
				if closed {
					body = text
				}
				doc = append(doc, stripBlockLine(body))
				docLine = append(docLine, i)
				if closed || i+1 >= len(lines) {
					break
				}
				i++
				body = lines[i]
			}
		case strings.HasPrefix(trimmed, "//"):
		default:
			i = len(lines)
			continue
		}
		i++
	}

	for j := 0; j < len(doc); j++ {
		if strings.TrimSpace(doc[j]) != "```"+fenceTag {
			continue
		}
		var body []string
		for k := j + 1; k < len(doc); k++ {
			if strings.TrimSpace(doc[k]) == "```" {
				return strings.Join(body, "\n"), docLine[j], true
			}
			body = append(body, doc[k])
		}
		return strings.Join(body, "\n"), docLine[j], true
	}
	return "", 0, false
}

func stripPrefix(line, prefix string) string {
	line = strings.TrimPrefix(line, prefix)
	return strings.TrimPrefix(line, " ")
}

func stripBlockLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "*") && !strings.HasPrefix(trimmed, "*/") {
		return stripPrefix(trimmed, "*")
	}
	return line
}

func parseFence(body string) (domain.EmbeddedManifest, error) {
	var doc map[string]any
	md, err := toml.Decode(body, &doc)
	if err != nil {
		return domain.EmbeddedManifest{}, err
	}

	m := domain.EmbeddedManifest{}
	if raw, ok := doc[domain.DependenciesKey]; ok {
		table, ok := raw.(map[string]any)
		if !ok {
			return domain.EmbeddedManifest{}, zerr.Wrap(domain.ErrManifestParse, "[dependencies] must be a table")
		}
		deps, err := dependenciesInOrder(table, md)
		if err != nil {
			return domain.EmbeddedManifest{}, err
		}
		m.Dependencies = deps
		delete(doc, domain.DependenciesKey)
	}
	if len(doc) > 0 {
		m.Fragment = doc
	}
	return m, nil
}

// dependenciesInOrder returns the dependency table in declaration order.
// Dotted keys and [dependencies.name] tables count at their first key.
func dependenciesInOrder(table map[string]any, md toml.MetaData) ([]domain.Dependency, error) {
	deps := make([]domain.Dependency, 0, len(table))
	seen := make(map[string]bool, len(table))
	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != domain.DependenciesKey || seen[key[1]] {
			continue
		}
		name := key[1]
		seen[name] = true
		spec, err := specFromValue(name, table[name])
		if err != nil {
			return nil, err
		}
		deps = append(deps, domain.Dependency{Name: name, Spec: spec})
	}
	return deps, nil
}

func specFromValue(name string, v any) (domain.DependencySpec, error) {
	if !domain.IsValidCrateName(name) {
		return domain.DependencySpec{}, zerr.With(zerr.Wrap(domain.ErrManifestParse, "invalid dependency name"), "dependency", name)
	}
	switch val := v.(type) {
	case string:
		return domain.VersionSpec(val), nil
	case map[string]any:
		return domain.DependencySpec{Table: val}, nil
	default:
		return domain.DependencySpec{}, zerr.With(
			zerr.Wrap(domain.ErrManifestParse, "dependency must be a version string or a table"),
			"dependency", name,
		)
	}
}

// withFenceLine converts a TOML decoding error into a manifest parse error
// carrying the script line it refers to.
func withFenceLine(err error, fenceLine int) error {
	if errors.Is(err, domain.ErrManifestParse) {
		return zerr.With(err, "line", fenceLine)
	}

	line := fenceLine
	var perr toml.ParseError
	if errors.As(err, &perr) {
		line = fenceLine + perr.Position.Line
	}
	return zerr.With(
		zerr.With(zerr.Wrap(domain.ErrManifestParse, "invalid TOML in fenced manifest"), "line", line),
		"cause", err.Error(),
	)
}
