package manifest

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/zerr"
)

// NormalizeRequirement rewrites a version requirement into its explicit form.
// A bare version such as "1.2" means "^1.2", so both spellings produce the
// same requirement and the same fingerprint.
func NormalizeRequirement(req string) (string, error) {
	req = strings.TrimSpace(req)
	if req == "" || req == "*" {
		return "*", nil
	}

	parts := strings.Split(req, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" && part[0] >= '0' && part[0] <= '9' && !strings.ContainsAny(part, "*xX") {
			part = "^" + part
		}
		parts[i] = part
	}
	normalized := strings.Join(parts, ", ")

	if _, err := semver.NewConstraint(normalized); err != nil {
		return "", zerr.With(
			zerr.With(zerr.Wrap(domain.ErrInvalidDependency, "invalid version requirement"), "requirement", req),
			"cause", err.Error(),
		)
	}
	return normalized, nil
}

// accepts reports whether the requirement want admits the lowest version
// allowed by have. ok is false when either side cannot be compared.
func accepts(want, have string) (accepted, ok bool) {
	if want == "" || have == "" {
		return false, false
	}
	if strings.ContainsAny(have, ",<*xX") {
		return false, false
	}

	base := strings.TrimSpace(have)
	for _, op := range []string{">=", "^", "~", "="} {
		if rest, found := strings.CutPrefix(base, op); found {
			base = strings.TrimSpace(rest)
			break
		}
	}

	v, err := semver.NewVersion(base)
	if err != nil {
		return false, false
	}
	c, err := semver.NewConstraint(want)
	if err != nil {
		return false, false
	}
	return c.Check(v), true
}
