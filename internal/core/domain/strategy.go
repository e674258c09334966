package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// ArtifactStrategy selects how the executable is found after a build.
type ArtifactStrategy string

const (
	// StrategyAccurate reads the artifact path from cargo's JSON messages.
	StrategyAccurate ArtifactStrategy = "accurate"
	// StrategyHeuristic probes the conventional target directory layout.
	StrategyHeuristic ArtifactStrategy = "heuristic"
)

// DefaultArtifactStrategy returns the strategy used when none is configured.
// Windows toolchains have reported artifact paths that do not exist on disk,
// so the layout is probed there instead.
func DefaultArtifactStrategy(goos string) ArtifactStrategy {
	if goos == "windows" {
		return StrategyHeuristic
	}
	return StrategyAccurate
}

// ParseArtifactStrategy converts a strategy name. An empty name yields the platform default.
func ParseArtifactStrategy(s, goos string) (ArtifactStrategy, error) {
	switch ArtifactStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultArtifactStrategy(goos), nil
	case StrategyAccurate:
		return StrategyAccurate, nil
	case StrategyHeuristic:
		return StrategyHeuristic, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidArtifactStrategy, "unknown artifact strategy"), "strategy", s)
	}
}
