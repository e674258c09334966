package domain

import "fmt"

// MigrationKind selects between planning and executing a migration.
type MigrationKind int

const (
	// DryRun computes the plan without touching the filesystem.
	DryRun MigrationKind = iota
	// Apply executes the plan.
	Apply
)

// MigrationAction is the operation a single migration step performs.
type MigrationAction string

const (
	// ActionMove renames From to To.
	ActionMove MigrationAction = "move"
	// ActionRemoveDir removes the empty directory From.
	ActionRemoveDir MigrationAction = "remove"
	// ActionWriteMarker records the current layout version in To.
	ActionWriteMarker MigrationAction = "mark"
)

// MigrationStep is one filesystem change of a migration plan.
type MigrationStep struct {
	Action MigrationAction
	From   string
	To     string
}

func (s MigrationStep) String() string {
	switch s.Action {
	case ActionMove:
		return fmt.Sprintf("move %s -> %s", s.From, s.To)
	case ActionRemoveDir:
		return fmt.Sprintf("remove %s", s.From)
	case ActionWriteMarker:
		return fmt.Sprintf("mark %s as layout %d", s.To, CurrentLayoutVersion)
	default:
		return string(s.Action)
	}
}

// MigrationFailure records a step that could not be applied.
type MigrationFailure struct {
	Step MigrationStep
	Err  error
}

// MigrationReport describes a planned or executed migration.
type MigrationReport struct {
	Kind     MigrationKind
	Steps    []MigrationStep
	Applied  []MigrationStep
	Failures []MigrationFailure
}

// UpToDate reports whether there was nothing to do.
func (r MigrationReport) UpToDate() bool {
	return len(r.Steps) == 0
}
