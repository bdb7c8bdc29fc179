package plugin

import (
	"fmt"
	"strings"
)

// CircularDependencyWarning records a dependency cycle found while ordering.
// Every plugin in the cycle is still scheduled exactly once.
type CircularDependencyWarning struct {
	Cycle []string
}

func (e CircularDependencyWarning) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected\nHint: review plugin dependencies to remove cycles"
	}

	sequence := append(append([]string{}, e.Cycle...), e.Cycle[0])
	return fmt.Sprintf(
		"circular dependency detected: %s\nHint: break the cycle by removing one of the dependencies",
		strings.Join(sequence, " -> "),
	)
}

// MissingDependencyWarning records a declared dependency that was not discovered.
// It is ignored for ordering.
type MissingDependencyWarning struct {
	Plugin     string
	Dependency string
}

func (e MissingDependencyWarning) Error() string {
	return fmt.Sprintf(
		"plugin '%s' declares dependency '%s' which was not discovered\nHint: install '%s' or remove it from the manifest",
		e.Plugin,
		e.Dependency,
		e.Dependency,
	)
}

// VersionConflictWarning records a dependency whose discovered version does not
// satisfy the declared constraint.
type VersionConflictWarning struct {
	Plugin        string
	Dependency    string
	Constraint    string
	ActualVersion string
}

func (e VersionConflictWarning) Error() string {
	return fmt.Sprintf(
		"plugin '%s' requires %s %s but %s is installed\nHint: align plugin versions or relax the constraint",
		e.Plugin,
		e.Dependency,
		e.Constraint,
		e.ActualVersion,
	)
}
