package plugin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// VersionConstraint restricts a dependency to a single major version.
type VersionConstraint struct {
	MajorVersion int
}

// ParseVersionConstraint parses a string in the form "N.x".
func ParseVersionConstraint(s string) (*VersionConstraint, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("version constraint string is empty")
	}

	parts := strings.Split(trimmed, ".")
	if len(parts) != 2 || parts[1] != "x" {
		return nil, fmt.Errorf("invalid version constraint '%s' (expected format: N.x)", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return nil, fmt.Errorf("invalid major version in constraint '%s'", s)
	}
	return &VersionConstraint{MajorVersion: major}, nil
}

// Satisfies reports whether version has the constrained major version.
func (vc *VersionConstraint) Satisfies(version string) bool {
	if vc == nil {
		return true
	}
	major, ok := parseMajor(version)
	return ok && major == vc.MajorVersion
}

func (vc *VersionConstraint) String() string {
	if vc == nil {
		return ""
	}
	return fmt.Sprintf("%d.x", vc.MajorVersion)
}

func parseMajor(version string) (int, bool) {
	head, _, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(version), "v"), ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return major, true
}

// Dependency is a declared requirement on another plugin, written "ID" or "ID@N.x".
type Dependency struct {
	ID         string
	Constraint *VersionConstraint
}

// ParseDependency parses one manifest dependency entry.
func ParseDependency(raw string) (Dependency, error) {
	id, constraint, hasConstraint := strings.Cut(strings.TrimSpace(raw), "@")
	if err := ValidateID(id); err != nil {
		return Dependency{}, fmt.Errorf("dependency %q: %w", raw, err)
	}
	dep := Dependency{ID: id}
	if hasConstraint {
		vc, err := ParseVersionConstraint(constraint)
		if err != nil {
			return Dependency{}, fmt.Errorf("dependency %q: %w", raw, err)
		}
		dep.Constraint = vc
	}
	return dep, nil
}

func (d Dependency) String() string {
	if d.Constraint == nil {
		return d.ID
	}
	return d.ID + "@" + d.Constraint.String()
}

// MarshalJSON encodes the dependency in its manifest form.
func (d Dependency) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the manifest form.
func (d *Dependency) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDependency(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
