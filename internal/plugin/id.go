package plugin

import (
	"fmt"
	"regexp"
	"strings"
)

const idMaxLength = 64

var (
	idPattern          = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	nonIdentifierRunes = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// ValidateID ensures id can be used as a plugin identifier and as a directory name.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("plugin ID cannot be empty")
	}
	if len(id) > idMaxLength {
		return fmt.Errorf("plugin ID %q is too long: maximum length is %d characters", id, idMaxLength)
	}
	if !idPattern.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid plugin ID %q: must match %s without '..'", id, idPattern.String())
	}
	return nil
}

// SanitizeID derives an identifier from an arbitrary name such as a repository URL
// segment. It returns "" when nothing usable remains.
func SanitizeID(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".git")
	sanitized := nonIdentifierRunes.ReplaceAllString(name, "-")
	for strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", ".")
	}
	sanitized = strings.Trim(sanitized, "-._")
	if len(sanitized) > idMaxLength {
		sanitized = strings.Trim(sanitized[:idMaxLength], "-._")
	}
	return sanitized
}
