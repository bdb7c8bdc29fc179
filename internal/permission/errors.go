package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Denied is returned by a gated call when the caller lacks capabilities.
type Denied struct {
	PluginID string
	Missing  Set
}

func (e *Denied) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("permission denied for plugin %q: missing %s\nHint: grant it with `deskmate grant %s %s`",
		e.PluginID, e.Missing, e.PluginID, strings.Join(e.Missing.Names(), " "))
}

// IsDenied reports whether err carries a Denied error.
func IsDenied(err error) bool {
	var denied *Denied
	return errors.As(err, &denied)
}
