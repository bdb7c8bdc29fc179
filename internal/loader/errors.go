package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNoManifest reports a plugin module without a manifest describing it.
	ErrNoManifest = errors.New("no plugin manifest found")
	// ErrNoEngine reports a module no registered runtime can execute.
	ErrNoEngine = errors.New("no runtime handles this module")
	// ErrDuplicateID reports a second candidate declaring an ID already discovered.
	ErrDuplicateID = errors.New("duplicate plugin id")
	// ErrUnknownBuiltin reports a builtin: path naming no registered builtin.
	ErrUnknownBuiltin = errors.New("unknown builtin plugin")

	// errNotCandidate marks files that are not plugin entry points, such as
	// private helper modules next to a plugin.
	errNotCandidate = errors.New("not a plugin candidate")
)

// DiscoveryError describes a candidate module that was skipped during discovery.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("discover %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LoadError describes a module that was found but could not be activated.
type LoadError struct {
	Path     string
	PluginID string
	Err      error
}

func (e *LoadError) Error() string {
	if e == nil {
		return ""
	}
	if e.PluginID != "" {
		return fmt.Sprintf("load plugin %q from %s: %v", e.PluginID, e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
