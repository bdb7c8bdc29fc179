package manager

import (
	"errors"
	"fmt"
)

var (
	// ErrPluginNotFound is returned for IDs the manager has never seen.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrInvalidTransition is returned when a lifecycle call does not match the
	// plugin's current state. The state is left unchanged.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
)

// LifecycleError wraps a failure raised by plugin code during a lifecycle call.
type LifecycleError struct {
	PluginID string
	Phase    string
	Err      error
}

func (e *LifecycleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin %q failed to %s: %v", e.PluginID, e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
