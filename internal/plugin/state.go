package plugin

import (
	"encoding/json"
	"fmt"
	"strings"
)

// State is a position in the plugin lifecycle.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateInitialized
	StateRunning
	StateStopped
	StateError
)

var stateNames = [...]string{
	StateUnloaded:    "unloaded",
	StateLoaded:      "loaded",
	StateInitialized: "initialized",
	StateRunning:     "running",
	StateStopped:     "stopped",
	StateError:       "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState is the inverse of String.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return StateUnloaded, fmt.Errorf("unknown plugin state %q", name)
}

// CanTransition reports whether the lifecycle allows moving from s to next.
// Error is reachable from every active state.
func (s State) CanTransition(next State) bool {
	switch next {
	case StateLoaded:
		return s == StateUnloaded
	case StateInitialized:
		return s == StateLoaded
	case StateRunning:
		return s == StateInitialized
	case StateStopped:
		return s == StateRunning
	case StateError:
		return s == StateLoaded || s == StateInitialized || s == StateRunning
	case StateUnloaded:
		return true
	}
	return false
}

// MarshalJSON encodes the state by name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
