package plugin

import (
	"slices"

	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// Descriptor is the metadata record for a discovered or loaded plugin.
type Descriptor struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Version             string         `json:"version"`
	Author              string         `json:"author,omitempty"`
	Description         string         `json:"description,omitempty"`
	Dependencies        []Dependency   `json:"dependencies,omitempty"`
	RequiredPermissions permission.Set `json:"required_permissions"`
	Granted             permission.Set `json:"granted"`
	State               State          `json:"state"`
	ErrorMessage        string         `json:"error,omitempty"`
	IsBuiltIn           bool           `json:"builtin"`
	Runtime             Runtime        `json:"runtime"`
	Path                string         `json:"path"`
	Settings            map[string]any `json:"-"`

	// Handle is set while the plugin's arena is alive.
	Handle *Handle `json:"-"`
}

// DependencyIDs lists the declared dependency identifiers in declaration order.
func (d Descriptor) DependencyIDs() []string {
	ids := make([]string, 0, len(d.Dependencies))
	for _, dep := range d.Dependencies {
		ids = append(ids, dep.ID)
	}
	return ids
}

// MissingPermissions returns the required capabilities the plugin was not granted.
func (d Descriptor) MissingPermissions() permission.Set {
	return d.Granted.Missing(d.RequiredPermissions)
}

// Snapshot copies d without its live handle, safe to hand to callers.
func (d Descriptor) Snapshot() Descriptor {
	d.Handle = nil
	d.Dependencies = slices.Clone(d.Dependencies)
	d.Settings = nil
	return d
}

// Fail moves d to the error state with msg.
func (d *Descriptor) Fail(msg string) {
	d.State = StateError
	d.ErrorMessage = msg
}
