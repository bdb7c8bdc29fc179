package manager

import (
	"fmt"

	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// Enable marks id to load on the next load cycle. The live state of an
// already loaded plugin is not touched.
func (m *Manager) Enable(id string) error {
	return m.persist(m.store.SetEnabled(id, true))
}

// Disable keeps id from loading on the next load cycle.
func (m *Manager) Disable(id string) error {
	return m.persist(m.store.SetEnabled(id, false))
}

// UpdatePermissions replaces the capabilities granted to id. A loaded plugin
// keeps enforcing its current grant until it is loaded again.
func (m *Manager) UpdatePermissions(id string, granted permission.Set) error {
	return m.persist(m.store.SetGranted(id, granted))
}

func (m *Manager) persist(err error) error {
	if err != nil {
		return err
	}
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("persist plugin configuration: %w", err)
	}
	return nil
}
