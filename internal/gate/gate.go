// Package gate wraps host services in permission-checking facades. Each wrapper
// implements the same interface as the service it guards; a call that lacks a
// capability fails with *permission.Denied and never reaches the service.
package gate

import (
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// ErrUnavailable is returned when the host does not provide a service.
var ErrUnavailable = errors.New("service unavailable")

// Observer is told about every denied call.
type Observer func(pluginID, operation string, missing permission.Set)

// Guard holds the identity and grant every wrapper checks against.
type Guard struct {
	pluginID string
	granted  permission.Set
	observe  Observer
}

// NewGuard creates a guard for pluginID. observe may be nil.
func NewGuard(pluginID string, granted permission.Set, observe Observer) Guard {
	return Guard{pluginID: pluginID, granted: granted, observe: observe}
}

// PluginID returns the guarded plugin.
func (g Guard) PluginID() string { return g.pluginID }

// Granted returns the capabilities enforced by the guard.
func (g Guard) Granted() permission.Set { return g.granted }

// Check fails with *permission.Denied unless granted covers required.
func (g Guard) Check(operation string, required permission.Set) error {
	missing := g.granted.Missing(required)
	if missing.IsEmpty() {
		return nil
	}
	if g.observe != nil {
		g.observe(g.pluginID, operation, missing)
	}
	return &permission.Denied{PluginID: g.pluginID, Missing: missing}
}

func unavailable(service string) error {
	return fmt.Errorf("%s: %w", service, ErrUnavailable)
}

// Wrap guards every service in svcs. Nil services stay reachable through their
// wrapper but fail with ErrUnavailable once the permission check passes.
func Wrap(guard Guard, svcs host.Services) host.Services {
	return host.Services{
		Tasks:      NewTasks(guard, svcs.Tasks),
		Reminders:  NewReminders(guard, svcs.Reminders),
		DataBank:   NewDataBank(guard, svcs.DataBank),
		DataAssets: NewDataAssets(guard, svcs.DataAssets),
		Chat:       NewChat(guard, svcs.Chat),
		UI:         NewUI(guard, svcs.UI),
	}
}
