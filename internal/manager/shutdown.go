package manager

import (
	"context"
	"errors"
	"slices"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// Shutdown stops every running plugin in reverse start order. Only after all
// stops have returned does it release every arena, in reverse load order,
// drop the plugin contexts and clear the registry.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	running := slices.Clone(m.startOrder)
	m.mu.RUnlock()
	slices.Reverse(running)

	for _, id := range running {
		if err := m.Stop(ctx, id); err != nil {
			m.log.WithFields(map[string]any{"plugin_id": id}).Error(err, "stop during shutdown failed")
		}
	}

	type unloadTarget struct {
		id   string
		desc plugin.Descriptor
	}

	m.mu.Lock()
	order := slices.Clone(m.loadOrder)
	slices.Reverse(order)
	targets := make([]unloadTarget, 0, len(order))
	for _, id := range order {
		e, ok := m.plugins[id]
		if !ok || e.desc.Handle == nil {
			continue
		}
		e.busy = true
		targets = append(targets, unloadTarget{id: id, desc: e.desc})
	}
	m.mu.Unlock()

	var errs []error
	evs := make([]events.Event, 0, len(targets))
	for _, t := range targets {
		desc := t.desc
		if err := m.loader.Unload(&desc); err != nil {
			errs = append(errs, err)
			m.log.WithFields(map[string]any{"plugin_id": t.id}).Error(err, "unload failed")
		}

		m.mu.Lock()
		e := m.plugins[t.id]
		e.busy = false
		e.pctx = nil
		e.desc.Handle = nil
		e.desc.State = plugin.StateUnloaded
		e.desc.ErrorMessage = ""
		m.mu.Unlock()

		evs = append(evs, events.Event{Type: events.PluginUnloaded, PluginID: t.id, State: plugin.StateUnloaded})
	}

	m.mu.Lock()
	m.loadOrder = nil
	m.startOrder = nil
	m.mu.Unlock()
	m.registry.Clear()

	m.publish(ctx, evs...)
	m.log.WithFields(map[string]any{"unloaded": len(targets)}).Info("plugin runtime shut down")
	return errors.Join(errs...)
}
