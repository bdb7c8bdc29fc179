package manager

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// Discover scans for plugins and records every new one as Unloaded. Plugins
// that are already loaded, or failed earlier in the session, keep their state.
func (m *Manager) Discover(ctx context.Context) []plugin.Descriptor {
	descs, errs := m.loader.Discover(ctx)

	m.mu.Lock()
	m.discovery = errs
	for _, d := range descs {
		if e, ok := m.plugins[d.ID]; ok && (e.desc.Handle != nil || e.desc.State == plugin.StateError) {
			continue
		}
		d.State = plugin.StateUnloaded
		m.putLocked(d)
	}
	m.mu.Unlock()

	out := make([]plugin.Descriptor, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Snapshot())
	}
	return out
}

// LoadPlugin loads the module at path with granted capabilities and records
// the result. A failed load is recorded in the Error state and stays out of
// later initialize and start batches.
func (m *Manager) LoadPlugin(ctx context.Context, path string, granted permission.Set) plugin.Descriptor {
	desc := m.loader.Load(ctx, path, granted)

	m.mu.Lock()
	if e, ok := m.plugins[desc.ID]; ok && (e.desc.Handle != nil || e.busy) {
		existing := e.desc.Path
		m.mu.Unlock()
		if err := m.loader.Unload(&desc); err != nil {
			m.log.Error(err, "release duplicate plugin")
		}
		desc.Fail(fmt.Sprintf("plugin %q is already loaded from %s", desc.ID, existing))
		m.publish(ctx, errorEvent(desc, nil))
		return desc.Snapshot()
	}
	m.putLocked(desc)
	if desc.State == plugin.StateLoaded {
		m.loadOrder = append(m.loadOrder, desc.ID)
	}
	m.mu.Unlock()

	m.publish(ctx, loadedEvent(desc))
	return desc.Snapshot()
}

// LoadAll discovers plugins and loads each enabled one with the capabilities
// granted in the configuration store. Disabled plugins stay Unloaded. One
// failure never stops the batch.
func (m *Manager) LoadAll(ctx context.Context) []plugin.Descriptor {
	for _, d := range m.Discover(ctx) {
		if err := ctx.Err(); err != nil {
			m.log.Error(err, "load cancelled")
			break
		}
		if m.isLoaded(d.ID) {
			continue
		}

		cfg, err := m.store.GetOrCreate(d.ID)
		if err != nil {
			m.recordFailure(ctx, d, fmt.Errorf("configuration: %w", err))
			continue
		}
		if !cfg.Enabled {
			m.log.WithFields(map[string]any{"plugin_id": d.ID}).Info("plugin disabled, not loading")
			continue
		}
		m.LoadPlugin(ctx, d.Path, cfg.Granted)
	}

	if m.store.Dirty() {
		if err := m.store.Save(); err != nil {
			m.log.Error(err, "failed to persist plugin configuration")
		}
	}
	return m.Plugins()
}

func (m *Manager) isLoaded(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.plugins[id]
	return ok && e.desc.Handle != nil
}

func (m *Manager) recordFailure(ctx context.Context, desc plugin.Descriptor, err error) {
	desc.Fail(err.Error())
	m.mu.Lock()
	m.putLocked(desc)
	m.mu.Unlock()
	m.publish(ctx, errorEvent(desc, err))
}
