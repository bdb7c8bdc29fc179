package manager

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/settings"
)

const (
	phaseInitialize = "initialize"
	phaseStart      = "start"
	phaseStop       = "stop"
)

// InitializeAll initializes every Loaded plugin, dependencies first. Each
// failure moves only that plugin (and plugins depending on it) to Error.
func (m *Manager) InitializeAll(ctx context.Context) []plugin.Descriptor {
	ordering := m.computeOrder()
	m.reportOrdering(ctx, ordering)

	for _, id := range ordering.IDs {
		if m.stateOf(id) == plugin.StateLoaded {
			_ = m.Initialize(ctx, id)
		}
	}
	return m.Plugins()
}

// StartAll starts every Initialized plugin, dependencies first.
func (m *Manager) StartAll(ctx context.Context) []plugin.Descriptor {
	for _, id := range m.computeOrder().IDs {
		if m.stateOf(id) == plugin.StateInitialized {
			_ = m.Start(ctx, id)
		}
	}
	return m.Plugins()
}

// Initialize builds the plugin's context and calls its Initialize. Only a
// Loaded plugin can be initialized.
func (m *Manager) Initialize(ctx context.Context, id string) error {
	return m.transition(ctx, id, phaseInitialize, plugin.StateInitialized,
		func(ctx context.Context, p plugin.Plugin, pctx *plugin.Context) error {
			return p.Initialize(ctx, pctx)
		})
}

// Start calls Start on an Initialized plugin.
func (m *Manager) Start(ctx context.Context, id string) error {
	return m.transition(ctx, id, phaseStart, plugin.StateRunning,
		func(ctx context.Context, p plugin.Plugin, _ *plugin.Context) error {
			return p.Start(ctx)
		})
}

// Stop calls Stop on a Running plugin.
func (m *Manager) Stop(ctx context.Context, id string) error {
	return m.transition(ctx, id, phaseStop, plugin.StateStopped,
		func(ctx context.Context, p plugin.Plugin, _ *plugin.Context) error {
			return p.Stop(ctx)
		})
}

type lifecycleCall func(ctx context.Context, p plugin.Plugin, pctx *plugin.Context) error

func (m *Manager) transition(ctx context.Context, id, phase string, to plugin.State, call lifecycleCall) error {
	m.mu.Lock()
	e, ok := m.plugins[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPluginNotFound, id)
	}
	if e.busy || !e.desc.State.CanTransition(to) || e.desc.Handle == nil {
		state := e.desc.State
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot %s plugin %q in state %s", ErrInvalidTransition, phase, id, state)
	}
	if phase != phaseStop {
		if dep := m.failedDependencyLocked(e.desc); dep != "" {
			err := &LifecycleError{PluginID: id, Phase: phase, Err: fmt.Errorf("dependency %q failed", dep)}
			e.desc.Fail(err.Error())
			ev := errorEvent(e.desc, err)
			m.mu.Unlock()
			m.publish(ctx, ev)
			return err
		}
	}
	e.busy = true
	desc := e.desc
	pctx := e.pctx
	m.mu.Unlock()

	var err error
	if phase == phaseInitialize {
		pctx, err = m.buildContext(desc)
	}
	if err == nil {
		instance := desc.Handle.Instance
		err = m.invoke(ctx, phase, func(ctx context.Context) error {
			return call(ctx, instance, pctx)
		})
	}

	m.mu.Lock()
	e.busy = false
	var ev events.Event
	if err != nil {
		err = &LifecycleError{PluginID: id, Phase: phase, Err: err}
		e.desc.Fail(err.Error())
		ev = errorEvent(e.desc, err)
	} else {
		e.desc.State = to
		e.desc.ErrorMessage = ""
		ev = events.Event{Type: phaseEvent(phase), PluginID: id, State: to}
	}
	switch {
	case phase == phaseInitialize && err == nil:
		e.pctx = pctx
	case phase == phaseStart && err == nil:
		m.startOrder = append(m.startOrder, id)
	case phase == phaseStop:
		m.startOrder = removeID(m.startOrder, id)
	}
	m.mu.Unlock()

	m.publish(ctx, ev)
	return err
}

// invoke runs plugin code, turning a panic into an error and applying the
// lifecycle timeout.
func (m *Manager) invoke(ctx context.Context, phase string, fn func(context.Context) error) (err error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		m.metrics.ObserveLifecycle(phase, time.Since(started))
	}()
	return fn(ctx)
}

func (m *Manager) buildContext(desc plugin.Descriptor) (*plugin.Context, error) {
	dataDir, err := m.store.PrivateDataDirectory(desc.ID)
	if err != nil {
		return nil, err
	}

	defaults := maps.Clone(desc.Settings)
	if defaults == nil {
		defaults = make(map[string]any)
	}
	if cfg, ok := m.store.Get(desc.ID); ok {
		maps.Copy(defaults, cfg.Settings)
	}
	st, err := settings.Open(dataDir, defaults)
	if err != nil {
		return nil, err
	}

	cfg := plugin.ContextConfig{
		PluginID: desc.ID,
		Granted:  desc.Granted,
		Services: m.services,
		Network:  m.network,
		Logger:   m.baseLog,
		Settings: st,
		Registry: m.registry,
		DataDir:  dataDir,
	}
	if m.metrics != nil {
		cfg.Observer = m.metrics.Denied
	}
	return plugin.NewContext(cfg), nil
}

func (m *Manager) failedDependencyLocked(desc plugin.Descriptor) string {
	for _, dep := range desc.Dependencies {
		if d, ok := m.plugins[dep.ID]; ok && d.desc.State == plugin.StateError {
			return dep.ID
		}
	}
	return ""
}

func (m *Manager) stateOf(id string) plugin.State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.plugins[id]; ok {
		return e.desc.State
	}
	return plugin.StateUnloaded
}

// computeOrder orders every known plugin. Plugins that are not loaded still
// take part so that a failed dependency is seen by its dependents.
func (m *Manager) computeOrder() plugin.Ordering {
	m.mu.Lock()
	defer m.mu.Unlock()

	descs := make([]plugin.Descriptor, 0, len(m.order))
	for _, id := range m.order {
		descs = append(descs, m.plugins[id].desc)
	}
	m.ordering = plugin.OrderDescriptors(descs)
	return m.ordering
}

func (m *Manager) reportOrdering(ctx context.Context, ordering plugin.Ordering) {
	for _, cycle := range ordering.Cycles {
		pluginID := ""
		if len(cycle.Cycle) > 0 {
			pluginID = cycle.Cycle[0]
		}
		m.publish(ctx, events.Event{
			Type:     events.CircularDependency,
			PluginID: pluginID,
			State:    m.stateOf(pluginID),
			Message:  cycle.Error(),
			Cause:    cycle,
		})
	}
	for _, w := range ordering.Warnings {
		m.log.Warn(w.Error())
	}
}

func phaseEvent(phase string) events.Type {
	switch phase {
	case phaseInitialize:
		return events.PluginInitialized
	case phaseStart:
		return events.PluginStarted
	default:
		return events.PluginStopped
	}
}
