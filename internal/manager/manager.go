// Package manager drives plugins through their lifecycle: discovery, load,
// dependency-ordered initialize and start, and reverse-order shutdown.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/gate"
	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/metrics"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/registry"
	"github.com/alexisbeaulieu97/deskmate/internal/store"
)

// Loader is the part of the isolated loader the manager drives.
type Loader interface {
	Discover(ctx context.Context) ([]plugin.Descriptor, []error)
	Load(ctx context.Context, path string, granted permission.Set) plugin.Descriptor
	Unload(desc *plugin.Descriptor) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Plugin loggers derive from it.
func WithLogger(log *logger.Logger) Option {
	return func(m *Manager) { m.baseLog = log }
}

// WithPublisher sets where lifecycle events go.
func WithPublisher(p *events.Publisher) Option {
	return func(m *Manager) { m.events = p }
}

// WithMetrics records lifecycle durations, events and gate denials.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// WithRegistry shares reg with every plugin instead of a private registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(m *Manager) { m.registry = reg }
}

// WithNetwork sets the factory behind every plugin's HTTP client.
func WithNetwork(f *gate.ClientFactory) Option {
	return func(m *Manager) { m.network = f }
}

// WithLifecycleTimeout bounds each Initialize, Start and Stop call. The plugin
// sees the deadline through its context; the call is still awaited.
func WithLifecycleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// entry is the manager's record of one plugin.
type entry struct {
	desc plugin.Descriptor
	pctx *plugin.Context
	// busy is set while plugin code runs outside the lock.
	busy bool
}

// Manager owns every plugin descriptor. Its tables are guarded by mu, which is
// never held while plugin code runs; lifecycle calls are made one at a time on
// the caller's goroutine.
type Manager struct {
	loader   Loader
	store    *store.Store
	services host.Services
	registry *registry.Registry
	network  *gate.ClientFactory
	events   *events.Publisher
	metrics  *metrics.Collector
	baseLog  *logger.Logger
	log      *logger.Logger
	timeout  time.Duration

	mu         sync.RWMutex
	plugins    map[string]*entry
	order      []string
	loadOrder  []string
	startOrder []string
	discovery  []error
	ordering   plugin.Ordering
}

// New creates a manager over loader, the configuration store and the host services.
func New(loader Loader, st *store.Store, services host.Services, opts ...Option) *Manager {
	m := &Manager{
		loader:   loader,
		store:    st,
		services: services,
		plugins:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = registry.New()
	}
	if m.network == nil {
		m.network = gate.NewClientFactory(gate.DefaultClientTimeout)
	}
	if m.events == nil {
		m.events = events.NewPublisher(m.baseLog)
	}
	if m.metrics != nil {
		m.events.Subscribe(events.Any, m.metrics.HandleEvent)
	}
	m.log = m.baseLog.With("component", "manager")
	return m
}

// Events returns the publisher lifecycle events are sent to.
func (m *Manager) Events() *events.Publisher { return m.events }

// Registry returns the registry shared by every plugin.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Plugins returns snapshots of every known plugin in discovery order.
func (m *Manager) Plugins() []plugin.Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]plugin.Descriptor, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.plugins[id].desc.Snapshot())
	}
	return out
}

// Plugin returns a snapshot of one plugin.
func (m *Manager) Plugin(id string) (plugin.Descriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.plugins[id]
	if !ok {
		return plugin.Descriptor{}, false
	}
	return e.desc.Snapshot(), true
}

// Warnings returns the discovery errors of the last scan followed by the
// cycles, missing dependencies and version conflicts of the last ordering.
func (m *Manager) Warnings() []error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]error, 0, len(m.discovery)+len(m.ordering.Cycles)+len(m.ordering.Warnings))
	out = append(out, m.discovery...)
	for _, c := range m.ordering.Cycles {
		out = append(out, c)
	}
	return append(out, m.ordering.Warnings...)
}

// putLocked records desc, keeping the first-seen position of its ID.
func (m *Manager) putLocked(desc plugin.Descriptor) *entry {
	e, ok := m.plugins[desc.ID]
	if !ok {
		e = &entry{}
		m.plugins[desc.ID] = e
		m.order = append(m.order, desc.ID)
	}
	e.desc = desc
	return e
}

func (m *Manager) publish(ctx context.Context, evs ...events.Event) {
	for _, ev := range evs {
		m.events.Publish(ctx, ev)
	}
}

func loadedEvent(desc plugin.Descriptor) events.Event {
	if desc.State == plugin.StateError {
		return errorEvent(desc, nil)
	}
	return events.Event{Type: events.PluginLoaded, PluginID: desc.ID, State: desc.State}
}

func errorEvent(desc plugin.Descriptor, cause error) events.Event {
	return events.Event{
		Type:     events.PluginError,
		PluginID: desc.ID,
		State:    plugin.StateError,
		Message:  desc.ErrorMessage,
		Cause:    cause,
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
