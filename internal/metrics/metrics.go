// Package metrics exposes plugin runtime counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

const namespace = "deskmate"

// Collector holds the runtime's collectors. A nil *Collector records nothing.
type Collector struct {
	events   *prometheus.CounterVec
	denials  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_events_total",
			Help:      "Plugin lifecycle events by type.",
		}, []string{"type"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_denied_total",
			Help:      "Host service calls rejected by the capability gate.",
		}, []string{"plugin", "operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plugin_lifecycle_duration_seconds",
			Help:      "Time spent in plugin lifecycle calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"phase"}),
	}

	var err error
	if c.events, err = register(reg, c.events); err != nil {
		return nil, err
	}
	if c.denials, err = register(reg, c.denials); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	return c, nil
}

// register returns the collector already registered under the same
// descriptor when there is one, so several runtimes can share a registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// HandleEvent counts a lifecycle event. It has the events.Handler signature.
func (c *Collector) HandleEvent(_ context.Context, e events.Event) error {
	if c == nil {
		return nil
	}
	c.events.WithLabelValues(string(e.Type)).Inc()
	return nil
}

// Denied counts a gate denial. It has the gate.Observer signature.
func (c *Collector) Denied(pluginID, operation string, _ permission.Set) {
	if c == nil {
		return
	}
	c.denials.WithLabelValues(pluginID, operation).Inc()
}

// ObserveLifecycle records how long a lifecycle phase took for one plugin.
func (c *Collector) ObserveLifecycle(phase string, d time.Duration) {
	if c == nil {
		return
	}
	c.duration.WithLabelValues(phase).Observe(d.Seconds())
}

// TrackArenas exports a gauge reading the number of live plugin arenas.
func TrackArenas(reg prometheus.Registerer, open func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "plugin_arenas_open",
		Help:      "Plugin arenas currently alive.",
	}, func() float64 { return float64(open()) }))
}
