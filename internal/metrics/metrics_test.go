package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/gate"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

func TestEventsAndDenialsAreCounted(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.HandleEvent(ctx, events.Event{Type: events.PluginStarted}))
	require.NoError(t, c.HandleEvent(ctx, events.Event{Type: events.PluginStarted}))
	require.NoError(t, c.HandleEvent(ctx, events.Event{Type: events.PluginError}))

	var observe gate.Observer = c.Denied
	observe("weather", "tasks.create", permission.WriteTasks)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues("plugin.started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("plugin.error")))

	expected := `
# HELP deskmate_permission_denied_total Host service calls rejected by the capability gate.
# TYPE deskmate_permission_denied_total counter
deskmate_permission_denied_total{operation="tasks.create",plugin="weather"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "deskmate_permission_denied_total"))
}

func TestLifecycleDurationHistogram(t *testing.T) {
	t.Parallel()

	c, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	c.ObserveLifecycle("initialize", 5*time.Millisecond)
	c.ObserveLifecycle("initialize", 20*time.Millisecond)

	m := &dto.Metric{}
	require.NoError(t, c.duration.WithLabelValues("initialize").(prometheus.Histogram).Write(m))
	assert.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.025, m.GetHistogram().GetSampleSum(), 1e-9)
}

func TestRegisteringTwiceReusesCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.Denied("clock", "ui.toast", permission.Notifications)
	assert.Equal(t, 1.0, testutil.ToFloat64(second.denials.WithLabelValues("clock", "ui.toast")))
}

func TestNilCollectorIsInert(t *testing.T) {
	t.Parallel()

	var c *Collector
	assert.NoError(t, c.HandleEvent(context.Background(), events.Event{Type: events.PluginLoaded}))
	c.Denied("x", "ui.toast", permission.Notifications)
	c.ObserveLifecycle("start", time.Second)
}

func TestTrackArenas(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	open := 3
	require.NoError(t, TrackArenas(reg, func() int { return open }))

	expected := `
# HELP deskmate_plugin_arenas_open Plugin arenas currently alive.
# TYPE deskmate_plugin_arenas_open gauge
deskmate_plugin_arenas_open 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "deskmate_plugin_arenas_open"))
}
