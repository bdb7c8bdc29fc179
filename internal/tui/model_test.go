package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

type fakeSource struct {
	plugins  []plugin.Descriptor
	warnings []error
	calls    int
}

func (f *fakeSource) Plugins() []plugin.Descriptor {
	f.calls++
	return f.plugins
}

func (f *fakeSource) Warnings() []error { return f.warnings }

func newSource() *fakeSource {
	return &fakeSource{plugins: []plugin.Descriptor{
		{ID: "clock", Version: "1.0.0", State: plugin.StateRunning, Runtime: plugin.RuntimeLua},
		{ID: "weather", Version: "0.2.0", State: plugin.StateError, ErrorMessage: "initialize: boom"},
		{
			ID: "notes", Version: "2.1.0", State: plugin.StateLoaded,
			RequiredPermissions: permission.ReadTasks | permission.Network,
			Granted:             permission.ReadTasks,
		},
	}}
}

func TestEventMsgRefreshesAndRecords(t *testing.T) {
	t.Parallel()

	src := newSource()
	stream := make(chan events.Event, 1)
	m := NewModel(src, stream)
	require.Equal(t, 1, src.calls)

	src.plugins[0].State = plugin.StateStopped
	updated, cmd := m.Update(EventMsg{Event: events.Event{Type: events.PluginStopped, PluginID: "clock"}})
	m = updated.(Model)

	require.NotNil(t, cmd, "the model keeps listening for events")
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, plugin.StateStopped, m.Plugins()[0].State)
	require.Len(t, m.Recent(), 1)
	assert.Equal(t, "clock", m.Recent()[0].PluginID)

	stream <- events.Event{Type: events.PluginUnloaded, PluginID: "clock"}
	msg := cmd()
	assert.Equal(t, events.PluginUnloaded, msg.(EventMsg).Event.Type)
}

func TestRecentEventsAreBounded(t *testing.T) {
	t.Parallel()

	m := NewModel(newSource(), nil)
	for i := 0; i < maxRecent+5; i++ {
		updated, _ := m.Update(EventMsg{Event: events.Event{Type: events.PluginLoaded, PluginID: string(rune('a' + i))}})
		m = updated.(Model)
	}

	require.Len(t, m.Recent(), maxRecent)
	assert.Equal(t, string(rune('a'+5)), m.Recent()[0].PluginID)
}

func TestStreamClosed(t *testing.T) {
	t.Parallel()

	stream := make(chan events.Event)
	close(stream)
	m := NewModel(newSource(), stream)

	msg := waitForEvent(stream)()
	updated, cmd := m.Update(msg)
	assert.Nil(t, cmd)
	assert.True(t, updated.(Model).closed)
	assert.Nil(t, waitForEvent(nil))
}

func TestKeysQuit(t *testing.T) {
	t.Parallel()

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	} {
		m := NewModel(newSource(), nil)
		updated, cmd := m.Update(key)
		require.NotNil(t, cmd, key.String())
		assert.True(t, updated.(Model).Quitting())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestSpinnerTick(t *testing.T) {
	t.Parallel()

	m := NewModel(newSource(), nil)
	_, cmd := m.Update(spinner.TickMsg{ID: m.spinner.ID()})
	assert.NotNil(t, cmd)
}

func TestViewRendersPlugins(t *testing.T) {
	t.Parallel()

	src := newSource()
	src.warnings = []error{errors.New("circular dependency: a -> b -> a")}
	m := NewModel(src, nil)
	updated, _ := m.Update(EventMsg{Event: events.Event{
		Type: events.PluginError, PluginID: "weather", Message: "initialize: boom", Time: time.Now(),
	}})

	view := updated.(Model).View()
	for _, want := range []string{
		"Deskmate • plugins",
		"clock", "running", "lua",
		"weather", "error", "initialize: boom",
		"notes", "loaded", "missing network",
		"Warnings", "circular dependency: a -> b -> a",
		"Events", "plugin.error",
		"q quit",
	} {
		assert.Contains(t, view, want)
	}
}

func TestViewEmpty(t *testing.T) {
	t.Parallel()

	view := NewModel(&fakeSource{}, nil).View()
	assert.Contains(t, view, "No plugins discovered.")
	assert.NotContains(t, view, "Warnings")
}

func TestSubscribeForwardsEvents(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := events.NewPublisher(logger.Discard())
	stream, sub := Subscribe(ctx, pub, 4)
	defer sub.Unsubscribe()

	pub.Publish(ctx, events.Event{Type: events.PluginStarted, PluginID: "clock"})

	select {
	case ev := <-stream:
		assert.Equal(t, events.PluginStarted, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("event was not forwarded")
	}
}
