// Package tui renders a live view of the plugin runtime with Bubbletea.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// maxRecent bounds the event log shown under the plugin table.
const maxRecent = 8

// Source exposes the runtime state the dashboard renders.
type Source interface {
	Plugins() []plugin.Descriptor
	Warnings() []error
}

// EventMsg delivers a runtime event to the model.
type EventMsg struct {
	Event events.Event
}

// streamClosedMsg signals that no further events will arrive.
type streamClosedMsg struct{}

// Model is the Bubbletea state of the plugin dashboard.
type Model struct {
	source   Source
	stream   <-chan events.Event
	spinner  spinner.Model
	plugins  []plugin.Descriptor
	warnings []error
	recent   []events.Event
	width    int
	closed   bool
	quitting bool
}

// NewModel builds a dashboard over source. stream may be nil for a static view.
func NewModel(source Source, stream <-chan events.Event) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := Model{source: source, stream: stream, spinner: s}
	m.refresh()
	return m
}

// Init starts the spinner and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.stream))
}

// Plugins returns the descriptors currently displayed.
func (m Model) Plugins() []plugin.Descriptor { return m.plugins }

// Recent returns the most recent events, oldest first.
func (m Model) Recent() []events.Event { return m.recent }

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool { return m.quitting }

func (m *Model) refresh() {
	if m.source == nil {
		return
	}
	m.plugins = m.source.Plugins()
	m.warnings = m.source.Warnings()
}

func (m *Model) record(ev events.Event) {
	m.recent = append(m.recent, ev)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

// busy reports whether a plugin is between load and start.
func (m Model) busy() bool {
	for _, d := range m.plugins {
		if d.State == plugin.StateLoaded || d.State == plugin.StateInitialized {
			return true
		}
	}
	return false
}

func waitForEvent(stream <-chan events.Event) tea.Cmd {
	if stream == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-stream
		if !ok {
			return streamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// Subscribe forwards every event of pub into a buffered channel until ctx is
// done. Cancel ctx and call Unsubscribe on the subscription to stop.
func Subscribe(ctx context.Context, pub *events.Publisher, buffer int) (<-chan events.Event, events.Subscription) {
	ch := make(chan events.Event, buffer)
	sub := pub.Subscribe(events.Any, func(_ context.Context, ev events.Event) error {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
		return nil
	})
	return ch, sub
}
