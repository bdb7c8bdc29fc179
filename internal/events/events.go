// Package events delivers plugin lifecycle events to subscribers.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// Type names a lifecycle event.
type Type string

const (
	// PluginLoaded is emitted when a plugin's arena is open and its entry activated.
	PluginLoaded Type = "plugin.loaded"
	// PluginInitialized is emitted after a successful Initialize.
	PluginInitialized Type = "plugin.initialized"
	// PluginStarted is emitted after a successful Start.
	PluginStarted Type = "plugin.started"
	// PluginStopped is emitted after Stop returns.
	PluginStopped Type = "plugin.stopped"
	// PluginUnloaded is emitted once a plugin's arena has been released.
	PluginUnloaded Type = "plugin.unloaded"
	// PluginError is emitted whenever a plugin moves to the Error state.
	PluginError Type = "plugin.error"
	// CircularDependency is emitted for each dependency cycle found while ordering.
	CircularDependency Type = "plugin.circular_dependency"

	// Any subscribes a handler to every event type.
	Any Type = "*"
)

// Event describes one lifecycle occurrence.
type Event struct {
	ID       uuid.UUID
	Type     Type
	PluginID string
	State    plugin.State
	Message  string
	Cause    error
	Time     time.Time
}

// Handler reacts to an event. Returned errors are logged and do not stop
// delivery to other handlers.
type Handler func(context.Context, Event) error

// Subscription is a registered handler.
type Subscription interface {
	Unsubscribe()
}

// Publisher dispatches events synchronously: Publish returns after every
// handler has run. It logs each event through the structured logger.
type Publisher struct {
	log    *logger.Logger
	subs   map[Type][]subscriptionEntry
	nextID int
	mu     sync.RWMutex
}

// NewPublisher creates a publisher that logs every event to log.
func NewPublisher(log *logger.Logger) *Publisher {
	return &Publisher{
		log:  log.With("component", "events"),
		subs: make(map[Type][]subscriptionEntry),
	}
}

// Publish stamps the event with an ID and time when missing, logs it and
// hands it to the subscribers of its type followed by those of Any.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	p.mu.RLock()
	handlers := append([]subscriptionEntry(nil), p.subs[event.Type]...)
	handlers = append(handlers, p.subs[Any]...)
	p.mu.RUnlock()

	fields := map[string]any{
		"event_id":   event.ID.String(),
		"event_type": string(event.Type),
		"plugin_id":  event.PluginID,
		"state":      event.State.String(),
	}
	if event.Message != "" {
		fields["detail"] = event.Message
	}
	if event.Type == PluginError || event.Type == CircularDependency {
		p.log.WithFields(fields).Error(event.Cause, "plugin event")
	} else {
		p.log.WithFields(fields).Info("plugin event")
	}

	for _, entry := range handlers {
		if err := p.deliver(ctx, entry.handler, event); err != nil {
			p.log.WithFields(map[string]any{"event_type": string(event.Type)}).Error(err, "event handler failed")
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, handler Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, event)
}

// Subscribe registers handler for events of type t, or all events when t is Any.
func (p *Publisher) Subscribe(t Type, handler Handler) Subscription {
	if p == nil || handler == nil {
		return noopSubscription{}
	}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[t] = append(p.subs[t], subscriptionEntry{id: id, handler: handler})
	p.mu.Unlock()

	return &subscription{
		cancel: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			handlers := p.subs[t]
			for i, entry := range handlers {
				if entry.id == id {
					p.subs[t] = append(handlers[:i:i], handlers[i+1:]...)
					break
				}
			}
		},
	}
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

type subscriptionEntry struct {
	id      int
	handler Handler
}
