package inmem

import (
	"sync"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
)

// notifier fans change events out to subscribers. Handlers run synchronously on
// the goroutine that made the change.
type notifier struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(host.ChangeEvent)
}

func (n *notifier) subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	if handler == nil {
		return func() {}
	}
	n.mu.Lock()
	if n.handlers == nil {
		n.handlers = make(map[int]func(host.ChangeEvent))
	}
	n.nextID++
	id := n.nextID
	n.handlers[id] = handler
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.handlers, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) notify(kind host.ChangeKind, id string) {
	n.mu.Lock()
	handlers := make([]func(host.ChangeEvent), 0, len(n.handlers))
	for _, h := range n.handlers {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h(host.ChangeEvent{Kind: kind, ID: id})
	}
}
