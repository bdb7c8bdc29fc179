package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
)

// Tasks is an in-memory host.TaskService.
type Tasks struct {
	mu     sync.RWMutex
	items  map[string]host.Task
	order  []string
	saves  int
	events notifier
	now    func() time.Time
}

// NewTasks creates an empty task service.
func NewTasks() *Tasks {
	return &Tasks{items: make(map[string]host.Task), now: time.Now}
}

func (s *Tasks) Tasks(_ context.Context) ([]host.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]host.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *Tasks) Task(_ context.Context, id string) (host.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.items[id]
	if !ok {
		return host.Task{}, fmt.Errorf("task %s: %w", id, host.ErrNotFound)
	}
	return task, nil
}

func (s *Tasks) CreateTask(_ context.Context, task host.Task) (host.Task, error) {
	if task.Title == "" {
		return host.Task{}, fmt.Errorf("task title is required")
	}
	s.mu.Lock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now()
	}
	if _, exists := s.items[task.ID]; !exists {
		s.order = append(s.order, task.ID)
	}
	s.items[task.ID] = task
	s.mu.Unlock()

	s.events.notify(host.ChangeCreated, task.ID)
	return task, nil
}

func (s *Tasks) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, host.ErrNotFound)
	}
	delete(s.items, id)
	s.order = removeID(s.order, id)
	s.mu.Unlock()

	s.events.notify(host.ChangeDeleted, id)
	return nil
}

func (s *Tasks) Save(_ context.Context) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	s.events.notify(host.ChangeSaved, "")
	return nil
}

func (s *Tasks) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	return s.events.subscribe(handler)
}

// Saves reports how many times Save was called.
func (s *Tasks) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
