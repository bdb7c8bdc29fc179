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

// Reminders is an in-memory host.ReminderService.
type Reminders struct {
	mu     sync.RWMutex
	items  map[string]host.Reminder
	events notifier
}

// NewReminders creates an empty reminder service.
func NewReminders() *Reminders {
	return &Reminders{items: make(map[string]host.Reminder)}
}

// Reminders lists reminders ordered by due time.
func (s *Reminders) Reminders(_ context.Context) ([]host.Reminder, error) {
	s.mu.RLock()
	out := make([]host.Reminder, 0, len(s.items))
	for _, r := range s.items {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].ID < out[j].ID
		}
		return out[i].At.Before(out[j].At)
	})
	return out, nil
}

func (s *Reminders) Reminder(_ context.Context, id string) (host.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.items[id]
	if !ok {
		return host.Reminder{}, fmt.Errorf("reminder %s: %w", id, host.ErrNotFound)
	}
	return r, nil
}

func (s *Reminders) CreateReminder(_ context.Context, reminder host.Reminder) (host.Reminder, error) {
	if reminder.Title == "" {
		return host.Reminder{}, fmt.Errorf("reminder title is required")
	}
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.items[reminder.ID] = reminder
	s.mu.Unlock()

	s.events.notify(host.ChangeCreated, reminder.ID)
	return reminder, nil
}

func (s *Reminders) DeleteReminder(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("reminder %s: %w", id, host.ErrNotFound)
	}
	delete(s.items, id)
	s.mu.Unlock()

	s.events.notify(host.ChangeDeleted, id)
	return nil
}

func (s *Reminders) Snooze(_ context.Context, id string, until time.Time) (host.Reminder, error) {
	return s.update(id, func(r *host.Reminder) {
		snoozed := until
		r.SnoozedUntil = &snoozed
	})
}

func (s *Reminders) ToggleComplete(_ context.Context, id string) (host.Reminder, error) {
	return s.update(id, func(r *host.Reminder) {
		r.Completed = !r.Completed
	})
}

func (s *Reminders) Save(_ context.Context) error {
	s.events.notify(host.ChangeSaved, "")
	return nil
}

func (s *Reminders) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	return s.events.subscribe(handler)
}

func (s *Reminders) update(id string, mutate func(*host.Reminder)) (host.Reminder, error) {
	s.mu.Lock()
	r, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return host.Reminder{}, fmt.Errorf("reminder %s: %w", id, host.ErrNotFound)
	}
	mutate(&r)
	s.items[id] = r
	s.mu.Unlock()

	s.events.notify(host.ChangeUpdated, id)
	return r, nil
}
