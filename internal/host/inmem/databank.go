package inmem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
)

// DataBank is an in-memory host.DataBankService.
type DataBank struct {
	mu         sync.RWMutex
	categories map[string]host.Category
	entries    map[string]host.Entry
	events     notifier
}

// NewDataBank creates an empty data-bank.
func NewDataBank() *DataBank {
	return &DataBank{
		categories: make(map[string]host.Category),
		entries:    make(map[string]host.Entry),
	}
}

func (s *DataBank) Categories(_ context.Context) ([]host.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]host.Category, 0, len(s.categories))
	for _, id := range sortedKeys(s.categories) {
		out = append(out, s.categories[id])
	}
	return out, nil
}

func (s *DataBank) CreateCategory(_ context.Context, category host.Category) (host.Category, error) {
	if category.Name == "" {
		return host.Category{}, fmt.Errorf("category name is required")
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.categories[category.ID] = category
	s.mu.Unlock()

	s.events.notify(host.ChangeCreated, category.ID)
	return category, nil
}

// DeleteCategory removes a category together with its entries.
func (s *DataBank) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.categories[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("category %s: %w", id, host.ErrNotFound)
	}
	delete(s.categories, id)
	for entryID, entry := range s.entries {
		if entry.CategoryID == id {
			delete(s.entries, entryID)
		}
	}
	s.mu.Unlock()

	s.events.notify(host.ChangeDeleted, id)
	return nil
}

func (s *DataBank) Entries(_ context.Context, categoryID string) ([]host.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]host.Entry, 0)
	for _, id := range sortedKeys(s.entries) {
		entry := s.entries[id]
		if categoryID == "" || entry.CategoryID == categoryID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *DataBank) Entry(_ context.Context, id string) (host.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return host.Entry{}, fmt.Errorf("entry %s: %w", id, host.ErrNotFound)
	}
	return entry, nil
}

func (s *DataBank) CreateEntry(_ context.Context, entry host.Entry) (host.Entry, error) {
	s.mu.Lock()
	if _, ok := s.categories[entry.CategoryID]; !ok {
		s.mu.Unlock()
		return host.Entry{}, fmt.Errorf("category %s: %w", entry.CategoryID, host.ErrNotFound)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.UpdatedAt = time.Now()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	s.events.notify(host.ChangeCreated, entry.ID)
	return entry, nil
}

func (s *DataBank) UpdateEntry(_ context.Context, entry host.Entry) (host.Entry, error) {
	s.mu.Lock()
	if _, ok := s.entries[entry.ID]; !ok {
		s.mu.Unlock()
		return host.Entry{}, fmt.Errorf("entry %s: %w", entry.ID, host.ErrNotFound)
	}
	entry.UpdatedAt = time.Now()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	s.events.notify(host.ChangeUpdated, entry.ID)
	return entry, nil
}

func (s *DataBank) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.entries[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("entry %s: %w", id, host.ErrNotFound)
	}
	delete(s.entries, id)
	s.mu.Unlock()

	s.events.notify(host.ChangeDeleted, id)
	return nil
}

// ImportFile stores the contents of path as a new entry.
func (s *DataBank) ImportFile(ctx context.Context, categoryID, path string) (host.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return host.Entry{}, fmt.Errorf("import %s: %w", path, err)
	}
	return s.CreateEntry(ctx, host.Entry{
		CategoryID: categoryID,
		Title:      filepath.Base(path),
		Content:    string(data),
		Source:     path,
	})
}

func (s *DataBank) Save(_ context.Context) error {
	s.events.notify(host.ChangeSaved, "")
	return nil
}

func (s *DataBank) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	return s.events.subscribe(handler)
}
