package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
)

// UI records what plugins contribute to the shell and logs toasts.
type UI struct {
	mu      sync.RWMutex
	tabs    []host.Tab
	buttons []host.ToolbarButton
	toasts  []host.Toast
	log     *logger.Logger
}

// NewUI creates a UI service that reports toasts through log.
func NewUI(log *logger.Logger) *UI {
	return &UI{log: log.With("component", "ui")}
}

func (s *UI) RegisterTab(_ context.Context, tab host.Tab) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tabs {
		if existing.ID == tab.ID {
			return fmt.Errorf("tab %q already registered", tab.ID)
		}
	}
	s.tabs = append(s.tabs, tab)
	return nil
}

func (s *UI) RegisterToolbarButton(_ context.Context, button host.ToolbarButton) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.buttons {
		if existing.ID == button.ID {
			return fmt.Errorf("toolbar button %q already registered", button.ID)
		}
	}
	s.buttons = append(s.buttons, button)
	return nil
}

func (s *UI) Toast(_ context.Context, toast host.Toast) error {
	if toast.Level == "" {
		toast.Level = host.ToastInfo
	}
	s.mu.Lock()
	s.toasts = append(s.toasts, toast)
	s.mu.Unlock()

	s.log.WithFields(map[string]any{"title": toast.Title, "level": string(toast.Level)}).Info(toast.Message)
	return nil
}

// Tabs returns registered tabs in registration order.
func (s *UI) Tabs() []host.Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]host.Tab(nil), s.tabs...)
}

// Buttons returns registered toolbar buttons in registration order.
func (s *UI) Buttons() []host.ToolbarButton {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]host.ToolbarButton(nil), s.buttons...)
}

// Toasts returns every toast shown so far.
func (s *UI) Toasts() []host.Toast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]host.Toast(nil), s.toasts...)
}
