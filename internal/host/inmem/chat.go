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

// Chat is an in-memory host.ChatService.
type Chat struct {
	mu       sync.RWMutex
	sessions map[string]host.ChatSession
	messages map[string][]host.ChatMessage
	events   notifier
}

// NewChat creates an empty chat service.
func NewChat() *Chat {
	return &Chat{
		sessions: make(map[string]host.ChatSession),
		messages: make(map[string][]host.ChatMessage),
	}
}

// Sessions lists sessions, oldest first.
func (s *Chat) Sessions(_ context.Context) ([]host.ChatSession, error) {
	s.mu.RLock()
	out := make([]host.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Chat) Session(_ context.Context, id string) (host.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return host.ChatSession{}, fmt.Errorf("chat session %s: %w", id, host.ErrNotFound)
	}
	return session, nil
}

func (s *Chat) CreateSession(_ context.Context, title string) (host.ChatSession, error) {
	session := host.ChatSession{ID: uuid.NewString(), Title: title, CreatedAt: time.Now()}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.events.notify(host.ChangeCreated, session.ID)
	return session, nil
}

func (s *Chat) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("chat session %s: %w", id, host.ErrNotFound)
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	s.mu.Unlock()

	s.events.notify(host.ChangeDeleted, id)
	return nil
}

func (s *Chat) Messages(_ context.Context, sessionID string) ([]host.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("chat session %s: %w", sessionID, host.ErrNotFound)
	}
	out := make([]host.ChatMessage, len(s.messages[sessionID]))
	copy(out, s.messages[sessionID])
	return out, nil
}

func (s *Chat) AppendMessage(_ context.Context, msg host.ChatMessage) (host.ChatMessage, error) {
	s.mu.Lock()
	if _, ok := s.sessions[msg.SessionID]; !ok {
		s.mu.Unlock()
		return host.ChatMessage{}, fmt.Errorf("chat session %s: %w", msg.SessionID, host.ErrNotFound)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.At.IsZero() {
		msg.At = time.Now()
	}
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	s.mu.Unlock()

	s.events.notify(host.ChangeUpdated, msg.SessionID)
	return msg, nil
}

func (s *Chat) DeleteMessage(_ context.Context, sessionID, id string) error {
	s.mu.Lock()
	messages := s.messages[sessionID]
	for i, msg := range messages {
		if msg.ID == id {
			s.messages[sessionID] = append(messages[:i:i], messages[i+1:]...)
			s.mu.Unlock()
			s.events.notify(host.ChangeUpdated, sessionID)
			return nil
		}
	}
	s.mu.Unlock()
	return fmt.Errorf("chat message %s: %w", id, host.ErrNotFound)
}

func (s *Chat) Save(_ context.Context) error {
	s.events.notify(host.ChangeSaved, "")
	return nil
}

func (s *Chat) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	return s.events.subscribe(handler)
}
