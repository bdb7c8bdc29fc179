package gate

import (
	"context"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// Chat guards a host.ChatService.
type Chat struct {
	guard Guard
	inner host.ChatService
}

var _ host.ChatService = (*Chat)(nil)

// NewChat wraps inner.
func NewChat(guard Guard, inner host.ChatService) *Chat {
	return &Chat{guard: guard, inner: inner}
}

func (c *Chat) check(op string, required permission.Set) error {
	if err := c.guard.Check(op, required); err != nil {
		return err
	}
	if c.inner == nil {
		return unavailable("chat")
	}
	return nil
}

func (c *Chat) Sessions(ctx context.Context) ([]host.ChatSession, error) {
	if err := c.check("chat.sessions", permission.ReadChat); err != nil {
		return nil, err
	}
	return c.inner.Sessions(ctx)
}

func (c *Chat) Session(ctx context.Context, id string) (host.ChatSession, error) {
	if err := c.check("chat.session", permission.ReadChat); err != nil {
		return host.ChatSession{}, err
	}
	return c.inner.Session(ctx, id)
}

func (c *Chat) CreateSession(ctx context.Context, title string) (host.ChatSession, error) {
	if err := c.check("chat.create_session", permission.WriteChat); err != nil {
		return host.ChatSession{}, err
	}
	return c.inner.CreateSession(ctx, title)
}

func (c *Chat) DeleteSession(ctx context.Context, id string) error {
	if err := c.check("chat.delete_session", permission.WriteChat); err != nil {
		return err
	}
	return c.inner.DeleteSession(ctx, id)
}

func (c *Chat) Messages(ctx context.Context, sessionID string) ([]host.ChatMessage, error) {
	if err := c.check("chat.messages", permission.ReadChat); err != nil {
		return nil, err
	}
	return c.inner.Messages(ctx, sessionID)
}

func (c *Chat) AppendMessage(ctx context.Context, msg host.ChatMessage) (host.ChatMessage, error) {
	if err := c.check("chat.append", permission.WriteChat); err != nil {
		return host.ChatMessage{}, err
	}
	return c.inner.AppendMessage(ctx, msg)
}

func (c *Chat) DeleteMessage(ctx context.Context, sessionID, id string) error {
	if err := c.check("chat.delete_message", permission.WriteChat); err != nil {
		return err
	}
	return c.inner.DeleteMessage(ctx, sessionID, id)
}

func (c *Chat) Save(ctx context.Context) error {
	if err := c.check("chat.save", permission.WriteChat); err != nil {
		return err
	}
	return c.inner.Save(ctx)
}

func (c *Chat) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	if c.inner == nil {
		return func() {}
	}
	return c.inner.Subscribe(handler)
}
