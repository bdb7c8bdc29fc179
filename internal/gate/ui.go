package gate

import (
	"context"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// UI guards a host.UIService.
type UI struct {
	guard Guard
	inner host.UIService
}

var _ host.UIService = (*UI)(nil)

// NewUI wraps inner.
func NewUI(guard Guard, inner host.UIService) *UI {
	return &UI{guard: guard, inner: inner}
}

func (u *UI) check(op string, required permission.Set) error {
	if err := u.guard.Check(op, required); err != nil {
		return err
	}
	if u.inner == nil {
		return unavailable("ui")
	}
	return nil
}

func (u *UI) RegisterTab(ctx context.Context, tab host.Tab) error {
	if err := u.check("ui.register_tab", permission.UI); err != nil {
		return err
	}
	return u.inner.RegisterTab(ctx, tab)
}

func (u *UI) RegisterToolbarButton(ctx context.Context, button host.ToolbarButton) error {
	if err := u.check("ui.register_button", permission.UI); err != nil {
		return err
	}
	return u.inner.RegisterToolbarButton(ctx, button)
}

func (u *UI) Toast(ctx context.Context, toast host.Toast) error {
	if err := u.check("ui.toast", permission.Notifications); err != nil {
		return err
	}
	return u.inner.Toast(ctx, toast)
}
