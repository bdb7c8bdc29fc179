package gate

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// Reminders guards a host.ReminderService.
type Reminders struct {
	guard Guard
	inner host.ReminderService
}

var _ host.ReminderService = (*Reminders)(nil)

// NewReminders wraps inner.
func NewReminders(guard Guard, inner host.ReminderService) *Reminders {
	return &Reminders{guard: guard, inner: inner}
}

func (r *Reminders) check(op string, required permission.Set) error {
	if err := r.guard.Check(op, required); err != nil {
		return err
	}
	if r.inner == nil {
		return unavailable("reminders")
	}
	return nil
}

func (r *Reminders) Reminders(ctx context.Context) ([]host.Reminder, error) {
	if err := r.check("reminders.list", permission.ReadReminders); err != nil {
		return nil, err
	}
	return r.inner.Reminders(ctx)
}

func (r *Reminders) Reminder(ctx context.Context, id string) (host.Reminder, error) {
	if err := r.check("reminders.get", permission.ReadReminders); err != nil {
		return host.Reminder{}, err
	}
	return r.inner.Reminder(ctx, id)
}

func (r *Reminders) CreateReminder(ctx context.Context, reminder host.Reminder) (host.Reminder, error) {
	if err := r.check("reminders.create", permission.WriteReminders); err != nil {
		return host.Reminder{}, err
	}
	return r.inner.CreateReminder(ctx, reminder)
}

func (r *Reminders) DeleteReminder(ctx context.Context, id string) error {
	if err := r.check("reminders.delete", permission.WriteReminders); err != nil {
		return err
	}
	return r.inner.DeleteReminder(ctx, id)
}

func (r *Reminders) Snooze(ctx context.Context, id string, until time.Time) (host.Reminder, error) {
	if err := r.check("reminders.snooze", permission.WriteReminders); err != nil {
		return host.Reminder{}, err
	}
	return r.inner.Snooze(ctx, id, until)
}

func (r *Reminders) ToggleComplete(ctx context.Context, id string) (host.Reminder, error) {
	if err := r.check("reminders.toggle", permission.WriteReminders); err != nil {
		return host.Reminder{}, err
	}
	return r.inner.ToggleComplete(ctx, id)
}

func (r *Reminders) Save(ctx context.Context) error {
	if err := r.check("reminders.save", permission.WriteReminders); err != nil {
		return err
	}
	return r.inner.Save(ctx)
}

func (r *Reminders) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	if r.inner == nil {
		return func() {}
	}
	return r.inner.Subscribe(handler)
}
