package gate

import (
	"context"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

// Tasks guards a host.TaskService.
type Tasks struct {
	guard Guard
	inner host.TaskService
}

var _ host.TaskService = (*Tasks)(nil)

// NewTasks wraps inner.
func NewTasks(guard Guard, inner host.TaskService) *Tasks {
	return &Tasks{guard: guard, inner: inner}
}

func (t *Tasks) check(op string, required permission.Set) error {
	if err := t.guard.Check(op, required); err != nil {
		return err
	}
	if t.inner == nil {
		return unavailable("tasks")
	}
	return nil
}

func (t *Tasks) Tasks(ctx context.Context) ([]host.Task, error) {
	if err := t.check("tasks.list", permission.ReadTasks); err != nil {
		return nil, err
	}
	return t.inner.Tasks(ctx)
}

func (t *Tasks) Task(ctx context.Context, id string) (host.Task, error) {
	if err := t.check("tasks.get", permission.ReadTasks); err != nil {
		return host.Task{}, err
	}
	return t.inner.Task(ctx, id)
}

func (t *Tasks) CreateTask(ctx context.Context, task host.Task) (host.Task, error) {
	if err := t.check("tasks.create", permission.WriteTasks); err != nil {
		return host.Task{}, err
	}
	return t.inner.CreateTask(ctx, task)
}

func (t *Tasks) DeleteTask(ctx context.Context, id string) error {
	if err := t.check("tasks.delete", permission.WriteTasks); err != nil {
		return err
	}
	return t.inner.DeleteTask(ctx, id)
}

func (t *Tasks) Save(ctx context.Context) error {
	if err := t.check("tasks.save", permission.WriteTasks); err != nil {
		return err
	}
	return t.inner.Save(ctx)
}

// Subscribe is not gated; change notifications are observable by any plugin.
func (t *Tasks) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	if t.inner == nil {
		return func() {}
	}
	return t.inner.Subscribe(handler)
}
