package gate

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
)

type mockTasks struct {
	mock.Mock
}

func (m *mockTasks) Tasks(ctx context.Context) ([]host.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]host.Task), args.Error(1)
}

func (m *mockTasks) Task(ctx context.Context, id string) (host.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(host.Task), args.Error(1)
}

func (m *mockTasks) CreateTask(ctx context.Context, task host.Task) (host.Task, error) {
	args := m.Called(ctx, task)
	return args.Get(0).(host.Task), args.Error(1)
}

func (m *mockTasks) DeleteTask(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTasks) Save(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTasks) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	m.Called(handler)
	return func() {}
}

type mockReminders struct {
	mock.Mock
}

func (m *mockReminders) Reminders(ctx context.Context) ([]host.Reminder, error) {
	args := m.Called(ctx)
	return args.Get(0).([]host.Reminder), args.Error(1)
}

func (m *mockReminders) Reminder(ctx context.Context, id string) (host.Reminder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(host.Reminder), args.Error(1)
}

func (m *mockReminders) CreateReminder(ctx context.Context, r host.Reminder) (host.Reminder, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(host.Reminder), args.Error(1)
}

func (m *mockReminders) DeleteReminder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReminders) Snooze(ctx context.Context, id string, until time.Time) (host.Reminder, error) {
	args := m.Called(ctx, id, until)
	return args.Get(0).(host.Reminder), args.Error(1)
}

func (m *mockReminders) ToggleComplete(ctx context.Context, id string) (host.Reminder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(host.Reminder), args.Error(1)
}

func (m *mockReminders) Save(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockReminders) Subscribe(handler func(host.ChangeEvent)) host.Unsubscribe {
	m.Called(handler)
	return func() {}
}

type mockAssets struct {
	mock.Mock
}

func (m *mockAssets) Assets(ctx context.Context) ([]host.Asset, error) {
	args := m.Called(ctx)
	return args.Get(0).([]host.Asset), args.Error(1)
}

func (m *mockAssets) Capture(ctx context.Context, kind host.AssetKind) (host.Asset, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(host.Asset), args.Error(1)
}

func (m *mockAssets) CopyToClipboard(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAssets) SaveToFile(ctx context.Context, id, path string) error {
	return m.Called(ctx, id, path).Error(0)
}

func (m *mockAssets) SaveWithDialog(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *mockAssets) SaveToDataBank(ctx context.Context, id, categoryID string) (host.Entry, error) {
	args := m.Called(ctx, id, categoryID)
	return args.Get(0).(host.Entry), args.Error(1)
}

type mockUI struct {
	mock.Mock
}

func (m *mockUI) RegisterTab(ctx context.Context, tab host.Tab) error {
	return m.Called(ctx, tab).Error(0)
}

func (m *mockUI) RegisterToolbarButton(ctx context.Context, button host.ToolbarButton) error {
	return m.Called(ctx, button).Error(0)
}

func (m *mockUI) Toast(ctx context.Context, toast host.Toast) error {
	return m.Called(ctx, toast).Error(0)
}
