package digest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/host/inmem"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/registry"
)

func setup(t *testing.T, granted permission.Set) (*Plugin, *plugin.Context, *inmem.Host, *registry.Registry) {
	t.Helper()

	h := inmem.NewHost(logger.Discard(), t.TempDir())
	reg := registry.New()
	pctx := plugin.NewContext(plugin.ContextConfig{
		PluginID: ID,
		Granted:  granted,
		Services: h.Services(),
		Logger:   logger.Discard(),
		Registry: reg,
	})

	instance, err := Builtin().Factory()
	require.NoError(t, err)
	p := instance.(*Plugin)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return p, pctx, h, reg
}

func TestDigestSummarisesAndToasts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, pctx, h, reg := setup(t, permission.ReadTasks|permission.ReadReminders|permission.Notifications)

	yesterday := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	_, err := h.Tasks.CreateTask(ctx, host.Task{Title: "overdue", Due: &yesterday})
	require.NoError(t, err)
	_, err = h.Tasks.CreateTask(ctx, host.Task{Title: "done", Done: true})
	require.NoError(t, err)
	_, err = h.Tasks.CreateTask(ctx, host.Task{Title: "open"})
	require.NoError(t, err)
	_, err = h.Reminders.CreateReminder(ctx, host.Reminder{Title: "call"})
	require.NoError(t, err)

	require.NoError(t, p.Initialize(ctx, pctx))
	svc, ok := registry.Lookup[Summariser](reg, ServiceName)
	require.True(t, ok)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{OpenTasks: 2, OverdueTasks: 1, PendingReminders: 1}, summary)

	require.NoError(t, p.Start(ctx))
	toasts := h.UI.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "2 open tasks (1 overdue), 1 pending reminders", toasts[0].Message)

	_, err = h.Tasks.CreateTask(ctx, host.Task{Title: "later"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Changes())

	require.NoError(t, p.Stop(ctx))
	_, err = h.Tasks.CreateTask(ctx, host.Task{Title: "after stop"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Changes())
	require.NoError(t, p.Dispose())
}

func TestDigestWithoutNotificationsFailsToStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, pctx, h, _ := setup(t, permission.ReadTasks|permission.ReadReminders)

	require.NoError(t, p.Initialize(ctx, pctx))
	err := p.Start(ctx)
	assert.True(t, permission.IsDenied(err))
	assert.Empty(t, h.UI.Toasts())
}

func TestBuiltinManifestIsValid(t *testing.T) {
	t.Parallel()

	m := Builtin().Manifest
	desc, err := m.Descriptor(plugin.RuntimeNative, "builtin:"+ID)
	require.NoError(t, err)
	assert.Equal(t, permission.ReadTasks|permission.ReadReminders|permission.Notifications, desc.RequiredPermissions)
}
