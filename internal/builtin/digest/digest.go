// Package digest is a builtin plugin that summarises open tasks and pending
// reminders. It registers its summariser in the service registry so other
// plugins can reuse it.
package digest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/loader"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

const (
	// ID identifies the plugin.
	ID = "digest"
	// ServiceName is the registry key of the Summariser.
	ServiceName = "digest.summary"
)

// Builtin returns the loader registration for the plugin.
func Builtin() loader.Builtin {
	return loader.Builtin{
		Manifest: plugin.Manifest{
			ID:          ID,
			Name:        "Daily digest",
			Version:     "1.0.0",
			Author:      "deskmate",
			Description: "Summarises open tasks and pending reminders.",
			Permissions: []string{"read_tasks", "read_reminders", "notifications"},
		},
		Factory: func() (plugin.Plugin, error) { return &Plugin{now: time.Now}, nil },
	}
}

// Summary counts what needs attention.
type Summary struct {
	OpenTasks        int
	OverdueTasks     int
	PendingReminders int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d open tasks (%d overdue), %d pending reminders", s.OpenTasks, s.OverdueTasks, s.PendingReminders)
}

// Summariser computes a Summary on demand.
type Summariser interface {
	Summary(ctx context.Context) (Summary, error)
}

// Plugin implements plugin.Plugin.
type Plugin struct {
	now func() time.Time

	mu          sync.Mutex
	pctx        *plugin.Context
	log         *logger.Logger
	unsubscribe host.Unsubscribe
	changes     int
}

var (
	_ plugin.Plugin   = (*Plugin)(nil)
	_ plugin.Disposer = (*Plugin)(nil)
	_ Summariser      = (*Plugin)(nil)
)

func (p *Plugin) Initialize(_ context.Context, pctx *plugin.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pctx = pctx
	p.log = pctx.Logger()
	pctx.Registry().Register(ServiceName, Summariser(p))
	return nil
}

// Start shows the digest as a toast and starts counting task changes.
func (p *Plugin) Start(ctx context.Context) error {
	summary, err := p.Summary(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	pctx := p.pctx
	p.mu.Unlock()

	p.log.Info("digest: " + summary.String())
	err = pctx.UI().Toast(ctx, host.Toast{
		Title:   "Today",
		Message: summary.String(),
		Level:   host.ToastInfo,
	})
	if err != nil {
		return err
	}

	unsubscribe := pctx.Tasks().Subscribe(func(host.ChangeEvent) {
		p.mu.Lock()
		p.changes++
		p.mu.Unlock()
	})
	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
	return nil
}

func (p *Plugin) Stop(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	p.log.WithFields(map[string]any{"task_changes": p.changes}).Debug("digest stopped")
	return nil
}

// Dispose drops the context so nothing from the host outlives the plugin.
func (p *Plugin) Dispose() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pctx = nil
	return nil
}

// Changes reports how many task changes were observed while running.
func (p *Plugin) Changes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changes
}

// Summary counts open and overdue tasks and reminders not yet completed.
func (p *Plugin) Summary(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	pctx := p.pctx
	p.mu.Unlock()
	if pctx == nil {
		return Summary{}, fmt.Errorf("digest is not initialized")
	}

	tasks, err := pctx.Tasks().Tasks(ctx)
	if err != nil {
		return Summary{}, err
	}
	reminders, err := pctx.Reminders().Reminders(ctx)
	if err != nil {
		return Summary{}, err
	}

	now := p.now()
	var s Summary
	for _, t := range tasks {
		if t.Done {
			continue
		}
		s.OpenTasks++
		if t.Due != nil && t.Due.Before(now) {
			s.OverdueTasks++
		}
	}
	for _, r := range reminders {
		if !r.Completed {
			s.PendingReminders++
		}
	}
	return s, nil
}
