package inmem

import (
	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
)

// Host groups the concrete in-memory services so callers can inspect them.
type Host struct {
	Tasks      *Tasks
	Reminders  *Reminders
	DataBank   *DataBank
	DataAssets *DataAssets
	Chat       *Chat
	UI         *UI
}

// NewHost wires a complete in-memory host. exportDir backs the simulated save dialog.
func NewHost(log *logger.Logger, exportDir string) *Host {
	bank := NewDataBank()
	return &Host{
		Tasks:      NewTasks(),
		Reminders:  NewReminders(),
		DataBank:   bank,
		DataAssets: NewDataAssets(bank, exportDir, nil),
		Chat:       NewChat(),
		UI:         NewUI(log),
	}
}

// Services exposes the host through the service interfaces.
func (h *Host) Services() host.Services {
	return host.Services{
		Tasks:      h.Tasks,
		Reminders:  h.Reminders,
		DataBank:   h.DataBank,
		DataAssets: h.DataAssets,
		Chat:       h.Chat,
		UI:         h.UI,
	}
}
