// Package host declares the domain services the desktop host exposes to plugins.
//
// The host owns the implementations; plugins only ever see them through the
// permission-checking wrappers in package gate.
package host

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a domain object does not exist.
var ErrNotFound = errors.New("not found")

// ChangeKind classifies a change notification.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeSaved   ChangeKind = "saved"
)

// ChangeEvent notifies observers that a domain object changed.
type ChangeEvent struct {
	Kind ChangeKind
	ID   string
}

// Unsubscribe detaches a change handler.
type Unsubscribe func()

// Task is a to-do item.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	Due       *time.Time `json:"due,omitempty"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"created_at"`
}

// Reminder is a scheduled notification.
type Reminder struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	At           time.Time  `json:"at"`
	Completed    bool       `json:"completed"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
}

// Category groups data-bank entries.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entry is one piece of content stored in the data-bank.
type Entry struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Source     string    `json:"source,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AssetKind names what produced a captured asset.
type AssetKind string

const (
	AssetScreenshot AssetKind = "screenshot"
	AssetClipboard  AssetKind = "clipboard"
	AssetText       AssetKind = "text"
)

// Asset is captured screen or clipboard content.
type Asset struct {
	ID         string    `json:"id"`
	Kind       AssetKind `json:"kind"`
	Name       string    `json:"name"`
	Data       []byte    `json:"data,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// ChatSession is a conversation thread.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one turn in a chat session.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	At        time.Time `json:"at"`
}

// Tab is a plugin-provided tab in the host shell.
type Tab struct {
	ID       string
	Title    string
	PluginID string
}

// ToolbarButton is a plugin-provided toolbar action.
type ToolbarButton struct {
	ID       string
	Label    string
	Tooltip  string
	PluginID string
	OnClick  func()
}

// ToastLevel is the severity of a toast notification.
type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastWarning ToastLevel = "warning"
	ToastError   ToastLevel = "error"
)

// Toast is a transient notification shown by the host.
type Toast struct {
	Title   string
	Message string
	Level   ToastLevel
}

// TaskService manages tasks.
type TaskService interface {
	Tasks(ctx context.Context) ([]Task, error)
	Task(ctx context.Context, id string) (Task, error)
	CreateTask(ctx context.Context, task Task) (Task, error)
	DeleteTask(ctx context.Context, id string) error
	Save(ctx context.Context) error
	Subscribe(handler func(ChangeEvent)) Unsubscribe
}

// ReminderService manages reminders.
type ReminderService interface {
	Reminders(ctx context.Context) ([]Reminder, error)
	Reminder(ctx context.Context, id string) (Reminder, error)
	CreateReminder(ctx context.Context, reminder Reminder) (Reminder, error)
	DeleteReminder(ctx context.Context, id string) error
	Snooze(ctx context.Context, id string, until time.Time) (Reminder, error)
	ToggleComplete(ctx context.Context, id string) (Reminder, error)
	Save(ctx context.Context) error
	Subscribe(handler func(ChangeEvent)) Unsubscribe
}

// DataBankService manages categorised content entries.
type DataBankService interface {
	Categories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, category Category) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
	Entries(ctx context.Context, categoryID string) ([]Entry, error)
	Entry(ctx context.Context, id string) (Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	ImportFile(ctx context.Context, categoryID, path string) (Entry, error)
	Save(ctx context.Context) error
	Subscribe(handler func(ChangeEvent)) Unsubscribe
}

// DataAssetService exposes captured screen and clipboard assets.
type DataAssetService interface {
	Assets(ctx context.Context) ([]Asset, error)
	Capture(ctx context.Context, kind AssetKind) (Asset, error)
	CopyToClipboard(ctx context.Context, id string) error
	SaveToFile(ctx context.Context, id, path string) error
	SaveWithDialog(ctx context.Context, id string) (string, error)
	SaveToDataBank(ctx context.Context, id, categoryID string) (Entry, error)
}

// ChatService manages chat sessions and their messages.
type ChatService interface {
	Sessions(ctx context.Context) ([]ChatSession, error)
	Session(ctx context.Context, id string) (ChatSession, error)
	CreateSession(ctx context.Context, title string) (ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	Messages(ctx context.Context, sessionID string) ([]ChatMessage, error)
	AppendMessage(ctx context.Context, msg ChatMessage) (ChatMessage, error)
	DeleteMessage(ctx context.Context, sessionID, id string) error
	Save(ctx context.Context) error
	Subscribe(handler func(ChangeEvent)) Unsubscribe
}

// UIService lets plugins contribute to the host shell.
type UIService interface {
	RegisterTab(ctx context.Context, tab Tab) error
	RegisterToolbarButton(ctx context.Context, button ToolbarButton) error
	Toast(ctx context.Context, toast Toast) error
}

// Services bundles every host service handed to the plugin runtime.
type Services struct {
	Tasks      TaskService
	Reminders  ReminderService
	DataBank   DataBankService
	DataAssets DataAssetService
	Chat       ChatService
	UI         UIService
}
