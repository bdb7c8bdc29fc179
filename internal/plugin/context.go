package plugin

import (
	"net/http"

	"github.com/alexisbeaulieu97/deskmate/internal/gate"
	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/registry"
	"github.com/alexisbeaulieu97/deskmate/internal/settings"
)

// ContextConfig lists everything needed to build a plugin's Context.
type ContextConfig struct {
	PluginID string
	Granted  permission.Set
	Services host.Services
	Network  *gate.ClientFactory
	Logger   *logger.Logger
	Settings *settings.Store
	Registry *registry.Registry
	DataDir  string
	// Observer is told about denied calls. Optional.
	Observer gate.Observer
}

// Context is the only view a plugin has of the host. Every domain service it
// exposes is gated by the plugin's granted permissions.
type Context struct {
	pluginID string
	granted  permission.Set
	services host.Services
	network  *gate.Network
	log      *logger.Logger
	settings *settings.Store
	registry *registry.Registry
	dataDir  string
}

// NewContext wires gated services around cfg.Services.
func NewContext(cfg ContextConfig) *Context {
	guard := gate.NewGuard(cfg.PluginID, cfg.Granted, cfg.Observer)
	return &Context{
		pluginID: cfg.PluginID,
		granted:  cfg.Granted,
		services: gate.Wrap(guard, cfg.Services),
		network:  gate.NewNetwork(guard, cfg.Network),
		log:      cfg.Logger.With("plugin_id", cfg.PluginID),
		settings: cfg.Settings,
		registry: cfg.Registry,
		dataDir:  cfg.DataDir,
	}
}

// PluginID returns the identifier of the plugin owning the context.
func (c *Context) PluginID() string { return c.pluginID }

func (c *Context) Tasks() host.TaskService           { return c.services.Tasks }
func (c *Context) Reminders() host.ReminderService   { return c.services.Reminders }
func (c *Context) DataBank() host.DataBankService    { return c.services.DataBank }
func (c *Context) DataAssets() host.DataAssetService { return c.services.DataAssets }
func (c *Context) Chat() host.ChatService            { return c.services.Chat }
func (c *Context) UI() host.UIService                { return c.services.UI }

// HTTPClient returns the shared HTTP client when Network is granted.
func (c *Context) HTTPClient() (*http.Client, error) { return c.network.Client() }

// Logger returns a logger tagged with the plugin ID.
func (c *Context) Logger() *logger.Logger { return c.log }

// Settings returns the plugin's private settings store.
func (c *Context) Settings() *settings.Store { return c.settings }

// Registry returns the shared service registry.
func (c *Context) Registry() *registry.Registry { return c.registry }

// Granted returns the capabilities granted to the plugin.
func (c *Context) Granted() permission.Set { return c.granted }

// HasPermission reports whether p is granted. It never fails.
func (c *Context) HasPermission(p permission.Set) bool { return c.granted.Contains(p) }

// DataDir returns the plugin's private data directory.
func (c *Context) DataDir() string { return c.dataDir }
