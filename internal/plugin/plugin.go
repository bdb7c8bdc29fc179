// Package plugin defines what a plugin is to the runtime: its descriptor and
// manifest, the lifecycle it moves through, the contract its entry point
// implements and the context it receives.
package plugin

import "context"

// Runtime names how a plugin's code is executed.
type Runtime string

const (
	// RuntimeNative plugins are compiled into the host.
	RuntimeNative Runtime = "native"
	// RuntimeLua plugins are scripts executed in their own Lua state.
	RuntimeLua Runtime = "lua"
)

// Plugin is the entry point every plugin exposes. Calls are made one at a time
// and each is awaited before the next plugin is visited.
type Plugin interface {
	Initialize(ctx context.Context, pctx *Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Disposer is implemented by plugins that hold resources beyond Stop.
// Dispose is called once, right before the plugin's arena is released.
type Disposer interface {
	Dispose() error
}

// Arena scopes everything a plugin allocates so it can be released as a unit.
// After Release the arena and every object obtained from it must not be used.
type Arena interface {
	Activate(ctx context.Context) (Plugin, error)
	Release() error
}

// Factory builds a native plugin instance.
type Factory func() (Plugin, error)

// Handle is the live part of a loaded plugin.
type Handle struct {
	Arena    Arena
	Instance Plugin
}
