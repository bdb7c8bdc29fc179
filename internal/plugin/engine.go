package plugin

import "github.com/alexisbeaulieu97/deskmate/internal/logger"

// ArenaSpec describes the arena an Engine should open for one plugin.
type ArenaSpec struct {
	Descriptor Descriptor
	ModulePath string
	// SearchPaths lists directories consulted when the plugin imports a module,
	// the plugin's own directory first and the shared directory last.
	SearchPaths []string
	Logger      *logger.Logger
}

// Engine executes plugin modules of one kind.
type Engine interface {
	Kind() Runtime
	// Extensions lists the module file extensions the engine handles.
	Extensions() []string
	// Check verifies a module is well formed without executing it.
	Check(path string) error
	// Open creates an arena for the module. No plugin code runs until Activate.
	Open(spec ArenaSpec) (Arena, error)
}
