package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// BuiltinScheme prefixes the path of plugins compiled into the host.
const BuiltinScheme = "builtin:"

// Builtin is a plugin compiled into the host binary.
type Builtin struct {
	Manifest plugin.Manifest
	Factory  plugin.Factory
}

var errNativeReleased = errors.New("native arena released")

// nativeArena scopes a builtin instance. Releasing it drops the only
// reference the loader holds to the instance.
type nativeArena struct {
	mu       sync.Mutex
	factory  plugin.Factory
	instance plugin.Plugin
	released bool
}

func (a *nativeArena) Activate(_ context.Context) (plugin.Plugin, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil, errNativeReleased
	}
	instance, err := a.factory()
	if err != nil {
		return nil, err
	}
	a.instance = instance
	return instance, nil
}

func (a *nativeArena) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.instance = nil
	a.released = true
	return nil
}
