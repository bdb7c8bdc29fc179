// Package loader finds plugin modules on disk and loads each one into its own
// arena. Discovery only reads manifests and syntax-checks modules; plugin code
// runs for the first time in Load.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/alexisbeaulieu97/deskmate/internal/loader/luart"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/validation"
)

const (
	// SharedDirName is the default directory for modules shared between plugins.
	SharedDirName = "shared"
	// DataDirName holds per-plugin private data and is never scanned.
	DataDirName = "Data"
)

// DefaultSharedPrefixes are file name prefixes of modules that are libraries
// rather than plugins.
var DefaultSharedPrefixes = []string{"lib.", "shared.", "common.", "vendor."}

// Options configures a Loader.
type Options struct {
	// Root is the plugin directory.
	Root string
	// SharedDir defaults to Root/shared.
	SharedDir string
	// SharedPrefixes defaults to DefaultSharedPrefixes.
	SharedPrefixes []string
	// Engines defaults to the Lua runtime.
	Engines  []plugin.Engine
	Builtins []Builtin
	Logger   *logger.Logger
}

// Loader discovers, loads and unloads plugins.
type Loader struct {
	root      string
	sharedDir string
	dataDir   string
	prefixes  []string
	engines   map[string]plugin.Engine
	builtins  []Builtin
	byID      map[string]Builtin
	log       *logger.Logger

	open atomic.Int64
}

// New validates opts and returns a Loader.
func New(opts Options) (*Loader, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("plugin root is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve plugin root: %w", err)
	}

	shared := opts.SharedDir
	if shared == "" {
		shared = filepath.Join(root, SharedDirName)
	}
	if shared, err = filepath.Abs(shared); err != nil {
		return nil, fmt.Errorf("resolve shared directory: %w", err)
	}

	prefixes := opts.SharedPrefixes
	if prefixes == nil {
		prefixes = DefaultSharedPrefixes
	}
	lowered := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		lowered = append(lowered, strings.ToLower(p))
	}

	engines := opts.Engines
	if len(engines) == 0 {
		engines = []plugin.Engine{luart.New()}
	}

	l := &Loader{
		root:      root,
		sharedDir: shared,
		dataDir:   filepath.Join(root, DataDirName),
		prefixes:  lowered,
		engines:   make(map[string]plugin.Engine),
		byID:      make(map[string]Builtin, len(opts.Builtins)),
		log:       opts.Logger.With("component", "loader"),
	}
	for _, engine := range engines {
		for _, ext := range engine.Extensions() {
			l.engines[strings.ToLower(ext)] = engine
		}
	}
	for _, b := range opts.Builtins {
		m := b.Manifest
		if err := validation.Struct("builtin", &m); err != nil {
			return nil, err
		}
		if b.Factory == nil {
			return nil, fmt.Errorf("builtin %q has no factory", m.ID)
		}
		if _, dup := l.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: builtin %q registered twice", ErrDuplicateID, m.ID)
		}
		l.byID[m.ID] = b
		l.builtins = append(l.builtins, b)
	}
	return l, nil
}

// Root returns the absolute plugin directory.
func (l *Loader) Root() string { return l.root }

// SharedDir returns the absolute shared module directory.
func (l *Loader) SharedDir() string { return l.sharedDir }

// OpenArenas reports how many arenas are alive.
func (l *Loader) OpenArenas() int { return int(l.open.Load()) }

// Load opens an arena for the module at path and activates the plugin in it.
// Failures never return an error: the descriptor is in the Error state and
// carries the message, and no arena is left open.
func (l *Loader) Load(ctx context.Context, path string, granted permission.Set) plugin.Descriptor {
	if id, ok := strings.CutPrefix(path, BuiltinScheme); ok {
		return l.loadBuiltin(ctx, id, granted)
	}

	desc, engine, err := l.inspect(path, nil)
	if err != nil {
		return l.failed(fallbackDescriptor(path), granted, err)
	}
	desc.Granted = granted

	arena, err := engine.Open(plugin.ArenaSpec{
		Descriptor:  desc,
		ModulePath:  path,
		SearchPaths: []string{filepath.Dir(path), l.sharedDir},
		Logger:      l.log.With("plugin_id", desc.ID),
	})
	if err != nil {
		return l.failed(desc, granted, fmt.Errorf("open arena: %w", err))
	}
	return l.activate(ctx, desc, l.track(arena))
}

func (l *Loader) loadBuiltin(ctx context.Context, id string, granted permission.Set) plugin.Descriptor {
	b, ok := l.byID[id]
	if !ok {
		desc, _ := builtinDescriptor(Builtin{Manifest: plugin.Manifest{ID: id}})
		return l.failed(desc, granted, fmt.Errorf("%w %q", ErrUnknownBuiltin, id))
	}
	desc, err := builtinDescriptor(b)
	if err != nil {
		return l.failed(desc, granted, err)
	}
	desc.Granted = granted
	return l.activate(ctx, desc, l.track(&nativeArena{factory: b.Factory}))
}

func (l *Loader) activate(ctx context.Context, desc plugin.Descriptor, arena plugin.Arena) plugin.Descriptor {
	instance, err := activateSafely(ctx, arena)
	if err != nil {
		if releaseErr := arena.Release(); releaseErr != nil {
			l.log.Error(releaseErr, "release arena after failed activation")
		}
		return l.failed(desc, desc.Granted, fmt.Errorf("activate: %w", err))
	}

	desc.State = plugin.StateLoaded
	desc.ErrorMessage = ""
	desc.Handle = &plugin.Handle{Arena: arena, Instance: instance}
	l.log.WithFields(map[string]any{"plugin_id": desc.ID, "path": desc.Path}).Debug("plugin loaded")
	return desc
}

func activateSafely(ctx context.Context, arena plugin.Arena) (instance plugin.Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = fmt.Errorf("panic during activation: %v", r)
		}
	}()

	instance, err = arena.Activate(ctx)
	if err == nil && instance == nil {
		err = errors.New("module produced no plugin instance")
	}
	return instance, err
}

func (l *Loader) failed(desc plugin.Descriptor, granted permission.Set, err error) plugin.Descriptor {
	loadErr := &LoadError{Path: desc.Path, PluginID: desc.ID, Err: err}
	desc.Granted = granted
	desc.Handle = nil
	desc.Fail(loadErr.Error())
	l.log.WithFields(map[string]any{"plugin_id": desc.ID, "path": desc.Path}).Error(err, "plugin failed to load")
	return desc
}

// Unload disposes the plugin instance and releases its arena. The descriptor's
// handle is cleared even when disposal fails.
func (l *Loader) Unload(desc *plugin.Descriptor) error {
	if desc == nil || desc.Handle == nil {
		return nil
	}
	handle := desc.Handle
	desc.Handle = nil

	var errs []error
	if d, ok := handle.Instance.(plugin.Disposer); ok {
		if err := disposeSafely(d); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s: %w", desc.ID, err))
		}
	}
	if handle.Arena != nil {
		if err := handle.Arena.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", desc.ID, err))
		}
	}
	return errors.Join(errs...)
}

func disposeSafely(d plugin.Disposer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during dispose: %v", r)
		}
	}()
	return d.Dispose()
}

// trackedArena keeps the loader's open arena count.
type trackedArena struct {
	plugin.Arena
	once   sync.Once
	loader *Loader
}

func (l *Loader) track(arena plugin.Arena) plugin.Arena {
	l.open.Add(1)
	return &trackedArena{Arena: arena, loader: l}
}

func (a *trackedArena) Release() error {
	var err error
	a.once.Do(func() {
		err = a.Arena.Release()
		a.loader.open.Add(-1)
	})
	return err
}

func builtinDescriptor(b Builtin) (plugin.Descriptor, error) {
	m := b.Manifest
	desc, err := m.Descriptor(plugin.RuntimeNative, BuiltinScheme+m.ID)
	if err != nil {
		desc = plugin.Descriptor{ID: m.ID, Path: BuiltinScheme + m.ID, Runtime: plugin.RuntimeNative}
	}
	if desc.Name == "" {
		desc.Name = m.ID
	}
	desc.IsBuiltIn = true
	return desc, err
}

// fallbackDescriptor names a module whose manifest could not be read.
func fallbackDescriptor(path string) plugin.Descriptor {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return plugin.Descriptor{
		ID:    plugin.SanitizeID(base),
		Name:  base,
		State: plugin.StateUnloaded,
		Path:  path,
	}
}
