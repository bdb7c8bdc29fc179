package luart

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deskmate/internal/gate"
	"github.com/alexisbeaulieu97/deskmate/internal/host/inmem"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/registry"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openArena(t *testing.T, module string, paths ...string) plugin.Arena {
	t.Helper()
	arena, err := New().Open(plugin.ArenaSpec{
		Descriptor:  plugin.Descriptor{ID: "test"},
		ModulePath:  module,
		SearchPaths: paths,
		Logger:      logger.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = arena.Release() })
	return arena
}

func newTestContext(granted permission.Set) (*plugin.Context, *inmem.Host, *registry.Registry) {
	h := inmem.NewHost(logger.Discard(), "")
	reg := registry.New()
	pctx := plugin.NewContext(plugin.ContextConfig{
		PluginID: "test",
		Granted:  granted,
		Services: h.Services(),
		Network:  gate.NewClientFactory(time.Second),
		Logger:   logger.Discard(),
		Registry: reg,
	})
	return pctx, h, reg
}

func TestCheckCompilesWithoutRunning(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good.lua"), `error("must not run") return {}`)
	bad := writeFile(t, filepath.Join(dir, "bad.lua"), `return {`)

	engine := New()
	assert.NoError(t, engine.Check(good))
	err := engine.Check(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
	assert.Error(t, engine.Check(filepath.Join(dir, "missing.lua")))
}

func TestActivateRequiresEntryTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cases := map[string]string{
		"no_return": `local x = 1`,
		"throws":    `error("boom")`,
		"bad_field": `return { start = 42 }`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			arena := openArena(t, writeFile(t, filepath.Join(dir, name+".lua"), src))
			p, err := arena.Activate(context.Background())
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestLifecycleCallsEntryFunctions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	module := writeFile(t, filepath.Join(dir, "Counter.lua"), `
local M = {}
local host
function M.initialize(h)
  host = h
  h.registry.register("counter.calls", "initialized")
end
function M.start()
  host.registry.register("counter.calls", "started")
end
function M.stop()
  host.registry.register("counter.calls", "stopped")
end
return M
`)
	arena := openArena(t, module, dir)
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	pctx, _, reg := newTestContext(permission.None)
	ctx := context.Background()

	require.NoError(t, p.Initialize(ctx, pctx))
	v, _ := reg.Get("counter.calls")
	assert.Equal(t, "initialized", v)

	require.NoError(t, p.Start(ctx))
	v, _ = reg.Get("counter.calls")
	assert.Equal(t, "started", v)

	require.NoError(t, p.Stop(ctx))
	v, _ = reg.Get("counter.calls")
	assert.Equal(t, "stopped", v)
}

func TestMissingLifecycleFunctionsAreNoOps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	arena := openArena(t, writeFile(t, filepath.Join(dir, "Empty.lua"), `return {}`))
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	pctx, _, _ := newTestContext(permission.None)
	assert.NoError(t, p.Initialize(context.Background(), pctx))
	assert.NoError(t, p.Start(context.Background()))
	assert.NoError(t, p.Stop(context.Background()))
	assert.NoError(t, p.(plugin.Disposer).Dispose())
}

func TestDeniedHostCallRaisesScriptError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	module := writeFile(t, filepath.Join(dir, "Writer.lua"), `
local M = {}
function M.initialize(h)
  h.tasks.create({ title = "sneaky" })
end
return M
`)
	arena := openArena(t, module)
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	pctx, h, _ := newTestContext(permission.ReadTasks)
	err = p.Initialize(context.Background(), pctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write_tasks")

	tasks, err := h.Tasks.Tasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestGrantedHostCallsReachServices(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	module := writeFile(t, filepath.Join(dir, "Notes.lua"), `
local M = {}
function M.initialize(h)
  local task = h.tasks.create({ title = "water plants" })
  local all = h.tasks.list()
  h.registry.register("notes.count", #all)
  h.registry.register("notes.first", task.title)
  h.registry.register("notes.can_ui", h.has_permission("ui"))
  h.ui.toast("hello", "from lua", "success")
end
return M
`)
	arena := openArena(t, module)
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	pctx, h, reg := newTestContext(permission.ReadTasks | permission.WriteTasks | permission.Notifications)
	require.NoError(t, p.Initialize(context.Background(), pctx))

	count, _ := reg.Get("notes.count")
	assert.Equal(t, int64(1), count)
	first, _ := reg.Get("notes.first")
	assert.Equal(t, "water plants", first)
	canUI, _ := reg.Get("notes.can_ui")
	assert.Equal(t, false, canUI)

	toasts := h.UI.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "hello", toasts[0].Title)
}

func TestRequirePrefersPrivateModules(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pluginDir := filepath.Join(root, "Foo")
	sharedDir := filepath.Join(root, "shared")
	writeFile(t, filepath.Join(pluginDir, "util.lua"), `return { origin = "private" }`)
	writeFile(t, filepath.Join(sharedDir, "util.lua"), `return { origin = "shared" }`)
	writeFile(t, filepath.Join(sharedDir, "lib", "fmt", "init.lua"), `return { origin = "shared-init" }`)
	module := writeFile(t, filepath.Join(pluginDir, "Foo.lua"), `
local util = require("util")
local again = require("util")
local fmt = require("lib.fmt")
return {
  initialize = function(h)
    h.registry.register("origin", util.origin)
    h.registry.register("same", util == again)
    h.registry.register("nested", fmt.origin)
  end,
}
`)
	arena := openArena(t, module, pluginDir, sharedDir)
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	pctx, _, reg := newTestContext(permission.None)
	require.NoError(t, p.Initialize(context.Background(), pctx))

	origin, _ := reg.Get("origin")
	assert.Equal(t, "private", origin)
	same, _ := reg.Get("same")
	assert.Equal(t, true, same)
	nested, _ := reg.Get("nested")
	assert.Equal(t, "shared-init", nested)
}

func TestSandboxRemovesFilesystemLoaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	module := writeFile(t, filepath.Join(dir, "Probe.lua"), `
return {
  initialize = function(h)
    h.registry.register("dofile", dofile == nil)
    h.registry.register("io", io == nil)
    h.registry.register("os", os == nil)
  end,
}
`)
	arena := openArena(t, module)
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	pctx, _, reg := newTestContext(permission.None)
	require.NoError(t, p.Initialize(context.Background(), pctx))
	for _, name := range []string{"dofile", "io", "os"} {
		v, _ := reg.Get(name)
		assert.Equal(t, true, v, name)
	}

	bad := writeFile(t, filepath.Join(dir, "Escape.lua"), `require("../secret") return {}`)
	_, err = openArena(t, bad, dir).Activate(context.Background())
	assert.ErrorContains(t, err, "invalid module name")

	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.lua"), `escaped = true return {}`)
	viaPackage := writeFile(t, filepath.Join(dir, "PackagePath.lua"), `
local ok = pcall(function()
  package.path = "`+filepath.ToSlash(outside)+`/?.lua"
  package.loaders[2]("secret")()
end)
return {
  initialize = function(h)
    h.registry.register("package_blocked", not ok)
    h.registry.register("package_nil", package == nil)
    h.registry.register("escaped", escaped == true)
  end,
}
`)
	p, err = openArena(t, viaPackage, dir).Activate(context.Background())
	require.NoError(t, err)
	pctx, _, reg = newTestContext(permission.None)
	require.NoError(t, p.Initialize(context.Background(), pctx))

	for name, want := range map[string]bool{"package_blocked": true, "package_nil": true, "escaped": false} {
		v, _ := reg.Get(name)
		assert.Equal(t, want, v, name)
	}
}

func TestRecursiveRequireFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.lua"), `return require("b")`)
	writeFile(t, filepath.Join(dir, "b.lua"), `return require("a")`)
	module := writeFile(t, filepath.Join(dir, "Loop.lua"), `require("a") return {}`)

	_, err := openArena(t, module, dir).Activate(context.Background())
	assert.ErrorContains(t, err, "required recursively")
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	arena := openArena(t, writeFile(t, filepath.Join(dir, "Idle.lua"), `return {}`))
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	require.NoError(t, arena.Release())
	require.NoError(t, arena.Release())
	assert.True(t, arena.(*Arena).Released())

	assert.ErrorIs(t, p.Start(context.Background()), ErrArenaReleased)
	assert.NoError(t, p.(plugin.Disposer).Dispose())
}

func TestCancelledContextInterruptsScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	module := writeFile(t, filepath.Join(dir, "Spin.lua"), `
return {
  start = function()
    while true do end
  end,
}
`)
	arena := openArena(t, module)
	p, err := arena.Activate(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Start(ctx))
}

func TestBridgeRoundTrip(t *testing.T) {
	t.Parallel()

	L := newArena(plugin.ArenaSpec{}, 64).L
	defer L.Close()

	in := map[string]any{
		"name": "deskmate",
		"tags": []any{"a", "b"},
		"n":    int64(3),
		"ok":   true,
	}
	out := toGo(toLua(L, in))
	assert.Equal(t, in, out)
}
