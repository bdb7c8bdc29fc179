package luart

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

var moduleNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// builtinModules can be required without touching the filesystem.
var builtinModules = map[string]bool{
	lua.TabLibName:    true,
	lua.StringLibName: true,
	lua.MathLibName:   true,
}

// installSandbox removes the loaders that reach the filesystem directly and
// installs require with one that only searches the arena's search paths.
func installSandbox(L *lua.LState, r *resolver) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "module"} {
		L.SetGlobal(name, lua.LNil)
	}

	// The package library is never opened: its loaders search package.path,
	// which a script could point anywhere.
	L.SetGlobal(lua.LoadLibName, lua.LNil)

	L.SetGlobal("require", L.NewFunction(r.require))
}

// resolver implements require for one arena. Modules resolve against the
// plugin's own directory before the shared directory, and each module runs at
// most once per arena.
type resolver struct {
	paths   []string
	loaded  map[string]lua.LValue
	loading map[string]bool
}

func newResolver(paths []string) *resolver {
	return &resolver{
		paths:   paths,
		loaded:  make(map[string]lua.LValue),
		loading: make(map[string]bool),
	}
}

// Resolve returns the file that require(name) would load.
func (r *resolver) Resolve(name string) (string, error) {
	if !moduleNamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid module name %q", name)
	}
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/"))
	for _, dir := range r.paths {
		for _, candidate := range []string{
			filepath.Join(dir, rel+Extension),
			filepath.Join(dir, rel, "init"+Extension),
		} {
			info, err := os.Stat(candidate)
			if err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("module %q not found in %s", name, strings.Join(r.paths, ", "))
}

func (r *resolver) require(L *lua.LState) int {
	name := L.CheckString(1)

	if builtinModules[name] {
		L.Push(L.GetGlobal(name))
		return 1
	}
	if v, ok := r.loaded[name]; ok {
		L.Push(v)
		return 1
	}
	if r.loading[name] {
		L.RaiseError("module %q is required recursively", name)
		return 0
	}

	path, err := r.Resolve(name)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	fn, err := L.LoadFile(path)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	r.loading[name] = true
	defer delete(r.loading, name)

	L.Push(fn)
	L.Push(lua.LString(name))
	L.Call(1, 1)

	value := L.Get(-1)
	L.Pop(1)
	if value == lua.LNil {
		value = lua.LTrue
	}
	r.loaded[name] = value
	L.Push(value)
	return 1
}
