// Package luart runs Lua plugins. Each plugin gets its own sandboxed
// gopher-lua state, which is the plugin's arena: closing the state releases
// everything the script allocated.
package luart

import (
	"bufio"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// Extension is the file extension of Lua modules.
const Extension = ".lua"

// Engine implements plugin.Engine for Lua scripts.
type Engine struct {
	callStackSize int
}

var _ plugin.Engine = (*Engine)(nil)

// New creates a Lua engine.
func New() *Engine {
	return &Engine{callStackSize: lua.CallStackSize}
}

func (e *Engine) Kind() plugin.Runtime { return plugin.RuntimeLua }

func (e *Engine) Extensions() []string { return []string{Extension} }

// Check parses and compiles the module without creating a Lua state.
func (e *Engine) Check(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	chunk, err := parse.Parse(bufio.NewReader(f), path)
	if err != nil {
		return fmt.Errorf("syntax error: %w", err)
	}
	if _, err := lua.Compile(chunk, path); err != nil {
		return fmt.Errorf("compile error: %w", err)
	}
	return nil
}

// Open creates a sandboxed state for spec. The module is not executed until
// the arena is activated.
func (e *Engine) Open(spec plugin.ArenaSpec) (plugin.Arena, error) {
	if _, err := os.Stat(spec.ModulePath); err != nil {
		return nil, fmt.Errorf("module %s: %w", spec.ModulePath, err)
	}
	return newArena(spec, e.callStackSize), nil
}
