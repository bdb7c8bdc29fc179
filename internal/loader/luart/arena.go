package luart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// ErrArenaReleased is returned by any use of an arena after Release.
var ErrArenaReleased = errors.New("lua arena released")

// ErrNoEntryPoint is returned when a script does not return its entry table.
var ErrNoEntryPoint = errors.New("module does not return an entry table")

// Arena owns one Lua state. gopher-lua states are not goroutine safe, so every
// use goes through mu.
type Arena struct {
	mu     sync.Mutex
	L      *lua.LState
	spec   plugin.ArenaSpec
	ctx    context.Context
	closed bool
}

func newArena(spec plugin.ArenaSpec, callStackSize int) *Arena {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: callStackSize,
	})
	openSafeLibraries(L)

	a := &Arena{L: L, spec: spec, ctx: context.Background()}
	installSandbox(L, newResolver(spec.SearchPaths))
	return a
}

// Activate runs the module's top level. The chunk must return a table whose
// optional initialize, start, stop and dispose fields are functions.
func (a *Arena) Activate(ctx context.Context) (plugin.Plugin, error) {
	var entry *lua.LTable
	err := a.run(ctx, func(L *lua.LState) error {
		fn, err := L.LoadFile(a.spec.ModulePath)
		if err != nil {
			return err
		}
		L.Push(fn)
		if err := L.PCall(0, 1, nil); err != nil {
			return err
		}
		ret := L.Get(-1)
		L.Pop(1)

		tbl, ok := ret.(*lua.LTable)
		if !ok {
			return fmt.Errorf("%w (got %s)", ErrNoEntryPoint, ret.Type())
		}
		for _, name := range []string{"initialize", "start", "stop", "dispose"} {
			if v := tbl.RawGetString(name); v != lua.LNil && v.Type() != lua.LTFunction {
				return fmt.Errorf("entry field %q must be a function, got %s", name, v.Type())
			}
		}
		entry = tbl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &scriptPlugin{arena: a, entry: entry}, nil
}

// Release closes the state. It is safe to call more than once.
func (a *Arena) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.L.Close()
	a.closed = true
	a.L = nil
	return nil
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// run executes fn with exclusive access to the state and ctx installed, so
// that cancelling ctx interrupts the script.
func (a *Arena) run(ctx context.Context, fn func(L *lua.LState) error) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrArenaReleased
	}

	if ctx == nil {
		ctx = context.Background()
	}
	a.ctx = ctx
	a.L.SetContext(ctx)
	defer func() {
		a.L.RemoveContext()
		a.ctx = context.Background()
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	return fn(a.L)
}

// call invokes entry[name](args...) when present.
func (a *Arena) call(ctx context.Context, entry *lua.LTable, name string, args ...func(L *lua.LState) lua.LValue) error {
	return a.run(ctx, func(L *lua.LState) error {
		fn, ok := entry.RawGetString(name).(*lua.LFunction)
		if !ok {
			return nil
		}
		values := make([]lua.LValue, 0, len(args))
		for _, build := range args {
			values = append(values, build(L))
		}
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, values...)
	})
}

// openSafeLibraries opens the libraries that cannot reach the host system.
func openSafeLibraries(L *lua.LState) {
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
}
