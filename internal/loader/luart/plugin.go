package luart

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// scriptPlugin adapts a script's entry table to plugin.Plugin.
type scriptPlugin struct {
	arena *Arena
	entry *lua.LTable
}

var (
	_ plugin.Plugin   = (*scriptPlugin)(nil)
	_ plugin.Disposer = (*scriptPlugin)(nil)
)

// Initialize calls entry.initialize(host) where host exposes pctx to the script.
func (p *scriptPlugin) Initialize(ctx context.Context, pctx *plugin.Context) error {
	return p.arena.call(ctx, p.entry, "initialize", func(L *lua.LState) lua.LValue {
		return newHostTable(L, p.arena, pctx)
	})
}

func (p *scriptPlugin) Start(ctx context.Context) error {
	return p.arena.call(ctx, p.entry, "start")
}

func (p *scriptPlugin) Stop(ctx context.Context) error {
	return p.arena.call(ctx, p.entry, "stop")
}

// Dispose calls entry.dispose when the script defines it.
func (p *scriptPlugin) Dispose() error {
	err := p.arena.call(context.Background(), p.entry, "dispose")
	if errors.Is(err, ErrArenaReleased) {
		return nil
	}
	return err
}
