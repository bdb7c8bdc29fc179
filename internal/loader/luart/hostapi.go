package luart

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/alexisbeaulieu97/deskmate/internal/host"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// maxResponseBytes caps how much of an HTTP response a script can read.
const maxResponseBytes = 1 << 20

// hostAPI backs the host table handed to a script's initialize function.
// Every call goes through the plugin's gated context; a denied call raises a
// Lua error in the calling script.
type hostAPI struct {
	arena *Arena
	pctx  *plugin.Context
}

func newHostTable(L *lua.LState, a *Arena, pctx *plugin.Context) *lua.LTable {
	h := &hostAPI{arena: a, pctx: pctx}

	tbl := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"log":            h.log,
		"has_permission": h.hasPermission,
		"data_dir":       h.dataDir,
	})
	tbl.RawSetString("id", lua.LString(pctx.PluginID()))

	tbl.RawSetString("settings", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get":  h.settingsGet,
		"set":  h.settingsSet,
		"save": h.settingsSave,
	}))
	tbl.RawSetString("registry", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"register": h.registryRegister,
		"lookup":   h.registryLookup,
		"names":    h.registryNames,
	}))
	tbl.RawSetString("tasks", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"list":   h.tasksList,
		"get":    h.tasksGet,
		"create": h.tasksCreate,
		"delete": h.tasksDelete,
		"save":   h.tasksSave,
	}))
	tbl.RawSetString("reminders", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"list":   h.remindersList,
		"get":    h.remindersGet,
		"create": h.remindersCreate,
		"delete": h.remindersDelete,
		"snooze": h.remindersSnooze,
		"toggle": h.remindersToggle,
		"save":   h.remindersSave,
	}))
	tbl.RawSetString("databank", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"categories":      h.databankCategories,
		"create_category": h.databankCreateCategory,
		"entries":         h.databankEntries,
		"create_entry":    h.databankCreateEntry,
		"import_file":     h.databankImportFile,
		"save":            h.databankSave,
	}))
	tbl.RawSetString("assets", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"list":             h.assetsList,
		"capture":          h.assetsCapture,
		"copy":             h.assetsCopy,
		"save_file":        h.assetsSaveFile,
		"save_dialog":      h.assetsSaveDialog,
		"save_to_databank": h.assetsSaveToDataBank,
	}))
	tbl.RawSetString("chat", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"sessions":       h.chatSessions,
		"create_session": h.chatCreateSession,
		"messages":       h.chatMessages,
		"append":         h.chatAppend,
		"save":           h.chatSave,
	}))
	tbl.RawSetString("ui", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"toast":           h.uiToast,
		"register_tab":    h.uiRegisterTab,
		"register_button": h.uiRegisterButton,
	}))
	tbl.RawSetString("http", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"get": h.httpGet,
	}))
	return tbl
}

func (h *hostAPI) ctx() context.Context { return h.arena.ctx }

func raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func push(L *lua.LState, v any, err error) int {
	if err != nil {
		return raise(L, err)
	}
	L.Push(toLua(L, v))
	return 1
}

func done(L *lua.LState, err error) int {
	if err != nil {
		return raise(L, err)
	}
	return 0
}

func (h *hostAPI) log(L *lua.LState) int {
	if L.GetTop() < 2 {
		h.pctx.Logger().Info(L.CheckString(1))
		return 0
	}
	h.pctx.Logger().Log(L.CheckString(1), L.CheckString(2))
	return 0
}

func (h *hostAPI) hasPermission(L *lua.LState) int {
	p, err := permission.Parse(L.CheckString(1))
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LBool(h.pctx.HasPermission(p)))
	return 1
}

func (h *hostAPI) dataDir(L *lua.LState) int {
	L.Push(lua.LString(h.pctx.DataDir()))
	return 1
}

func (h *hostAPI) settingsGet(L *lua.LState) int {
	store := h.pctx.Settings()
	if store == nil {
		L.Push(lua.LNil)
		return 1
	}
	v, _ := store.Get(L.CheckString(1))
	L.Push(toLua(L, v))
	return 1
}

func (h *hostAPI) settingsSet(L *lua.LState) int {
	store := h.pctx.Settings()
	if store == nil {
		return raise(L, fmt.Errorf("settings unavailable"))
	}
	store.Set(L.CheckString(1), toGo(L.Get(2)))
	return 0
}

func (h *hostAPI) settingsSave(L *lua.LState) int {
	store := h.pctx.Settings()
	if store == nil {
		return raise(L, fmt.Errorf("settings unavailable"))
	}
	return done(L, store.Save())
}

func (h *hostAPI) registryRegister(L *lua.LState) int {
	h.pctx.Registry().Register(L.CheckString(1), toGo(L.Get(2)))
	return 0
}

func (h *hostAPI) registryLookup(L *lua.LState) int {
	v, ok := h.pctx.Registry().Get(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, v))
	return 1
}

func (h *hostAPI) registryNames(L *lua.LState) int {
	L.Push(toLua(L, h.pctx.Registry().Names()))
	return 1
}

func (h *hostAPI) tasksList(L *lua.LState) int {
	tasks, err := h.pctx.Tasks().Tasks(h.ctx())
	return push(L, tasks, err)
}

func (h *hostAPI) tasksGet(L *lua.LState) int {
	task, err := h.pctx.Tasks().Task(h.ctx(), L.CheckString(1))
	return push(L, task, err)
}

func (h *hostAPI) tasksCreate(L *lua.LState) int {
	var task host.Task
	if err := decodeTable(L.CheckTable(1), &task); err != nil {
		return raise(L, fmt.Errorf("invalid task: %w", err))
	}
	created, err := h.pctx.Tasks().CreateTask(h.ctx(), task)
	return push(L, created, err)
}

func (h *hostAPI) tasksDelete(L *lua.LState) int {
	return done(L, h.pctx.Tasks().DeleteTask(h.ctx(), L.CheckString(1)))
}

func (h *hostAPI) tasksSave(L *lua.LState) int {
	return done(L, h.pctx.Tasks().Save(h.ctx()))
}

func (h *hostAPI) remindersList(L *lua.LState) int {
	reminders, err := h.pctx.Reminders().Reminders(h.ctx())
	return push(L, reminders, err)
}

func (h *hostAPI) remindersGet(L *lua.LState) int {
	reminder, err := h.pctx.Reminders().Reminder(h.ctx(), L.CheckString(1))
	return push(L, reminder, err)
}

func (h *hostAPI) remindersCreate(L *lua.LState) int {
	var reminder host.Reminder
	if err := decodeTable(L.CheckTable(1), &reminder); err != nil {
		return raise(L, fmt.Errorf("invalid reminder: %w", err))
	}
	created, err := h.pctx.Reminders().CreateReminder(h.ctx(), reminder)
	return push(L, created, err)
}

func (h *hostAPI) remindersDelete(L *lua.LState) int {
	return done(L, h.pctx.Reminders().DeleteReminder(h.ctx(), L.CheckString(1)))
}

// remindersSnooze takes the reminder ID and a delay in minutes.
func (h *hostAPI) remindersSnooze(L *lua.LState) int {
	until := time.Now().Add(time.Duration(float64(L.CheckNumber(2)) * float64(time.Minute)))
	reminder, err := h.pctx.Reminders().Snooze(h.ctx(), L.CheckString(1), until)
	return push(L, reminder, err)
}

func (h *hostAPI) remindersToggle(L *lua.LState) int {
	reminder, err := h.pctx.Reminders().ToggleComplete(h.ctx(), L.CheckString(1))
	return push(L, reminder, err)
}

func (h *hostAPI) remindersSave(L *lua.LState) int {
	return done(L, h.pctx.Reminders().Save(h.ctx()))
}

func (h *hostAPI) databankCategories(L *lua.LState) int {
	categories, err := h.pctx.DataBank().Categories(h.ctx())
	return push(L, categories, err)
}

func (h *hostAPI) databankCreateCategory(L *lua.LState) int {
	category, err := h.pctx.DataBank().CreateCategory(h.ctx(), host.Category{Name: L.CheckString(1)})
	return push(L, category, err)
}

func (h *hostAPI) databankEntries(L *lua.LState) int {
	entries, err := h.pctx.DataBank().Entries(h.ctx(), L.OptString(1, ""))
	return push(L, entries, err)
}

func (h *hostAPI) databankCreateEntry(L *lua.LState) int {
	var entry host.Entry
	if err := decodeTable(L.CheckTable(1), &entry); err != nil {
		return raise(L, fmt.Errorf("invalid entry: %w", err))
	}
	created, err := h.pctx.DataBank().CreateEntry(h.ctx(), entry)
	return push(L, created, err)
}

func (h *hostAPI) databankImportFile(L *lua.LState) int {
	entry, err := h.pctx.DataBank().ImportFile(h.ctx(), L.CheckString(1), L.CheckString(2))
	return push(L, entry, err)
}

func (h *hostAPI) databankSave(L *lua.LState) int {
	return done(L, h.pctx.DataBank().Save(h.ctx()))
}

func (h *hostAPI) assetsList(L *lua.LState) int {
	assets, err := h.pctx.DataAssets().Assets(h.ctx())
	return push(L, assets, err)
}

func (h *hostAPI) assetsCapture(L *lua.LState) int {
	asset, err := h.pctx.DataAssets().Capture(h.ctx(), host.AssetKind(L.OptString(1, string(host.AssetScreenshot))))
	return push(L, asset, err)
}

func (h *hostAPI) assetsCopy(L *lua.LState) int {
	return done(L, h.pctx.DataAssets().CopyToClipboard(h.ctx(), L.CheckString(1)))
}

func (h *hostAPI) assetsSaveFile(L *lua.LState) int {
	return done(L, h.pctx.DataAssets().SaveToFile(h.ctx(), L.CheckString(1), L.CheckString(2)))
}

func (h *hostAPI) assetsSaveDialog(L *lua.LState) int {
	path, err := h.pctx.DataAssets().SaveWithDialog(h.ctx(), L.CheckString(1))
	return push(L, path, err)
}

func (h *hostAPI) assetsSaveToDataBank(L *lua.LState) int {
	entry, err := h.pctx.DataAssets().SaveToDataBank(h.ctx(), L.CheckString(1), L.CheckString(2))
	return push(L, entry, err)
}

func (h *hostAPI) chatSessions(L *lua.LState) int {
	sessions, err := h.pctx.Chat().Sessions(h.ctx())
	return push(L, sessions, err)
}

func (h *hostAPI) chatCreateSession(L *lua.LState) int {
	session, err := h.pctx.Chat().CreateSession(h.ctx(), L.OptString(1, ""))
	return push(L, session, err)
}

func (h *hostAPI) chatMessages(L *lua.LState) int {
	messages, err := h.pctx.Chat().Messages(h.ctx(), L.CheckString(1))
	return push(L, messages, err)
}

func (h *hostAPI) chatAppend(L *lua.LState) int {
	msg, err := h.pctx.Chat().AppendMessage(h.ctx(), host.ChatMessage{
		SessionID: L.CheckString(1),
		Role:      L.CheckString(2),
		Content:   L.CheckString(3),
	})
	return push(L, msg, err)
}

func (h *hostAPI) chatSave(L *lua.LState) int {
	return done(L, h.pctx.Chat().Save(h.ctx()))
}

func (h *hostAPI) uiToast(L *lua.LState) int {
	return done(L, h.pctx.UI().Toast(h.ctx(), host.Toast{
		Title:   L.CheckString(1),
		Message: L.OptString(2, ""),
		Level:   host.ToastLevel(L.OptString(3, string(host.ToastInfo))),
	}))
}

func (h *hostAPI) uiRegisterTab(L *lua.LState) int {
	return done(L, h.pctx.UI().RegisterTab(h.ctx(), host.Tab{
		ID:       L.CheckString(1),
		Title:    L.OptString(2, ""),
		PluginID: h.pctx.PluginID(),
	}))
}

func (h *hostAPI) uiRegisterButton(L *lua.LState) int {
	return done(L, h.pctx.UI().RegisterToolbarButton(h.ctx(), host.ToolbarButton{
		ID:       L.CheckString(1),
		Label:    L.OptString(2, ""),
		Tooltip:  L.OptString(3, ""),
		PluginID: h.pctx.PluginID(),
	}))
}

// httpGet returns the response body and status code.
func (h *hostAPI) httpGet(L *lua.LState) int {
	client, err := h.pctx.HTTPClient()
	if err != nil {
		return raise(L, err)
	}
	req, err := http.NewRequestWithContext(h.ctx(), http.MethodGet, L.CheckString(1), nil)
	if err != nil {
		return raise(L, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return raise(L, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(string(body)))
	L.Push(lua.LNumber(resp.StatusCode))
	return 2
}
