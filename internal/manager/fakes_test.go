package manager

import (
	"context"
	"errors"
	"sync"

	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// journal records lifecycle calls across plugins in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type recordingPlugin struct {
	id      string
	journal *journal
	failOn  string
	panicOn string
	onInit  func(ctx context.Context, pctx *plugin.Context) error
}

func (p *recordingPlugin) call(phase string) error {
	p.journal.add(p.id + ":" + phase)
	if p.panicOn == phase {
		panic(phase + " exploded")
	}
	if p.failOn == phase {
		return errors.New(phase + " failed")
	}
	return nil
}

func (p *recordingPlugin) Initialize(ctx context.Context, pctx *plugin.Context) error {
	if err := p.call("initialize"); err != nil {
		return err
	}
	if p.onInit != nil {
		return p.onInit(ctx, pctx)
	}
	return nil
}

func (p *recordingPlugin) Start(context.Context) error { return p.call("start") }
func (p *recordingPlugin) Stop(context.Context) error  { return p.call("stop") }

// fakeLoader serves descriptors and plugin instances from memory.
type fakeLoader struct {
	journal  *journal
	descs    []plugin.Descriptor
	plugins  map[string]*recordingPlugin
	failLoad map[string]string
	open     int
}

func newFakeLoader(j *journal) *fakeLoader {
	return &fakeLoader{
		journal:  j,
		plugins:  make(map[string]*recordingPlugin),
		failLoad: make(map[string]string),
	}
}

// add registers a plugin whose dependencies are deps.
func (l *fakeLoader) add(id string, deps ...string) *recordingPlugin {
	desc := plugin.Descriptor{ID: id, Name: id, Version: "1.0.0", Path: "/plugins/" + id + ".lua", Runtime: plugin.RuntimeLua}
	for _, dep := range deps {
		desc.Dependencies = append(desc.Dependencies, plugin.Dependency{ID: dep})
	}
	l.descs = append(l.descs, desc)
	p := &recordingPlugin{id: id, journal: l.journal}
	l.plugins[desc.Path] = p
	return p
}

func (l *fakeLoader) Discover(context.Context) ([]plugin.Descriptor, []error) {
	out := make([]plugin.Descriptor, len(l.descs))
	copy(out, l.descs)
	return out, nil
}

func (l *fakeLoader) Load(_ context.Context, path string, granted permission.Set) plugin.Descriptor {
	for _, d := range l.descs {
		if d.Path != path {
			continue
		}
		d.Granted = granted
		if msg, ok := l.failLoad[d.ID]; ok {
			d.Fail(msg)
			return d
		}
		l.open++
		d.State = plugin.StateLoaded
		d.Handle = &plugin.Handle{Instance: l.plugins[path]}
		return d
	}
	return plugin.Descriptor{ID: "unknown", Path: path, State: plugin.StateError, ErrorMessage: "no such module"}
}

func (l *fakeLoader) Unload(desc *plugin.Descriptor) error {
	if desc.Handle == nil {
		return nil
	}
	l.journal.add(desc.ID + ":unload")
	desc.Handle = nil
	l.open--
	return nil
}
