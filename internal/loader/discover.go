package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

// maxDirDepth is how far below the root discovery descends: the root's
// subdirectories and one further level.
const maxDirDepth = 2

// dirManifest caches a directory manifest for the duration of one scan.
type dirManifest struct {
	manifest *plugin.Manifest
	path     string
	err      error
	reported bool
}

// Discover lists the builtin plugins followed by every plugin module found
// under the root, all in the Unloaded state. A bad candidate is reported in
// the returned errors and skipped; discovery as a whole never fails because
// of one. No arena is opened.
func (l *Loader) Discover(ctx context.Context) ([]plugin.Descriptor, []error) {
	var (
		descs []plugin.Descriptor
		errs  []error
		seen  = make(map[string]string)
	)

	for _, b := range l.builtins {
		desc, err := builtinDescriptor(b)
		if err != nil {
			errs = append(errs, &DiscoveryError{Path: desc.Path, Err: err})
			continue
		}
		seen[desc.ID] = desc.Path
		descs = append(descs, desc)
	}

	if _, err := os.Stat(l.root); errors.Is(err, fs.ErrNotExist) {
		l.log.WithFields(map[string]any{"root": l.root}).Debug("plugin directory does not exist")
		return descs, errs
	}

	cache := make(map[string]*dirManifest)
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.root {
				return err
			}
			errs = append(errs, &DiscoveryError{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != l.root && l.skipDir(path, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := l.engines[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if l.isSharedModule(d.Name()) {
			l.log.WithFields(map[string]any{"path": path}).Debug("skipping shared module")
			return nil
		}

		desc, _, err := l.inspect(path, cache)
		switch {
		case errors.Is(err, errNotCandidate):
			return nil
		case err != nil:
			l.log.WithFields(map[string]any{"path": path}).Error(err, "skipping plugin candidate")
			errs = append(errs, &DiscoveryError{Path: path, Err: err})
			return nil
		}

		if prev, dup := seen[desc.ID]; dup {
			dupErr := fmt.Errorf("%w %q: already provided by %s", ErrDuplicateID, desc.ID, prev)
			l.log.WithFields(map[string]any{"path": path}).Warn(dupErr.Error())
			errs = append(errs, &DiscoveryError{Path: path, Err: dupErr})
			return nil
		}
		seen[desc.ID] = path
		descs = append(descs, desc)
		return nil
	})
	if err != nil {
		errs = append(errs, &DiscoveryError{Path: l.root, Err: err})
	}

	l.log.WithFields(map[string]any{"plugins": len(descs), "errors": len(errs)}).Info("plugin discovery finished")
	return descs, errs
}

func (l *Loader) skipDir(path, name string) bool {
	if strings.HasPrefix(name, ".") || path == l.sharedDir || path == l.dataDir {
		return true
	}
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return true
	}
	return len(strings.Split(rel, string(filepath.Separator))) > maxDirDepth
}

// isSharedModule reports whether a file name looks like a library rather than
// a plugin: a known prefix, or a ".lib" or ".shared" segment before the
// extension as in Helper.lib.lua.
func (l *Loader) isSharedModule(fileName string) bool {
	lower := strings.ToLower(fileName)
	for _, prefix := range l.prefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	segments := strings.Split(strings.TrimSuffix(lower, filepath.Ext(lower)), ".")
	for _, seg := range segments[1:] {
		if seg == "lib" || seg == "shared" {
			return true
		}
	}
	return false
}

// inspect reads the manifest describing the module at path and syntax-checks
// the module. cache may be nil.
func (l *Loader) inspect(path string, cache map[string]*dirManifest) (plugin.Descriptor, plugin.Engine, error) {
	engine, ok := l.engines[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return plugin.Descriptor{}, nil, ErrNoEngine
	}

	manifest, err := l.findManifest(path, cache)
	if err != nil {
		return plugin.Descriptor{}, engine, err
	}
	if err := engine.Check(path); err != nil {
		return plugin.Descriptor{}, engine, err
	}
	desc, err := manifest.Descriptor(engine.Kind(), path)
	if err != nil {
		return plugin.Descriptor{}, engine, err
	}
	return desc, engine, nil
}

// findManifest locates the manifest for a module. A sidecar named
// <module>.plugin.<ext> wins; otherwise a directory manifest plugin.<ext>
// applies when its main field names the module, or, without a main field,
// when the module is named after its directory.
func (l *Loader) findManifest(module string, cache map[string]*dirManifest) (*plugin.Manifest, error) {
	dir := filepath.Dir(module)
	file := filepath.Base(module)
	base := strings.TrimSuffix(file, filepath.Ext(file))

	for _, ext := range plugin.ManifestExtensions {
		sidecar := filepath.Join(dir, base+"."+plugin.ManifestBaseName+ext)
		if isFile(sidecar) {
			return plugin.ReadManifest(sidecar)
		}
	}

	convention := dir != l.root && strings.EqualFold(base, filepath.Base(dir))
	if dir != l.root {
		dm := l.dirManifest(dir, cache)
		switch {
		case dm == nil:
		case dm.err != nil:
			if dm.reported {
				return nil, errNotCandidate
			}
			dm.reported = true
			return nil, dm.err
		case dm.manifest.Main != "":
			if filepath.Clean(filepath.FromSlash(dm.manifest.Main)) == file {
				return dm.manifest, nil
			}
			return nil, errNotCandidate
		case convention:
			return dm.manifest, nil
		default:
			return nil, errNotCandidate
		}
	}

	if convention || dir == l.root {
		return nil, ErrNoManifest
	}
	return nil, errNotCandidate
}

func (l *Loader) dirManifest(dir string, cache map[string]*dirManifest) *dirManifest {
	if dm, ok := cache[dir]; ok {
		return dm
	}
	var found *dirManifest
	for _, ext := range plugin.ManifestExtensions {
		path := filepath.Join(dir, plugin.ManifestBaseName+ext)
		if !isFile(path) {
			continue
		}
		m, err := plugin.ReadManifest(path)
		found = &dirManifest{manifest: m, path: path, err: err}
		break
	}
	if cache != nil {
		cache[dir] = found
	}
	return found
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
