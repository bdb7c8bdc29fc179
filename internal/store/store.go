// Package store persists per-plugin configuration: whether a plugin is enabled,
// which capabilities it was granted and its host-managed settings.
package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/deskmate/internal/fileutil"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
)

const (
	// FileName is the configuration file kept in the plugin root.
	FileName = "plugins.json"
	// DataDirName holds one private directory per plugin.
	DataDirName = "Data"

	fileVersion = "1.0"
)

// GrantPolicy decides what a never-seen plugin receives.
type GrantPolicy string

const (
	// GrantAll enables the plugin with every capability (trust on first use).
	GrantAll GrantPolicy = "all"
	// GrantNone enables the plugin with no capability.
	GrantNone GrantPolicy = "none"
)

// PluginConfiguration is the persisted record for one plugin.
type PluginConfiguration struct {
	ID       string         `json:"id"`
	Enabled  bool           `json:"enabled"`
	Granted  permission.Set `json:"granted"`
	Settings map[string]any `json:"settings,omitempty"`
}

func (c PluginConfiguration) clone() PluginConfiguration {
	c.Settings = maps.Clone(c.Settings)
	return c
}

type configFile struct {
	Version string                `json:"version"`
	Plugins []PluginConfiguration `json:"plugins"`
}

// Option customises a Store.
type Option func(*Store)

// WithPolicy selects the default grant for unknown plugins.
func WithPolicy(policy GrantPolicy) Option {
	return func(s *Store) { s.policy = policy }
}

// WithLogger routes store warnings to log.
func WithLogger(log *logger.Logger) Option {
	return func(s *Store) { s.log = log.With("component", "store") }
}

// Store is the single writer of plugin configuration.
type Store struct {
	root    string
	path    string
	mu      sync.RWMutex
	records map[string]PluginConfiguration
	policy  GrantPolicy
	log     *logger.Logger
	dirty   bool
}

// Open creates the plugin root when needed and loads its configuration file.
func Open(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:    root,
		path:    filepath.Join(root, FileName),
		records: make(map[string]PluginConfiguration),
		policy:  GrantAll,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plugin directory: %w", err)
	}

	s.Load()
	return s, nil
}

// Path returns the configuration file location.
func (s *Store) Path() string { return s.path }

// Policy returns the default grant policy.
func (s *Store) Policy() GrantPolicy { return s.policy }

// Load replaces the in-memory records with the file contents. A missing or
// unreadable file leaves the store empty so discovery can still proceed.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]PluginConfiguration)
	s.dirty = false

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error(err, "failed to read plugin configuration, starting empty")
		}
		return
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.log.WithFields(map[string]any{"path": s.path}).Error(err, "plugin configuration is corrupt, starting empty")
		return
	}

	for _, rec := range file.Plugins {
		if err := plugin.ValidateID(rec.ID); err != nil {
			s.log.Warn(fmt.Sprintf("ignoring configuration record: %v", err))
			continue
		}
		s.records[rec.ID] = rec.clone()
	}
}

// Get returns the record for id without creating one.
func (s *Store) Get(id string) (PluginConfiguration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return PluginConfiguration{}, false
	}
	return rec.clone(), true
}

// GetOrCreate returns the record for id, creating it from the grant policy when absent.
func (s *Store) GetOrCreate(id string) (PluginConfiguration, error) {
	if err := plugin.ValidateID(id); err != nil {
		return PluginConfiguration{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(id).clone(), nil
}

func (s *Store) getOrCreateLocked(id string) PluginConfiguration {
	if rec, ok := s.records[id]; ok {
		return rec
	}

	rec := PluginConfiguration{ID: id, Enabled: true, Granted: permission.All}
	if s.policy == GrantNone {
		rec.Granted = permission.None
	}
	s.records[id] = rec
	s.dirty = true
	s.log.WithFields(map[string]any{"plugin_id": id, "granted": rec.Granted.String()}).Info("created plugin configuration")
	return rec
}

// List returns every record sorted by ID.
func (s *Store) List() []PluginConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := sortedIDs(s.records)
	out := make([]PluginConfiguration, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].clone())
	}
	return out
}

// SetEnabled records whether id should load on the next cycle.
func (s *Store) SetEnabled(id string, enabled bool) error {
	return s.update(id, func(rec *PluginConfiguration) { rec.Enabled = enabled })
}

// SetGranted replaces the capabilities granted to id.
func (s *Store) SetGranted(id string, granted permission.Set) error {
	return s.update(id, func(rec *PluginConfiguration) { rec.Granted = granted & permission.All })
}

// SetSetting stores a host-managed setting for id.
func (s *Store) SetSetting(id, key string, value any) error {
	return s.update(id, func(rec *PluginConfiguration) {
		if rec.Settings == nil {
			rec.Settings = make(map[string]any)
		}
		rec.Settings[key] = value
	})
}

func (s *Store) update(id string, mutate func(*PluginConfiguration)) error {
	if err := plugin.ValidateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getOrCreateLocked(id).clone()
	mutate(&rec)
	s.records[id] = rec
	s.dirty = true
	return nil
}

// Dirty reports whether records changed since the last Load or Save.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Save writes every record to disk atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := configFile{Version: fileVersion, Plugins: make([]PluginConfiguration, 0, len(s.records))}
	for _, id := range sortedIDs(s.records) {
		file.Plugins = append(file.Plugins, s.records[id])
	}

	if err := fileutil.WriteJSON(s.path, file); err != nil {
		return fmt.Errorf("failed to save plugin configuration: %w", err)
	}
	s.dirty = false
	return nil
}

// PrivateDataDirectory returns the data directory of id, creating it when absent.
func (s *Store) PrivateDataDirectory(id string) (string, error) {
	if err := plugin.ValidateID(id); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, DataDirName, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory for %s: %w", id, err)
	}
	return dir, nil
}

func sortedIDs(records map[string]PluginConfiguration) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
