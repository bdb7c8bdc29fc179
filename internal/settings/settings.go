// Package settings implements the private key/value store each plugin gets
// inside its data directory.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/deskmate/internal/fileutil"
)

// FileName is the settings file created inside a plugin's data directory.
const FileName = "settings.json"

// Store holds a plugin's own settings. Values written by the plugin shadow the
// host-managed defaults from the plugin configuration.
type Store struct {
	path     string
	mu       sync.RWMutex
	values   map[string]any
	defaults map[string]any
	dirty    bool
}

// Open loads the settings file in dir. A missing file yields an empty store.
func Open(dir string, defaults map[string]any) (*Store, error) {
	s := &Store{
		path:     filepath.Join(dir, FileName),
		values:   make(map[string]any),
		defaults: make(map[string]any, len(defaults)),
	}
	for k, v := range defaults {
		s.defaults[k] = v
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the value for key, falling back to the host-managed default.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[key]; ok {
		return v, true
	}
	v, ok := s.defaults[key]
	return v, ok
}

// GetString returns key as a string or fallback when absent or not a string.
func (s *Store) GetString(key, fallback string) string {
	v, ok := s.Get(key)
	if !ok {
		return fallback
	}
	str, ok := v.(string)
	if !ok {
		return fallback
	}
	return str
}

// Set stores value under key. Call Save to persist.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	s.dirty = true
}

// Delete removes a plugin-written value; defaults are unaffected.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Keys lists every key visible through Get, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.values)+len(s.defaults))
	for k := range s.values {
		seen[k] = struct{}{}
	}
	for k := range s.defaults {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save writes plugin-written values to disk when anything changed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := fileutil.WriteJSON(s.path, s.values); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
