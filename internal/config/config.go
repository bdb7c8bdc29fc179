// Package config loads the host runtime options from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/deskmate/internal/fileutil"
	"github.com/alexisbeaulieu97/deskmate/internal/store"
	"github.com/alexisbeaulieu97/deskmate/internal/validation"
	deskerrors "github.com/alexisbeaulieu97/deskmate/pkg/errors"
)

// Options are the runtime options of the plugin host.
type Options struct {
	PluginsDir       string        `yaml:"plugins_dir" validate:"required"`
	SharedDir        string        `yaml:"shared_dir,omitempty"`
	LogLevel         string        `yaml:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	HumanLogs        bool          `yaml:"human_logs,omitempty"`
	DefaultGrant     string        `yaml:"default_grant,omitempty" validate:"omitempty,oneof=all none"`
	LifecycleTimeout time.Duration `yaml:"lifecycle_timeout,omitempty" validate:"gte=0s"`
	SharedPrefixes   []string      `yaml:"shared_prefixes,omitempty" validate:"omitempty,dive,required"`
	Listen           string        `yaml:"listen,omitempty" validate:"omitempty,hostname_port"`
}

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Default returns the options used when no file is present.
func Default() Options {
	return Options{
		PluginsDir:   defaultPluginsDir(),
		LogLevel:     "info",
		DefaultGrant: string(store.GrantAll),
	}
}

// DefaultPath is the configuration file looked up when --config is not set.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "deskmate.yaml"
	}
	return filepath.Join(dir, "deskmate", "config.yaml")
}

func defaultPluginsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "plugins"
	}
	return filepath.Join(dir, "deskmate", "plugins")
}

// Load reads path, fills unset fields from Default and validates the result.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, deskerrors.ConfigParseError(path, 0, err)
	}
	return Parse(path, data)
}

// LoadOrDefault behaves like Load but returns Default when path does not exist.
func LoadOrDefault(path string) (Options, error) {
	if path == "" {
		return Default(), nil
	}
	opts, err := Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return opts, err
}

// Parse decodes a YAML document. name is only used in error messages.
func Parse(name string, data []byte) (Options, error) {
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, deskerrors.ConfigParseError(name, extractLine(err), err)
	}
	opts.applyDefaults()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (o *Options) applyDefaults() {
	def := Default()
	if o.PluginsDir == "" {
		o.PluginsDir = def.PluginsDir
	}
	if o.LogLevel == "" {
		o.LogLevel = def.LogLevel
	}
	if o.DefaultGrant == "" {
		o.DefaultGrant = def.DefaultGrant
	}
}

// Validate checks the options against their declared constraints.
func (o Options) Validate() error {
	return validation.Struct("config", &o)
}

// GrantPolicy maps DefaultGrant onto the store policy.
func (o Options) GrantPolicy() store.GrantPolicy {
	if o.DefaultGrant == string(store.GrantNone) {
		return store.GrantNone
	}
	return store.GrantAll
}

// Save writes the options to path as YAML.
func (o Options) Save(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return fileutil.WriteAtomic(path, data, 0o644)
}

func extractLine(err error) int {
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
