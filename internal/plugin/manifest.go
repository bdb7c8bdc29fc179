package plugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/deskmate/internal/permission"
	"github.com/alexisbeaulieu97/deskmate/internal/validation"
	deskerrors "github.com/alexisbeaulieu97/deskmate/pkg/errors"
)

// ManifestBaseName is the file name, without extension, of a directory manifest.
// A sidecar manifest for module foo.lua is named foo.plugin.<ext>.
const ManifestBaseName = "plugin"

// ManifestExtensions lists accepted manifest formats in lookup order.
var ManifestExtensions = []string{".yaml", ".yml", ".json", ".toml"}

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Manifest is the declarative description read during discovery. Reading it
// never runs plugin code.
type Manifest struct {
	ID           string         `json:"id" yaml:"id" toml:"id" validate:"required,plugin_id"`
	Name         string         `json:"name" yaml:"name" toml:"name" validate:"max=128"`
	Version      string         `json:"version" yaml:"version" toml:"version" validate:"required,semver"`
	Author       string         `json:"author" yaml:"author" toml:"author"`
	Description  string         `json:"description" yaml:"description" toml:"description"`
	Main         string         `json:"main" yaml:"main" toml:"main"`
	Dependencies []string       `json:"dependencies" yaml:"dependencies" toml:"dependencies" validate:"dive,required"`
	Permissions  []string       `json:"permissions" yaml:"permissions" toml:"permissions" validate:"dive,required"`
	Settings     map[string]any `json:"settings" yaml:"settings" toml:"settings"`
}

// ReadManifest decodes and validates the manifest at path. The format follows
// the file extension.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, deskerrors.ManifestParseError(path, 0, err)
	}
	return ParseManifest(path, data)
}

// ParseManifest decodes data using the format implied by name.
func ParseManifest(name string, data []byte) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, deskerrors.ManifestParseError(name, yamlLine(err), err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, deskerrors.ManifestParseError(name, jsonLine(data, err), err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, deskerrors.ManifestParseError(name, tomlLine(err), err)
		}
	default:
		return nil, deskerrors.ManifestParseError(name, 0, fmt.Errorf("unsupported manifest format %q", filepath.Ext(name)))
	}

	m.applyDefaults()
	if err := validation.Struct(filepath.Base(name), &m); err != nil {
		return nil, err
	}
	if _, err := m.RequiredPermissions(); err != nil {
		return nil, deskerrors.NewFieldError(filepath.Base(name), "permissions", err.Error(), err)
	}
	if _, err := m.ParsedDependencies(); err != nil {
		return nil, deskerrors.NewFieldError(filepath.Base(name), "dependencies", err.Error(), err)
	}
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	m.ID = strings.TrimSpace(m.ID)
	if m.Name == "" {
		m.Name = m.ID
	}
}

// RequiredPermissions resolves the declared permission names.
func (m *Manifest) RequiredPermissions() (permission.Set, error) {
	return permission.ParseSet(m.Permissions)
}

// ParsedDependencies resolves the declared dependencies.
func (m *Manifest) ParsedDependencies() ([]Dependency, error) {
	deps := make([]Dependency, 0, len(m.Dependencies))
	for _, raw := range m.Dependencies {
		dep, err := ParseDependency(raw)
		if err != nil {
			return nil, err
		}
		if dep.ID == m.ID {
			return nil, fmt.Errorf("plugin %q cannot depend on itself", m.ID)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// Descriptor builds an unloaded descriptor from the manifest.
func (m *Manifest) Descriptor(runtime Runtime, path string) (Descriptor, error) {
	required, err := m.RequiredPermissions()
	if err != nil {
		return Descriptor{}, err
	}
	deps, err := m.ParsedDependencies()
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		ID:                  m.ID,
		Name:                m.Name,
		Version:             m.Version,
		Author:              m.Author,
		Description:         m.Description,
		Dependencies:        deps,
		RequiredPermissions: required,
		State:               StateUnloaded,
		Runtime:             runtime,
		Path:                path,
		Settings:            m.Settings,
	}, nil
}

func yamlLine(err error) int {
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	line, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0
	}
	return line
}

func jsonLine(data []byte, err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var offset int64
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

func tomlLine(err error) int {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, _ := decodeErr.Position()
		return row
	}
	return 0
}
