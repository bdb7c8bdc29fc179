// Package errors holds the errors deskmate returns for plugin manifests and
// host configuration files that cannot be decoded or fail validation.
package errors

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Source names the kind of document an error came from.
type Source string

const (
	SourceManifest Source = "manifest"
	SourceConfig   Source = "config"
)

// ParseError is a document that could not be read or decoded. Line is
// 1-based and zero when the decoder reported no position.
type ParseError struct {
	Source Source
	Path   string
	Line   int
	Err    error
}

// ManifestParseError reports a plugin manifest at path that failed to decode.
func ManifestParseError(path string, line int, err error) error {
	return &ParseError{Source: SourceManifest, Path: path, Line: line, Err: err}
}

// ConfigParseError reports a host configuration file that failed to decode.
func ConfigParseError(path string, line int, err error) error {
	return &ParseError{Source: SourceConfig, Path: path, Line: line, Err: err}
}

// PluginDir returns the name of the directory holding a manifest, which is
// where discovery found the plugin. It is empty for configuration errors and
// for manifests parsed from a bare file name.
func (e *ParseError) PluginDir() string {
	if e == nil || e.Source != SourceManifest {
		return ""
	}
	dir := filepath.Dir(e.Path)
	if dir == "." || dir == filepath.Dir(dir) {
		return ""
	}
	return filepath.Base(dir)
}

// Position formats the location as path:line, or path alone.
func (e *ParseError) Position() string {
	if e.Line > 0 {
		return e.Path + ":" + strconv.Itoa(e.Line)
	}
	return e.Path
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s %s: %s", e.Source, e.Position(), msg)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError is a decoded document with a field that is not acceptable.
// File names the document, Field the offending key within it.
type ValidationError struct {
	File    string
	Field   string
	Message string
	Err     error
}

// NewFieldError constructs a ValidationError. file may be empty.
func NewFieldError(file, field, message string, err error) error {
	return &ValidationError{File: file, Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.File != "" && e.Field != "":
		return fmt.Sprintf("invalid %s: %s: %s", e.File, e.Field, e.Message)
	case e.File != "" || e.Field != "":
		return fmt.Sprintf("invalid %s: %s", e.File+e.Field, e.Message)
	}
	return "invalid: " + e.Message
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
