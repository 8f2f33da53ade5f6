package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Loader reads, renders and validates tunnel definition files.
type Loader struct {
	fs   afero.Fs
	vars map[string]interface{}
}

// NewLoader creates a Loader reading from fs and rendering every file with
// vars. A nil fs means the OS filesystem.
func NewLoader(fs afero.Fs, vars map[string]interface{}) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs, vars: vars}
}

// LoadFiles loads every file in order and returns the hosts of all of them.
// It fails on the first invalid file, and when no file declares a host.
func (l *Loader) LoadFiles(paths []string) ([]HostConfig, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one configuration file is required")
	}

	var all []HostConfig
	for _, path := range paths {
		hosts, err := l.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
		all = append(all, hosts...)
	}

	if len(all) == 0 {
		return nil, errors.New("no valid host configurations found in any of the provided files")
	}
	return all, nil
}

// LoadFile loads the hosts of a single file.
func (l *Loader) LoadFile(path string) ([]HostConfig, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs, expanded)
	if err != nil {
		return nil, err
	}

	rendered, err := Render(path, string(data), l.vars)
	if err != nil {
		return nil, err
	}
	rendered, err = ExpandEnv(rendered)
	if err != nil {
		return nil, err
	}

	var file File
	dec := yaml.NewDecoder(strings.NewReader(rendered))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	for i := range file.Hosts {
		if err := file.Hosts[i].Validate(); err != nil {
			return nil, fmt.Errorf("host #%d: %w", i+1, err)
		}
	}
	return file.Hosts, nil
}

// LoadVarsFile reads a YAML mapping of template variables.
func LoadVarsFile(fs afero.Fs, path string) (map[string]interface{}, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fs, expanded)
	if err != nil {
		return nil, fmt.Errorf("error reading vars file %s: %w", path, err)
	}
	vars := map[string]interface{}{}
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&vars); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing vars file %s: %w", path, err)
	}
	return vars, nil
}

// ParseVars parses "key=value" pairs as given on the command line.
func ParseVars(pairs []string) (map[string]interface{}, error) {
	vars := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q: expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

// MergeVars merges variable sets, later sets overriding earlier ones.
func MergeVars(sets ...map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, set := range sets {
		for key, value := range set {
			result[key] = value
		}
	}
	return result
}
