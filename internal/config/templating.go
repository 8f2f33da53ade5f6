package config

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"github.com/a8m/envsubst"
)

// ErrRaised is wrapped by render errors produced by the template's raise
// function.
var ErrRaised = errors.New("raised by template")

var templateFuncs = template.FuncMap{
	// raise aborts rendering with the given message, e.g.
	//   {{ if not .cluster }}{{ raise "cluster is required" }}{{ end }}
	"raise": func(msg string) (string, error) {
		return "", fmt.Errorf("%w: %s", ErrRaised, msg)
	},
	// default returns value unless it is empty, in which case def is used.
	"default": func(def, value interface{}) interface{} {
		if value == nil {
			return def
		}
		if s, ok := value.(string); ok && s == "" {
			return def
		}
		return value
	},
}

// Render executes content as a text/template with vars as its data. Missing
// variables are an error.
func Render(name, content string, vars map[string]interface{}) (string, error) {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, vars); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return out.String(), nil
}

// ExpandEnv expands ${VAR} and ${VAR:-default} references from the process
// environment.
func ExpandEnv(value string) (string, error) {
	result, err := envsubst.String(value)
	if err != nil {
		return "", fmt.Errorf("error expanding environment: %w", err)
	}
	return result, nil
}
