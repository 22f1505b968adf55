// Package prompts holds the named prompt templates every workflow renders.
//
// Templates are text/template bodies over a flat map of string variables.
// Rendering is strict: an unknown template name, a missing variable or an
// unexpected variable is an error, so a typo never reaches the model as an
// empty string.
package prompts

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

// Template is one named prompt.
type Template struct {
	Name string
	Vars []string // variables the body references, in display order
	Text string
}

// Library is an immutable set of parsed templates.
type Library struct {
	templates map[string]*parsed
}

type parsed struct {
	def  Template
	tmpl *template.Template
}

// NewLibrary parses the given templates. Duplicate names and parse errors fail.
func NewLibrary(defs ...Template) (*Library, error) {
	lib := &Library{templates: make(map[string]*parsed, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("template name cannot be empty")
		}
		if _, dup := lib.templates[def.Name]; dup {
			return nil, fmt.Errorf("duplicate template %q", def.Name)
		}
		tmpl, err := template.New(def.Name).Option("missingkey=error").Parse(def.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", def.Name, err)
		}
		lib.templates[def.Name] = &parsed{def: def, tmpl: tmpl}
	}
	return lib, nil
}

// Render executes the named template with vars.
func (l *Library) Render(name string, vars map[string]string) (string, error) {
	p, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}

	declared := make(map[string]bool, len(p.def.Vars))
	var missing []string
	for _, v := range p.def.Vars {
		declared[v] = true
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("template %q: missing variables: %s", name, strings.Join(missing, ", "))
	}

	var unexpected []string
	for k := range vars {
		if !declared[k] {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) > 0 {
		sort.Strings(unexpected)
		return "", fmt.Errorf("template %q: unexpected variables: %s", name, strings.Join(unexpected, ", "))
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Names returns all template names, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a template definition by name.
func (l *Library) Lookup(name string) (Template, bool) {
	p, ok := l.templates[name]
	if !ok {
		return Template{}, false
	}
	return p.def, true
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
)

// Default returns the built-in library. The built-ins are compiled into the
// binary, so a parse failure is a programming error and panics.
func Default() *Library {
	defaultOnce.Do(func() {
		lib, err := NewLibrary(builtins...)
		if err != nil {
			panic(fmt.Sprintf("prompts: built-in templates invalid: %v", err))
		}
		defaultLib = lib
	})
	return defaultLib
}

// Render renders a built-in template.
func Render(name string, vars map[string]string) (string, error) {
	return Default().Render(name, vars)
}
