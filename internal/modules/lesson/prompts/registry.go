package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultPersonas []byte

type Template struct {
	Name       PromptName
	Version    int
	Title      string
	Model      string
	SchemaName string
	Schema     func() map[string]any
	System     func(Input) string
	User       func(Input) string
}

// Prompt is a rendered persona ready to hand to a generator.
type Prompt struct {
	Name       string
	Version    int
	Title      string
	Model      string
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// Structured reports whether the prompt expects a schema-validated result.
func (p Prompt) Structured() bool {
	return p.SchemaName != "" && p.Schema != nil
}

// Registry is an immutable set of compiled persona templates.
type Registry struct {
	templates map[PromptName]Template
}

// Default compiles the embedded persona catalogue.
func Default() (*Registry, error) {
	return Parse(defaultPersonas)
}

// Parse compiles a YAML persona catalogue. Every name in Names must be present.
func Parse(data []byte) (*Registry, error) {
	var specs []Spec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}
	r := &Registry{templates: make(map[PromptName]Template, len(specs))}
	for _, s := range specs {
		t, err := MakeTemplate(s)
		if err != nil {
			return nil, err
		}
		if _, dup := r.templates[t.Name]; dup {
			return nil, fmt.Errorf("duplicate prompt: %s", t.Name)
		}
		r.templates[t.Name] = t
	}
	for _, name := range Names {
		if _, ok := r.templates[name]; !ok {
			return nil, fmt.Errorf("persona catalogue missing prompt: %s", name)
		}
	}
	return r, nil
}

// WithModels returns a copy of r with per-prompt model overrides applied.
// Blank overrides are ignored.
func (r *Registry) WithModels(models map[PromptName]string) *Registry {
	out := &Registry{templates: make(map[PromptName]Template, len(r.templates))}
	for name, t := range r.templates {
		if m := strings.TrimSpace(models[name]); m != "" {
			t.Model = m
		}
		out.templates[name] = t
	}
	return out
}

// Build renders the named prompt against in.
func (r *Registry) Build(name PromptName, in Input) (Prompt, error) {
	t, ok := r.templates[name]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	if t.System == nil || t.User == nil {
		return Prompt{}, fmt.Errorf("prompt %s missing system/user renderers", string(name))
	}
	p := Prompt{
		Name:       string(t.Name),
		Version:    t.Version,
		Title:      t.Title,
		Model:      t.Model,
		SchemaName: t.SchemaName,
		System:     t.System(in),
		User:       t.User(in),
	}
	if t.Schema != nil {
		p.Schema = t.Schema()
	}
	return p, nil
}
