package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Spec is the declaration format of one persona, as written in personas.yaml.
type Spec struct {
	Name    PromptName `yaml:"name"`
	Version int        `yaml:"version"`
	// Display name of the agent, used in logs and traces
	Title string `yaml:"title"`
	Model string `yaml:"model"`
	// Empty for plain-text personas
	SchemaName string `yaml:"schema_name"`
	// These can be plain strings or go templates using {{.Field}} from Input
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// MakeTemplate compiles a Spec into a Template (runtime type)
func MakeTemplate(s Spec) (Template, error) {
	if strings.TrimSpace(string(s.Name)) == "" {
		return Template{}, fmt.Errorf("missing prompt name")
	}
	if s.Version <= 0 {
		return Template{}, fmt.Errorf("invalid version for %s", s.Name)
	}
	var schema func() map[string]any
	if name := strings.TrimSpace(s.SchemaName); name != "" {
		fn, ok := schemaFuncs[name]
		if !ok {
			return Template{}, fmt.Errorf("%s: unknown schema %q", s.Name, name)
		}
		schema = fn
	}
	sysT, err := template.New("system").Option("missingkey=zero").Parse(s.System)
	if err != nil {
		return Template{}, fmt.Errorf("%s system template parse: %w", s.Name, err)
	}
	userT, err := template.New("user").Option("missingkey=zero").Parse(s.User)
	if err != nil {
		return Template{}, fmt.Errorf("%s user template parse: %w", s.Name, err)
	}
	render := func(t *template.Template, in Input) string {
		var b bytes.Buffer
		_ = t.Execute(&b, in)
		return strings.TrimSpace(b.String())
	}
	return Template{
		Name:       s.Name,
		Version:    s.Version,
		Title:      strings.TrimSpace(s.Title),
		Model:      strings.TrimSpace(s.Model),
		SchemaName: strings.TrimSpace(s.SchemaName),
		Schema:     schema,
		System:     func(in Input) string { return render(sysT, in) },
		User:       func(in Input) string { return render(userT, in) },
	}, nil
}
