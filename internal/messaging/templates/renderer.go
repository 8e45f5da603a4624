package templates

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template is a parsed message template that can be executed many times.
type Template struct {
	t *template.Template
}

// Renderer renders small text templates for outbound messaging.
type Renderer struct{}

// Compile parses tmpl with strict missing-key semantics.
func (Renderer) Compile(name, tmpl string) (*Template, error) {
	if tmpl == "" {
		return nil, fmt.Errorf("templates: template text required")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("templates: parse %s: %w", name, err)
	}
	return &Template{t: t}, nil
}

// Execute renders the template with data.
func (t *Template) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("templates: execute %s: %w", t.t.Name(), err)
	}
	return buf.String(), nil
}

// Render compiles and executes tmpl in one step.
func (r Renderer) Render(name, tmpl string, data any) (string, error) {
	t, err := r.Compile(name, tmpl)
	if err != nil {
		return "", err
	}
	return t.Execute(data)
}
