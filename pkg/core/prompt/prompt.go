// Package prompt is the library of LLM instructions used by the transform.
// Built-in templates ship with the binary; YAML or JSON files under a
// prompts directory overlay them field by field, so the instructions can be
// tuned without a rebuild.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Template is one prompt: the system instructions plus a text/template for
// the user message.
type Template struct {
	ID          string     `json:"id" yaml:"id"` // e.g. "kreditlab.transform"
	Name        string     `json:"name" yaml:"name"`
	Category    string     `json:"category" yaml:"category"`
	Description string     `json:"description" yaml:"description"`
	System      string     `json:"system_prompt" yaml:"system_prompt"`
	User        string     `json:"user_prompt_template" yaml:"user_prompt_template"`
	Variables   []Variable `json:"variables" yaml:"variables"`
	Version     string     `json:"version" yaml:"version"`

	compiled *template.Template
}

// Variable documents one template input.
type Variable struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
	Default     string `json:"default" yaml:"default"`
}

// Vars are the values a user template is executed with.
type Vars map[string]interface{}

func (t *Template) compile() error {
	if t.User == "" {
		t.compiled = nil
		return nil
	}
	tmpl, err := template.New(t.ID).Option("missingkey=error").Parse(t.User)
	if err != nil {
		return fmt.Errorf("PROMPT_TEMPLATE_INVALID: %s: %w", t.ID, err)
	}
	t.compiled = tmpl
	return nil
}

// Render executes the user template. Declared defaults fill absent
// variables; required ones without a value are reported together.
func (t *Template) Render(vars Vars) (string, error) {
	if t.compiled == nil {
		return "", nil
	}

	data := Vars{}
	var missing []string
	for _, v := range t.Variables {
		if _, ok := vars[v.Name]; ok {
			continue
		}
		switch {
		case v.Default != "":
			data[v.Name] = v.Default
		case v.Required:
			missing = append(missing, v.Name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("PROMPT_VARIABLE_MISSING: %s: %s", t.ID, strings.Join(missing, ", "))
	}
	for k, v := range vars {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := t.compiled.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("PROMPT_RENDER_FAILED: %s: %w", t.ID, err)
	}
	return buf.String(), nil
}

// overlay returns a copy of base with every non-empty field of o applied.
func overlay(base, o *Template) *Template {
	out := *base
	for dst, src := range map[*string]string{
		&out.Name:        o.Name,
		&out.Category:    o.Category,
		&out.Description: o.Description,
		&out.System:      o.System,
		&out.User:        o.User,
		&out.Version:     o.Version,
	} {
		if src != "" {
			*dst = src
		}
	}
	if len(o.Variables) > 0 {
		out.Variables = o.Variables
	}
	return &out
}
