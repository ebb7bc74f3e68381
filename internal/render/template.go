// Package render evaluates compiled templates against page bindings and
// resolves link markers embedded in content HTML.
package render

import (
	"bytes"
	"html/template"

	"siteforge/internal/errors"
)

// Template is a compiled template binding, stored in the build scope under
// the template namespace.
type Template struct {
	name string
	tpl  *template.Template
}

// Compile parses source into a Template. Failures are reported as
// InvalidTemplate with the compiler's detail.
func Compile(name, source string) (*Template, error) {
	tpl, err := template.New(name).Parse(source)
	if err != nil {
		return nil, errors.InvalidTemplate(name, err)
	}
	return &Template{name: name, tpl: tpl}, nil
}

// Name returns the template's registered name.
func (t *Template) Name() string { return t.name }

// Evaluate executes the template against bindings and returns the HTML.
func (t *Template) Evaluate(bindings map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, bindings); err != nil {
		return nil, errors.InvalidTemplate(t.name, err)
	}
	return buf.Bytes(), nil
}
