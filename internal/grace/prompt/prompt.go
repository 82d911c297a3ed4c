// Package prompt renders the system prompt that instructs the model how to
// talk to customers and issue backend commands.
//
// The default template is embedded. Operators may supply their own; it is
// trusted content and is parsed with text/template.
package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"text/template"

	"github.com/artmatsak/grace/common/spec/domain"
	"github.com/artmatsak/grace/internal/grace/commands"
)

//go:embed templates/system.tmpl
var defaultTemplate string

// Vars holds the values substituted into a prompt template.
type Vars struct {
	BusinessName         string
	BusinessDescription  string
	ExtraInstructions    string
	CommandExampleJSON   string
	CommandExampleResult string
	EndToken             string
	Commands             []commands.Command
}

// Template is a parsed prompt template.
type Template struct {
	tmpl *template.Template
}

// Parse compiles text as a prompt template. Referencing a field Vars does
// not have fails at render time.
func Parse(name, text string) (*Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("prompt %q: parse: %w", name, err)
	}
	return &Template{tmpl: t}, nil
}

// Load reads and parses the template at path in fsys.
func Load(fsys fs.FS, path string) (*Template, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("prompt %q: %w", path, err)
	}
	return Parse(path, string(raw))
}

// Default returns the embedded template.
func Default() *Template {
	t, err := Parse("system.tmpl", defaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

// Execute renders t with vars.
func (t *Template) Execute(vars Vars) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("prompt %q: render: %w", t.tmpl.Name(), err)
	}
	return buf.String(), nil
}

// Render builds Vars from d and cmds and renders t. endToken is the word the
// model is told to output when the conversation is over.
func (t *Template) Render(d *domain.Domain, cmds []commands.Command, endToken string) (string, error) {
	example, err := ExampleJSON(d.CommandExample)
	if err != nil {
		return "", err
	}
	return t.Execute(Vars{
		BusinessName:         d.BusinessName,
		BusinessDescription:  d.BusinessDescription,
		ExtraInstructions:    d.ExtraInstructions,
		CommandExampleJSON:   example,
		CommandExampleResult: d.CommandExample.Result,
		EndToken:             endToken,
		Commands:             cmds,
	})
}

// Render renders the embedded template.
func Render(d *domain.Domain, cmds []commands.Command, endToken string) (string, error) {
	return Default().Render(d, cmds, endToken)
}

// ExampleJSON renders a command example as a payload, keys in sorted order,
// in the same spacing the model sees for registered commands.
func ExampleJSON(ex domain.CommandExample) (string, error) {
	keys := make([]string, 0, len(ex.Params))
	for k := range ex.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	name, _ := json.Marshal(ex.Command)
	fmt.Fprintf(&b, `{"command": %s, "params": {`, name)
	for i, k := range keys {
		key, _ := json.Marshal(k)
		val, err := json.Marshal(ex.Params[k])
		if err != nil {
			return "", fmt.Errorf("command example param %q: %w", k, err)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", key, val)
	}
	b.WriteString("}}")
	return b.String(), nil
}
