// Package commands provides the registry and dispatcher for backend commands
// the model embeds in its replies.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/artmatsak/grace/internal/grace/observability"
)

var (
	// ErrEmptyName is returned by Add for a blank or malformed command name.
	ErrEmptyName = errors.New("command name must be a non-empty identifier")
	// ErrAlreadyExists is returned by Add when the name is taken.
	ErrAlreadyExists = errors.New("command already registered")
	// ErrInvalidExample is returned by Add when the example parameters do not
	// match the declared parameter names.
	ErrInvalidExample = errors.New("example params do not match declared params")

	// ErrMalformedPayload is returned by Invoke when the payload is not a
	// command JSON object.
	ErrMalformedPayload = errors.New("malformed command JSON")
	// ErrUnknownCommand is returned by Invoke for unregistered commands.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMissingParam is returned by Invoke when a required parameter is absent.
	ErrMissingParam = errors.New("missing required parameter")
	// ErrInvalidParam is returned by Invoke for unexpected parameters or
	// parameter values that are not scalars.
	ErrInvalidParam = errors.New("invalid parameter")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Handler executes a command. params holds exactly the declared parameters.
// The result is rendered with fmt for scalars and JSON for composite values.
type Handler func(ctx context.Context, params map[string]string) (any, error)

// Command is a registered backend command.
type Command struct {
	Name          string
	Description   string
	Params        []string
	ExampleParams map[string]string
	ExampleResult string

	handler Handler
	schema  *jsonschema.Schema
}

// Signature renders the command as name(p1, p2).
func (c Command) Signature() string {
	return c.Name + "(" + strings.Join(c.Params, ", ") + ")"
}

// ExampleJSON renders an example payload invoking the command, with
// parameters in declaration order.
func (c Command) ExampleJSON() string {
	var b strings.Builder
	b.WriteString(`{"command": `)
	b.WriteString(quote(c.Name))
	b.WriteString(`, "params": {`)
	for i, p := range c.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(p))
		b.WriteString(": ")
		b.WriteString(quote(c.ExampleParams[p]))
	}
	b.WriteString("}}")
	return b.String()
}

func quote(s string) string {
	out, _ := json.Marshal(s)
	return string(out)
}

// Payload is the decoded form of an embedded command.
type Payload struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params"`
}

// Router maps command names to handlers. Registration happens before any
// session is built; Invoke is safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	commands map[string]*Command
	order    []string
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{commands: make(map[string]*Command)}
}

// Add registers a command. Every declared parameter is required and must
// have an example value.
func (r *Router) Add(name, description string, params []string, handler Handler, exampleParams map[string]string, exampleResult string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrEmptyName, name)
	}
	if handler == nil {
		return fmt.Errorf("command %s: nil handler", name)
	}
	for _, p := range params {
		if !identPattern.MatchString(p) {
			return fmt.Errorf("command %s: invalid parameter name %q", name, p)
		}
		if _, ok := exampleParams[p]; !ok {
			return fmt.Errorf("%w: command %s lacks example for %q", ErrInvalidExample, name, p)
		}
	}
	for p := range exampleParams {
		if !slices.Contains(params, p) {
			return fmt.Errorf("%w: command %s has example for undeclared %q", ErrInvalidExample, name, p)
		}
	}

	schema, err := compileParamSchema(name, params)
	if err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	r.commands[name] = &Command{
		Name:          name,
		Description:   description,
		Params:        slices.Clone(params),
		ExampleParams: exampleParams,
		ExampleResult: exampleResult,
		handler:       handler,
		schema:        schema,
	}
	r.order = append(r.order, name)
	return nil
}

// Commands returns the registered commands in registration order.
func (r *Router) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.commands[name])
	}
	return out
}

// Lookup returns the command registered under name.
func (r *Router) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	if !ok {
		return Command{}, false
	}
	return *c, true
}

// Invoke parses payload, validates it against the command's parameters,
// runs the handler and renders its result.
func (r *Router) Invoke(ctx context.Context, payload string) (string, error) {
	p, raw, err := ParsePayload(payload)
	if err != nil {
		return "", err
	}

	cmd, ok := r.Lookup(p.Command)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, p.Command)
	}

	if err := cmd.schema.Validate(raw); err != nil {
		return "", paramError(cmd, p.Params, err)
	}

	params := make(map[string]string, len(cmd.Params))
	for _, name := range cmd.Params {
		params[name] = stringify(p.Params[name])
	}

	observability.WithTrace(ctx).Debug("invoking command", "command", cmd.Name, "params", params)
	result, err := cmd.handler(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd.Name, err)
	}
	return render(result), nil
}

// ParsePayload decodes a command payload. raw is the generic JSON tree used
// for schema validation.
func ParsePayload(payload string) (Payload, any, error) {
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(payload)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Payload{}, nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if dec.More() {
		return Payload{}, nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedPayload)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return Payload{}, nil, fmt.Errorf("%w: expected an object", ErrMalformedPayload)
	}
	name, ok := obj["command"].(string)
	if !ok || name == "" {
		return Payload{}, nil, fmt.Errorf("%w: missing \"command\"", ErrMalformedPayload)
	}
	var params map[string]any
	switch v := obj["params"].(type) {
	case nil:
		params = map[string]any{}
	case map[string]any:
		params = v
	default:
		return Payload{}, nil, fmt.Errorf("%w: \"params\" must be an object", ErrMalformedPayload)
	}
	return Payload{Command: name, Params: params}, params, nil
}

// compileParamSchema builds the JSON Schema a command's params object must
// satisfy: every declared parameter present as a scalar, nothing else.
func compileParamSchema(name string, params []string) (*jsonschema.Schema, error) {
	props := make(map[string]any, len(params))
	for _, p := range params {
		props[p] = map[string]any{"type": []string{"string", "number", "boolean"}}
	}
	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             params,
		"additionalProperties": false,
	}
	if len(params) == 0 {
		delete(doc, "required")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	url := "mem://commands/" + name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, strings.NewReader(string(data))); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

// paramError turns a schema failure into one of the package sentinels.
func paramError(cmd Command, got map[string]any, cause error) error {
	var missing []string
	for _, p := range cmd.Params {
		if _, ok := got[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrMissingParam, cmd.Name, strings.Join(missing, ", "))
	}
	for p := range got {
		if !slices.Contains(cmd.Params, p) {
			return fmt.Errorf("%w: %s does not accept %q", ErrInvalidParam, cmd.Name, p)
		}
	}
	var ve *jsonschema.ValidationError
	if errors.As(cause, &ve) {
		return fmt.Errorf("%w: %s: %s", ErrInvalidParam, cmd.Name, ve.Error())
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidParam, cmd.Name, cause)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// render formats a handler result for the model.
func render(v any) string {
	if v == nil {
		return "OK"
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if out, err := json.Marshal(v); err == nil {
			return string(out)
		}
	}
	return fmt.Sprint(v)
}
