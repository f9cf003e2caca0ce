package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"filebridge/internal/config"
)

// Declarative implements Tool for a parameter struct P. Decoding enforces the
// schema's required keys, rejects unknown fields and reports type mismatches;
// build performs the semantic checks and returns the invocation.
type Declarative[P any] struct {
	name        string
	description string
	schema      map[string]any
	required    []string
	properties  map[string]struct{}
	build       func(P) (Invocation, error)
}

// NewDeclarative wires a tool from its schema and semantic builder. The
// required list is read from schema["required"] and the accepted keys from
// schema["properties"].
func NewDeclarative[P any](name, description string, schema map[string]any, build func(P) (Invocation, error)) *Declarative[P] {
	required, _ := schema["required"].([]string)
	props, _ := schema["properties"].(map[string]any)
	properties := make(map[string]struct{}, len(props))
	for key := range props {
		properties[key] = struct{}{}
	}
	return &Declarative[P]{
		name:        name,
		description: description,
		schema:      schema,
		required:    required,
		properties:  properties,
		build:       build,
	}
}

func (d *Declarative[P]) Name() string           { return d.name }
func (d *Declarative[P]) Description() string    { return d.description }
func (d *Declarative[P]) Schema() map[string]any { return d.schema }

// Build decodes raw into P and runs the semantic builder.
func (d *Declarative[P]) Build(raw json.RawMessage) (Invocation, error) {
	params, verr := d.decode(raw)
	if verr != nil {
		return nil, verr
	}
	inv, err := d.build(params)
	if err != nil {
		var v *ValidationError
		if errors.As(err, &v) {
			if v.Tool == "" {
				v.Tool = d.name
			}
			return nil, v
		}
		return nil, &ValidationError{Tool: d.name, Type: ErrorInvalidParams, Message: err.Error()}
	}
	return inv, nil
}

func (d *Declarative[P]) decode(raw json.RawMessage) (P, *ValidationError) {
	var params P
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return params, invalidParams(d.name, "params must be object")
	}
	for _, key := range d.required {
		value, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return params, invalidParams(d.name, "params must have required property '%s'", key)
		}
	}

	// encoding/json matches struct fields case-insensitively, so keys are
	// checked verbatim against the schema before the typed decode.
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := d.properties[key]; !ok {
			return params, invalidParams(d.name, "params must NOT have additional properties: %s", key)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return params, invalidParams(d.name, "%s", decodeMessage(err))
	}
	return params, nil
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("params/%s must be %s", typeErr.Field, jsonType(typeErr.Type))
	}
	msg := err.Error()
	if field, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return "params must NOT have additional properties: " + strings.Trim(field, `"`)
	}
	return strings.TrimPrefix(msg, "json: ")
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "object"
	}
}

// requireAvailable rejects tools that the Files API cannot serve under the
// configured auth mode.
func requireAvailable(tool string, auth config.AuthType) error {
	if auth == config.AuthVertexAI {
		return &ValidationError{
			Tool:    tool,
			Type:    ErrorToolUnavailable,
			Message: fmt.Sprintf("The %s tool is not available when using Vertex AI authentication. The Gemini Files API requires a Gemini API key.", tool),
		}
	}
	return nil
}
