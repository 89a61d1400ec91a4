// Package openapi renders parameter objects as OpenAPI schema objects,
// suitable for request body documentation.
package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	params "github.com/goliatone/go-params"
)

// Option configures ForObject.
type Option func(*config)

type config struct {
	title       string
	description string
	defaults    bool
}

// WithTitle overrides the schema title. Defaults to the schema name.
func WithTitle(title string) Option {
	return func(c *config) {
		c.title = title
	}
}

// WithDescription sets the schema description.
func WithDescription(description string) Option {
	return func(c *config) {
		c.description = description
	}
}

// WithDefaults records current non-nil field values as defaults.
func WithDefaults() Option {
	return func(c *config) {
		c.defaults = true
	}
}

// ForObject describes the exported fields of o. Fields whose rules call
// required(...) are listed as required.
func ForObject(o *params.Object, opts ...Option) (map[string]any, error) {
	if o == nil {
		return nil, fmt.Errorf("openapi: nil object")
	}
	cfg := config{title: o.Schema().Name()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	snapshot := o.Snapshot()
	schema, err := schemaForMap(reflect.ValueOf(snapshot))
	if err != nil {
		return nil, err
	}
	if cfg.title != "" {
		schema["title"] = cfg.title
	}
	if cfg.description != "" {
		schema["description"] = cfg.description
	}
	if cfg.defaults {
		properties := schema["properties"].(map[string]any)
		for name, value := range snapshot {
			if value == nil {
				continue
			}
			if property, ok := properties[name].(map[string]any); ok {
				property["default"] = value
			}
		}
	}
	if required := requiredFields(o.Rules(), snapshot); len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

// Generate describes an arbitrary value.
func Generate(value any) (map[string]any, error) {
	return buildSchema(reflect.ValueOf(value))
}

func requiredFields(table params.RuleTable, snapshot map[string]any) []string {
	var required []string
	for field, spec := range table {
		if _, ok := snapshot[field]; !ok {
			continue
		}
		if mentionsRequired(spec) {
			required = append(required, field)
		}
	}
	sort.Strings(required)
	return required
}

func mentionsRequired(spec any) bool {
	switch typed := spec.(type) {
	case string:
		return strings.Contains(typed, "required(")
	case []string:
		for _, item := range typed {
			if strings.Contains(item, "required(") {
				return true
			}
		}
	case []any:
		for _, item := range typed {
			if text, ok := item.(string); ok && strings.Contains(text, "required(") {
				return true
			}
		}
	}
	return false
}

func buildSchema(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{"type": "null"}, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		return buildSchema(rv.Elem())
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return map[string]any{"type": "string", "format": "date-time"}, nil
		}
		return schemaForStruct(rv)
	case reflect.Map:
		return schemaForMap(rv)
	case reflect.Slice, reflect.Array:
		return schemaForSlice(rv)
	default:
		return map[string]any{
			"type":   "string",
			"format": fmt.Sprintf("go:%s", rv.Type().String()),
		}, nil
	}
}

func schemaForMap(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rv.Type().Key())
	}

	properties := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		child, err := buildSchema(iter.Value())
		if err != nil {
			return nil, err
		}
		properties[iter.Key().String()] = child
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}, nil
}

func schemaForStruct(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	properties := map[string]any{}

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		child, err := buildSchema(rv.Field(i))
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}, nil
}

func schemaForSlice(rv reflect.Value) (map[string]any, error) {
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return map[string]any{"type": "string", "format": "byte"}, nil
	}

	items := map[string]any{}
	if rv.Len() > 0 {
		first, err := buildSchema(rv.Index(0))
		if err != nil {
			return nil, err
		}
		items = first
	}
	return map[string]any{
		"type":  "array",
		"items": items,
	}, nil
}
