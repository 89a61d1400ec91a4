package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables bundles a rule table with its message table, as stored on disk:
//
//	rules:
//	  contact: "required(value) && email(value)"
//	  age:
//	    - "value != nil"
//	    - "value >= 18"
//	messages:
//	  age.1: "You must be an adult."
type Tables struct {
	Rules    map[string]any    `yaml:"rules"`
	Messages map[string]string `yaml:"messages"`
}

// LoadTables parses rule tables from a YAML file.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("rules: read tables %s: %w", path, err)
	}
	return ParseTables(data)
}

// ParseTables parses rule tables from YAML bytes. Every rule entry must be a
// string or a list of strings.
func ParseTables(data []byte) (Tables, error) {
	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("rules: parse tables: %w", err)
	}
	for field, spec := range tables.Rules {
		if err := checkSpec(spec); err != nil {
			return Tables{}, fmt.Errorf("rules: field %q: %w", field, err)
		}
	}
	if tables.Rules == nil {
		tables.Rules = map[string]any{}
	}
	if tables.Messages == nil {
		tables.Messages = map[string]string{}
	}
	return tables, nil
}

func checkSpec(spec any) error {
	switch typed := spec.(type) {
	case string:
		return nil
	case []any:
		for i, item := range typed {
			if _, ok := item.(string); !ok {
				return fmt.Errorf("rule %d must be a string, got %T", i, item)
			}
		}
		return nil
	default:
		return fmt.Errorf("rule must be a string or list of strings, got %T", spec)
	}
}
