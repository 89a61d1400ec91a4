package rules

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleTables = `
rules:
  contact: "required(value) && email(value)"
  age:
    - "value != nil"
    - "value >= 18"
messages:
  age.1: "You must be an adult."
`

func TestParseTables(t *testing.T) {
	tables, err := ParseTables([]byte(sampleTables))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tables.Rules["contact"] != "required(value) && email(value)" {
		t.Fatalf("unexpected contact rule: %#v", tables.Rules["contact"])
	}
	if !reflect.DeepEqual([]any{"value != nil", "value >= 18"}, tables.Rules["age"]) {
		t.Fatalf("unexpected age rules: %#v", tables.Rules["age"])
	}
	if tables.Messages["age.1"] != "You must be an adult." {
		t.Fatalf("unexpected messages: %#v", tables.Messages)
	}

	result := NewEngine().Validate(map[string]any{"contact": "ada@example.com", "age": 12}, tables.Rules, tables.Messages)
	if got := result.Errors(); !reflect.DeepEqual(map[string][]string{"age": {"You must be an adult."}}, got) {
		t.Fatalf("unexpected errors: %#v", got)
	}
}

func TestParseTablesRejectsInvalidSpecs(t *testing.T) {
	cases := map[string]string{
		"map rule":     "rules:\n  age:\n    min: 3\n",
		"numeric item": "rules:\n  age:\n    - 3\n",
		"bad yaml":     "rules: [",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseTables([]byte(input)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseTablesEmptyDocument(t *testing.T) {
	tables, err := ParseTables([]byte(""))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tables.Rules == nil || tables.Messages == nil {
		t.Fatalf("expected empty tables to be initialised")
	}
}

func TestLoadTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	if err := os.WriteFile(path, []byte(sampleTables), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tables.Rules) != 2 {
		t.Fatalf("expected two rules, got %d", len(tables.Rules))
	}
	if _, err := LoadTables(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file to fail")
	}
}
