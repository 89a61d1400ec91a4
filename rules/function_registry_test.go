package rules

import (
	"reflect"
	"testing"
)

func TestFunctionRegistryRegisterAndCall(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("Double", func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("double", func(args ...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate registration to fail regardless of case")
	}
	if err := registry.Register("", func(args ...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := registry.Register("nil", nil); err == nil {
		t.Fatalf("expected nil function to fail")
	}

	got, err := registry.Call("DOUBLE", 21)
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %v (err=%v)", got, err)
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected unknown function to fail")
	}
	if !reflect.DeepEqual([]string{"Double"}, registry.Names()) {
		t.Fatalf("expected registration casing preserved, got %v", registry.Names())
	}

	clone := registry.Clone()
	_ = clone.Register("triple", func(args ...any) (any, error) { return nil, nil })
	if registry.Has("triple") {
		t.Fatalf("expected clone to be detached")
	}
}

func TestBuiltins(t *testing.T) {
	registry := Builtins()
	cases := []struct {
		name string
		fn   string
		args []any
		want bool
	}{
		{name: "required string", fn: "required", args: []any{"x"}, want: true},
		{name: "required blank", fn: "required", args: []any{"  "}, want: false},
		{name: "required nil", fn: "required", args: []any{nil}, want: false},
		{name: "required empty slice", fn: "required", args: []any{[]any{}}, want: false},
		{name: "required zero", fn: "required", args: []any{0}, want: true},
		{name: "email ok", fn: "email", args: []any{"ada@example.com"}, want: true},
		{name: "email display name", fn: "email", args: []any{"Ada <ada@example.com>"}, want: false},
		{name: "email non string", fn: "email", args: []any{12}, want: false},
		{name: "regex match", fn: "regex", args: []any{"abc-123", `^[a-z]+-\d+$`}, want: true},
		{name: "regex miss", fn: "regex", args: []any{"abc", `^\d+$`}, want: false},
		{name: "between number", fn: "between", args: []any{5, 1, 10}, want: true},
		{name: "between string length", fn: "between", args: []any{"héllo", 1, 4}, want: false},
		{name: "between list", fn: "between", args: []any{[]any{1, 2}, 2, 2}, want: true},
		{name: "oneOf variadic", fn: "oneOf", args: []any{"b", "a", "b"}, want: true},
		{name: "oneOf list", fn: "oneOf", args: []any{int64(2), []any{1, 2}}, want: true},
		{name: "oneOf miss", fn: "oneOf", args: []any{"z", "a"}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := registry.Call(tc.fn, tc.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %v got %v", tc.want, got)
			}
		})
	}

	if _, err := registry.Call("regex", "x", "("); err == nil {
		t.Fatalf("expected invalid pattern to error")
	}
	if _, err := registry.Call("required"); err == nil {
		t.Fatalf("expected arity error")
	}
}
