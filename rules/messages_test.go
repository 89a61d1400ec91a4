package rules

import "testing"

func TestResolveMessageLookupOrder(t *testing.T) {
	messages := map[string]string{
		"age.1":   "indexed",
		"age":     "field",
		"*_id":    "pattern",
		"*":       "fallback",
		"items.*": "nested pattern",
	}
	cases := []struct {
		field string
		index int
		want  string
	}{
		{field: "age", index: 1, want: "indexed"},
		{field: "age", index: 0, want: "field"},
		{field: "user_id", index: 0, want: "pattern"},
		{field: "items.0", index: 0, want: "nested pattern"},
		{field: "name", index: 0, want: "fallback"},
	}
	for _, tc := range cases {
		if got := resolveMessage(messages, tc.field, tc.index); got != tc.want {
			t.Fatalf("resolveMessage(%q, %d): want %q got %q", tc.field, tc.index, tc.want, got)
		}
	}
	if got := resolveMessage(nil, "age", 0); got != DefaultMessage {
		t.Fatalf("expected default message, got %q", got)
	}
}

func TestFormatMessagePlaceholders(t *testing.T) {
	got := formatMessage(":attribute failed :rule with :value", "age", "value > 1", 0)
	if got != "age failed value > 1 with 0" {
		t.Fatalf("unexpected message %q", got)
	}
}
