package params

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stoewer/go-strcase"
)

// CamelizeKey converts a source key to its canonical lower camel form.
// Leading and trailing separators are dropped, snake, kebab and spaced keys
// are converted word by word and other keys only have their first rune
// lowered, so "fullName", "FullName" and "_full_name" all become "fullName".
// The result is stable: CamelizeKey(CamelizeKey(k)) == CamelizeKey(k).
func CamelizeKey(key string) string {
	trimmed := strings.Trim(key, keySeparators)
	if trimmed == "" {
		return key
	}
	if strings.ContainsAny(trimmed, keySeparators) {
		if camel := strcase.LowerCamelCase(trimmed); camel != "" {
			return lowerFirst(camel)
		}
		return trimmed
	}
	return lowerFirst(trimmed)
}

const keySeparators = "_- "

// CamelizeKeys re-keys values with CamelizeKey. Keys that collapse onto the
// same canonical name resolve in sorted source order, the last one winning.
// Values are not copied.
func CamelizeKeys(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for _, key := range sortedKeys(values) {
		out[CamelizeKey(key)] = values[key]
	}
	return out
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
