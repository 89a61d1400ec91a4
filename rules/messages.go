package rules

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
)

// DefaultMessage is used when no message template matches a failed rule.
const DefaultMessage = "The :attribute field is invalid."

// resolveMessage picks the template for the rule at index on field. Lookup
// order: "field.index", "field", the first matching pattern (sorted), "*".
func resolveMessage(messages map[string]string, field string, index int) string {
	if len(messages) == 0 {
		return DefaultMessage
	}
	if message, ok := messages[field+"."+strconv.Itoa(index)]; ok {
		return message
	}
	if message, ok := messages[field]; ok {
		return message
	}

	patterns := make([]string, 0, len(messages))
	for key := range messages {
		if key != "*" && isPattern(key) {
			patterns = append(patterns, key)
		}
	}
	sort.Strings(patterns)
	for _, pattern := range patterns {
		if matched, err := path.Match(pattern, field); err == nil && matched {
			return messages[pattern]
		}
	}

	if message, ok := messages["*"]; ok {
		return message
	}
	return DefaultMessage
}

func formatMessage(template, field, expression string, value any) string {
	replacer := strings.NewReplacer(
		":attribute", field,
		":rule", expression,
		":value", fmt.Sprint(value),
	)
	return replacer.Replace(template)
}
