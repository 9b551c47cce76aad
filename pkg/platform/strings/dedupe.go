// Package strings holds slice helpers for user-supplied string lists.
package strings

import (
	"strings"
)

// DedupeBy keeps the first element for each key, in input order. Elements with
// an empty key are dropped.
func DedupeBy[T any](values []T, key func(T) string) []T {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		k := key(v)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, v)
	}
	return result
}

// DedupeAndTrim trims every value, then drops blanks and duplicates. Order is preserved.
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "}) // ["foo", "bar"]
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	trimmed := make([]string, len(values))
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
	}
	return DedupeBy(trimmed, func(s string) string { return s })
}
