// Package enums holds the string enums persisted in postgres enum columns
// and accepted at the API boundary.
package enums

import "fmt"

func contains[T ~string](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func parse[T ~string](values []T, raw, label string) (T, error) {
	for _, candidate := range values {
		if string(candidate) == raw {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", label, raw)
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
