package metrics

import "strings"

// norm keeps label values lowercase and bounded; unknown/empty values
// collapse to "unknown" so cardinality stays fixed.
func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
