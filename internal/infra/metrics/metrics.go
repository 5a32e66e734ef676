package metrics

import "strings"

// norm keeps label values lowercase and bounded so a caller cannot explode
// cardinality with arbitrary input.
func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	if len(s) > 32 {
		s = s[:32]
	}
	return s
}
