package assertions

import "strings"

// Enumerate renders items as a quoted, comma separated list in input order,
// e.g. ["a", "b"] becomes `"a", "b"`. Items are not escaped. An empty or nil
// slice renders as the empty string.
func Enumerate(items []string) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(item)
		b.WriteByte('"')
	}
	return b.String()
}
