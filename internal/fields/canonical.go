package fields

import "strings"

// Canonicalize strips derivation decoration from a bracketed reference:
// [mn:Order Date:ok] becomes [Order Date]. References without a colon, and
// anything not starting with a bracket, are returned unchanged.
//
// The result never contains a colon inside its brackets, so applying
// Canonicalize again is a no-op.
func Canonicalize(ref string) string {
	if len(ref) < 2 || !strings.HasPrefix(ref, "[") {
		return ref
	}

	inner := ref[1 : len(ref)-1]
	if !strings.Contains(inner, ":") {
		return ref
	}

	parts := strings.Split(inner, ":")
	return "[" + parts[1] + "]"
}
