package lineage

import (
	"regexp"
	"slices"
	"strings"

	"github.com/twbdoc/twbdoc/internal/fields"
)

var (
	bracketToken   = regexp.MustCompile(`\[([^\]]+)\]`)
	parameterToken = regexp.MustCompile(`\[Parameters\]\.\[([^\]]+)\]`)
)

// keywords are calculation-language names that share the bracket space with
// field references.
var keywords = map[string]struct{}{
	"SUM": {}, "AVG": {}, "COUNT": {}, "MIN": {}, "MAX": {},
	"IF": {}, "THEN": {}, "ELSE": {}, "END": {},
}

// Resolver maps a bracketed key to a display name.
type Resolver interface {
	Lookup(key fields.Key) (fields.Definition, bool)
}

// ExtractFieldReferences returns the sorted, de-duplicated display names of
// the ordinary fields a formula references. Unknown keys resolve to the raw
// token text. The token right after "[Parameters]." belongs to
// ExtractParameterReferences.
func ExtractFieldReferences(formula string, idx Resolver) []string {
	if formula == "" {
		return nil
	}

	seen := make(map[string]struct{})
	for _, loc := range bracketToken.FindAllStringSubmatchIndex(formula, -1) {
		token := formula[loc[2]:loc[3]]
		if skipToken(token) || strings.HasSuffix(formula[:loc[0]], "[Parameters].") {
			continue
		}
		seen[resolve(token, idx)] = struct{}{}
	}
	return sortedKeys(seen)
}

// ExtractParameterReferences returns the sorted, de-duplicated parameter
// names referenced as [Parameters].[name]. Names are not looked up.
func ExtractParameterReferences(formula string) []string {
	seen := make(map[string]struct{})
	for _, m := range parameterToken.FindAllStringSubmatch(formula, -1) {
		seen[m[1]] = struct{}{}
	}
	return sortedKeys(seen)
}

// References merges the field and parameter references of a formula.
func References(formula string, idx Resolver) []string {
	seen := make(map[string]struct{})
	for _, name := range ExtractFieldReferences(formula, idx) {
		seen[name] = struct{}{}
	}
	for _, name := range ExtractParameterReferences(formula) {
		seen[name] = struct{}{}
	}
	return sortedKeys(seen)
}

func skipToken(token string) bool {
	if _, ok := keywords[strings.ToUpper(token)]; ok {
		return true
	}
	return strings.ContainsAny(token, "()") || strings.HasPrefix(token, "Parameters")
}

func resolve(token string, idx Resolver) string {
	if idx == nil {
		return token
	}
	if def, ok := idx.Lookup(fields.Key("[" + token + "]")); ok {
		return def.DisplayName
	}
	return token
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
