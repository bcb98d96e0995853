package pagecache

import (
	"strconv"
	"strings"
)

// PageKey identifies one page of a filtered listing. Scope is usually built
// with Scope from the filter dimensions (status tab, search text, page size).
type PageKey struct {
	Scope string
	Page  int
}

// OpKey identifies a non-paged operation, e.g. "counts".
type OpKey string

// Scope joins filter dimensions into one comparable scope string.
// Parts are length-prefixed, so ("a:b", "c") and ("a", "b:c") differ, and the
// scope of a prefix of parts is a string prefix of the scope of all parts.
func Scope(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// InScope matches page keys whose scope equals scope.
func InScope(scope string) func(PageKey) bool {
	return func(k PageKey) bool { return k.Scope == scope }
}

// ScopePrefix matches page keys whose scope starts with the given leading
// dimensions, e.g. every search and page under one status tab.
func ScopePrefix(parts ...string) func(PageKey) bool {
	prefix := Scope(parts...)
	return func(k PageKey) bool { return strings.HasPrefix(k.Scope, prefix) }
}
