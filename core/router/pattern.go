// Package router compiles path-pattern strings into anchored matchers with
// named captures and keeps routes in declaration order.
package router

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPrefix marks a path variable segment, as in /users/:id.
const DefaultPrefix = ":"

// Pattern is a compiled path pattern. A variable segment matches one or
// more word characters; every other segment matches literally. The whole
// path must match, partial matches never succeed.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// Compile builds a Pattern from a path string. prefix selects the variable
// marker, "" means DefaultPrefix. A one-character pattern matches itself
// literally. Empty segments from leading, trailing or doubled slashes are
// skipped.
func Compile(pattern, prefix string) (*Pattern, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var b strings.Builder
	b.WriteString("^")

	if len(pattern) == 1 {
		b.WriteString(regexp.QuoteMeta(pattern))
	} else {
		for _, segment := range strings.Split(pattern, "/") {
			if segment == "" {
				continue
			}
			if name, ok := strings.CutPrefix(segment, prefix); ok {
				fmt.Fprintf(&b, `/(?P<%s>\w+)`, name)
			} else {
				b.WriteString("/" + regexp.QuoteMeta(segment))
			}
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return &Pattern{source: pattern, re: re}, nil
}

// MustCompile is Compile that panics on error, for static route tables.
func MustCompile(pattern, prefix string) *Pattern {
	p, err := Compile(pattern, prefix)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the original pattern source.
func (p *Pattern) String() string {
	return p.source
}

// Match tests a path against the pattern. On success it returns the
// captured variables by name (empty map for a variable-free pattern).
func (p *Pattern) Match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	vars := make(map[string]string)
	for i, name := range p.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		vars[name] = m[i]
	}
	return vars, true
}
