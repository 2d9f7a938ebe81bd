// Package filter decides which extracted candidates become accepted links.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter accepts absolute http(s) links and root-relative paths, optionally
// narrowed by a pattern. The zero value accepts on scheme alone.
type Filter struct {
	pattern *regexp.Regexp
}

// New returns a Filter using pattern, which may be nil.
func New(pattern *regexp.Regexp) *Filter {
	return &Filter{pattern: pattern}
}

// Compile builds a Filter from a pattern string. An empty string means no
// pattern. The pattern is compiled once here, never per candidate.
func Compile(pattern string) (*Filter, error) {
	if pattern == "" {
		return New(nil), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}
	return New(re), nil
}

// Pattern returns the compiled pattern, or nil.
func (f *Filter) Pattern() *regexp.Regexp {
	return f.pattern
}

// Accept reports whether candidate should be kept. The pattern is an
// unanchored search, not a full match.
func (f *Filter) Accept(candidate string) bool {
	if candidate == "" {
		return false
	}
	if !hasWebScheme(candidate) && !strings.HasPrefix(candidate, "/") {
		return false
	}
	if f.pattern != nil && !f.pattern.MatchString(candidate) {
		return false
	}
	return true
}

// Apply returns the accepted subset of candidates in input order.
func (f *Filter) Apply(candidates []string) []string {
	accepted := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if f.Accept(c) {
			accepted = append(accepted, c)
		}
	}
	return accepted
}

func hasWebScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
