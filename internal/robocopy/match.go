package robocopy

import (
	"path"
	"strings"
)

// Matcher decides whether a file or directory is excluded by /XF or /XD patterns.
//
// Matching follows the tool: comparisons are case-insensitive, a pattern without a
// path separator is a wildcard matched against the entry name, and a pattern with a
// separator is matched against the full path. Every pattern applies to both files and
// directories because each one is passed as /XF and /XD.
type Matcher struct {
	names []string
	paths []string
}

// NewMatcher compiles the given patterns. Empty patterns are ignored.
func NewMatcher(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		p = normalizePath(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			m.paths = append(m.paths, strings.TrimSuffix(p, "/"))
		} else {
			m.names = append(m.names, p)
		}
	}
	return m
}

// Empty reports whether the matcher has no patterns.
func (m *Matcher) Empty() bool {
	return len(m.names) == 0 && len(m.paths) == 0
}

// Excluded reports whether the entry at fullPath is excluded.
func (m *Matcher) Excluded(fullPath string) bool {
	if m.Empty() {
		return false
	}

	p := strings.TrimSuffix(normalizePath(fullPath), "/")
	name := path.Base(p)

	for _, pattern := range m.names {
		if wildcardMatch(pattern, name) {
			return true
		}
	}
	for _, pattern := range m.paths {
		if wildcardMatch(pattern, p) {
			return true
		}
	}
	return false
}

// literalBrackets escapes the character-class syntax of path.Match. The tool only
// knows * and ?, so brackets in a pattern are part of the name.
var literalBrackets = strings.NewReplacer("[", `\[`, "]", `\]`)

func wildcardMatch(pattern, s string) bool {
	ok, err := path.Match(literalBrackets.Replace(pattern), s)
	if err != nil {
		return pattern == s
	}
	return ok
}

// normalizePath lowercases and uses forward slashes so Windows and Unix
// paths compare the same way.
func normalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
}
