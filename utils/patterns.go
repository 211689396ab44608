package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

// PatternMatcher applies user exclude patterns on top of the built-in
// exclusion set. A pattern is tried as a glob against the entry's base name
// and, when it compiles, as a regular expression against the slash-separated
// path relative to the scan root.
type PatternMatcher struct {
	globs []string
	regex []*regexp.Regexp
}

func NewPatternMatcher(excludePatterns []string) *PatternMatcher {
	globs := make([]string, 0, len(excludePatterns))
	for _, p := range excludePatterns {
		if p = strings.TrimSpace(p); p != "" {
			globs = append(globs, strings.TrimSuffix(p, "/"))
		}
	}
	return &PatternMatcher{
		globs: globs,
		regex: compileRegex(globs),
	}
}

func (m *PatternMatcher) Empty() bool {
	return m == nil || (len(m.globs) == 0 && len(m.regex) == 0)
}

// Excluded reports whether the entry at relPath (relative, slash-separated)
// matches any pattern.
func (m *PatternMatcher) Excluded(relPath string) bool {
	if m.Empty() {
		return false
	}
	base := filepath.Base(filepath.FromSlash(relPath))
	for _, pattern := range m.globs {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, _ := filepath.Match(pattern, relPath); matched {
				return true
			}
		}
	}
	for _, re := range m.regex {
		if re.MatchString(relPath) {
			return true
		}
	}
	return false
}

// compileRegex only keeps patterns that look like regular expressions, so a
// plain glob such as "*.lock" is not also treated as a broken regex.
func compileRegex(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "^$()|+\\") {
			continue
		}
		if re, err := regexp.Compile(pattern); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}
