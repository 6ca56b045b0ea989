package scanner

import (
	"strings"

	"github.com/temirov/backupfiles/internal/rules"
)

const directoryContentsSuffix = "/*"

// ExclusionMatcher decides whether root-relative paths are excluded by configured patterns.
type ExclusionMatcher struct {
	patterns []string
}

// NewExclusionMatcher normalizes patterns and drops blank or duplicate entries.
func NewExclusionMatcher(patterns []string) ExclusionMatcher {
	normalizedPatterns := []string{}
	encounteredPatterns := map[string]struct{}{}
	for _, pattern := range patterns {
		normalizedPattern := strings.TrimSuffix(rules.NormalizePattern(pattern), "/")
		if normalizedPattern == "" {
			continue
		}
		lookupKey := strings.ToLower(normalizedPattern)
		if _, exists := encounteredPatterns[lookupKey]; exists {
			continue
		}
		encounteredPatterns[lookupKey] = struct{}{}
		normalizedPatterns = append(normalizedPatterns, normalizedPattern)
	}
	return ExclusionMatcher{patterns: normalizedPatterns}
}

// Excluded reports whether the forward-slash relative path is excluded. A wildcard pattern
// matches the path itself or, unless it already ends in "*", anything beneath it. A plain
// pattern matches the path or anything beneath it by whole segments.
func (matcher ExclusionMatcher) Excluded(relativePath string) bool {
	normalizedPath := strings.TrimPrefix(rules.NormalizePattern(relativePath), "/")
	lowerPath := strings.ToLower(normalizedPath)
	for _, pattern := range matcher.patterns {
		if rules.IsWildcard(pattern) {
			if rules.Match(normalizedPath, pattern) {
				return true
			}
			if !strings.HasSuffix(pattern, "*") && rules.Match(normalizedPath, pattern+directoryContentsSuffix) {
				return true
			}
			continue
		}
		lowerPattern := strings.ToLower(pattern)
		if lowerPath == lowerPattern || strings.HasPrefix(lowerPath, lowerPattern+"/") {
			return true
		}
	}
	return false
}
