// Package rules implements wildcard matching and the ordered pattern rules used to select files.
package rules

import (
	"regexp"
	"strings"
	"sync"
)

const (
	anyRunWildcard     = "*"
	singleRuneWildcard = "?"
)

var (
	compiledPatternCache      = map[string]*regexp.Regexp{}
	compiledPatternCacheMutex sync.Mutex
)

// IsWildcard reports whether pattern contains a wildcard character.
func IsWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, anyRunWildcard+singleRuneWildcard)
}

// NormalizePattern converts backslashes to slashes and strips leading "./" and "/" sequences.
func NormalizePattern(pattern string) string {
	normalizedPattern := strings.ReplaceAll(strings.TrimSpace(pattern), "\\", "/")
	for {
		switch {
		case strings.HasPrefix(normalizedPattern, "./"):
			normalizedPattern = normalizedPattern[2:]
		case strings.HasPrefix(normalizedPattern, "/"):
			normalizedPattern = normalizedPattern[1:]
		default:
			return normalizedPattern
		}
	}
}

// Match reports whether text matches the wildcard pattern. "*" matches any run of characters
// including "/", "?" matches exactly one character, and comparison ignores case.
// Backslashes in text and pattern are treated as "/". An empty pattern matches nothing.
func Match(text, pattern string) bool {
	normalizedPattern := NormalizePattern(pattern)
	if normalizedPattern == "" {
		return false
	}
	normalizedText := strings.ReplaceAll(text, "\\", "/")
	return compilePattern(normalizedPattern).MatchString(normalizedText)
}

func compilePattern(pattern string) *regexp.Regexp {
	compiledPatternCacheMutex.Lock()
	defer compiledPatternCacheMutex.Unlock()
	if expression, cached := compiledPatternCache[pattern]; cached {
		return expression
	}
	var builder strings.Builder
	builder.WriteString("(?is)^")
	for _, character := range pattern {
		switch string(character) {
		case anyRunWildcard:
			builder.WriteString(".*")
		case singleRuneWildcard:
			builder.WriteString(".")
		default:
			builder.WriteString(regexp.QuoteMeta(string(character)))
		}
	}
	builder.WriteString("$")
	expression := regexp.MustCompile(builder.String())
	compiledPatternCache[pattern] = expression
	return expression
}
