// Package utils contains general helper functions shared by the backupfiles packages.
package utils

import (
	"path/filepath"
	"strings"
)

const pathSegmentSeparator = "/"

// DeduplicatePatterns removes duplicate and blank patterns while preserving order.
// The first occurrence of each unique trimmed pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		if _, exists := encounteredPatterns[trimmedPattern]; !exists {
			encounteredPatterns[trimmedPattern] = struct{}{}
			result = append(result, trimmedPattern)
		}
	}
	return result
}

// NormalizeSlashes converts every backslash in value to a forward slash.
func NormalizeSlashes(value string) string {
	return strings.ReplaceAll(value, "\\", pathSegmentSeparator)
}

// RelativePathOrSelf calculates the forward-slash relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, err := filepath.Abs(root)
	if err != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relErr := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relErr != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// IsWithinRoot reports whether a forward-slash relative path stays inside its root,
// meaning it is neither absolute nor climbs above the root with "..".
func IsWithinRoot(relativePath string) bool {
	normalizedPath := NormalizeSlashes(relativePath)
	if normalizedPath == "" || strings.HasPrefix(normalizedPath, pathSegmentSeparator) || filepath.IsAbs(relativePath) {
		return false
	}
	if len(normalizedPath) >= 2 && normalizedPath[1] == ':' {
		return false
	}
	cleanedPath := filepath.ToSlash(filepath.Clean(filepath.FromSlash(normalizedPath)))
	return cleanedPath != ".." && !strings.HasPrefix(cleanedPath, "../")
}
