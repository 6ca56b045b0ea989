package rules_test

import (
	"testing"

	"github.com/temirov/backupfiles/internal/rules"
)

func TestMatch(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		text     string
		pattern  string
		expected bool
	}{
		{testName: "suffix", text: "src/app.js", pattern: "*.js", expected: true},
		{testName: "star crosses separators", text: "a/b/c/d.txt", pattern: "a*d.txt", expected: true},
		{testName: "question mark single", text: "file1.txt", pattern: "file?.txt", expected: true},
		{testName: "question mark needs one", text: "file.txt", pattern: "file?.txt", expected: false},
		{testName: "case insensitive", text: "README.MD", pattern: "*.md", expected: true},
		{testName: "backslash pattern", text: "bin/debug/x.dll", pattern: `bin\*`, expected: true},
		{testName: "backslash text", text: `bin\debug`, pattern: "bin/*", expected: true},
		{testName: "leading dot slash stripped", text: "obj/a", pattern: "./obj/*", expected: true},
		{testName: "leading slash stripped", text: "obj/a", pattern: "/obj/*", expected: true},
		{testName: "regex metacharacters literal", text: "a+b(1).txt", pattern: "a+b(1).txt", expected: true},
		{testName: "dot is literal", text: "axtxt", pattern: "a.txt", expected: false},
		{testName: "anchored", text: "xsrc/app.js", pattern: "src/*", expected: false},
		{testName: "empty pattern matches nothing", text: "", pattern: "", expected: false},
		{testName: "blank pattern matches nothing", text: "a.txt", pattern: "  ", expected: false},
		{testName: "pattern reduced to nothing", text: "", pattern: "./", expected: false},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(subTest *testing.T) {
			if result := rules.Match(testCase.text, testCase.pattern); result != testCase.expected {
				subTest.Fatalf("Match(%q, %q) expected %v, got %v", testCase.text, testCase.pattern, testCase.expected, result)
			}
		})
	}
}

func TestIsWildcard(testingInstance *testing.T) {
	if rules.IsWildcard(".cs") {
		testingInstance.Fatalf("expected plain value")
	}
	if !rules.IsWildcard("*.cs") || !rules.IsWildcard("a?c") {
		testingInstance.Fatalf("expected wildcard values")
	}
}
