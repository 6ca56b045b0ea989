package rules_test

import (
	"testing"

	"github.com/temirov/backupfiles/internal/rules"
)

func enabled(value string) rules.Entry {
	return rules.Entry{Value: value, Enabled: true}
}

func TestBuildRuleSetOrdering(testingInstance *testing.T) {
	ruleSet := rules.BuildRuleSet(
		[]rules.Entry{enabled(".cs"), {Value: ".txt", Enabled: false}, enabled("  "), enabled("*.Designer.cs")},
		[]rules.Group{{Name: "docs", TreeOnly: true, Entries: []rules.Entry{enabled(".md"), enabled(".xx")}}},
	)
	builtRules := ruleSet.Rules()
	expected := []rules.PatternRule{
		{Pattern: "*.Designer.cs", TreeOnly: false, DeclarationIndex: 3},
		{Pattern: "*.cs", TreeOnly: false, DeclarationIndex: 0},
		{Pattern: "*.md", TreeOnly: true, DeclarationIndex: 4},
		{Pattern: "*.xx", TreeOnly: true, DeclarationIndex: 5},
	}
	if len(builtRules) != len(expected) {
		testingInstance.Fatalf("expected %d rules, got %+v", len(expected), builtRules)
	}
	for index := range expected {
		if builtRules[index] != expected[index] {
			testingInstance.Fatalf("rule %d: expected %+v, got %+v", index, expected[index], builtRules[index])
		}
	}
}

func TestRuleSetMatchPrecedence(testingInstance *testing.T) {
	ruleSet := rules.BuildRuleSet(
		[]rules.Entry{enabled(".js"), {Value: ".min.js", Enabled: true, TreeOnly: true}},
		nil,
	)
	testCases := []struct {
		testName         string
		relativePath     string
		expectedMatch    bool
		expectedTreeOnly bool
	}{
		{testName: "longer pattern wins", relativePath: "dist/app.min.js", expectedMatch: true, expectedTreeOnly: true},
		{testName: "general pattern", relativePath: "src/app.js", expectedMatch: true, expectedTreeOnly: false},
		{testName: "no match", relativePath: "src/app.ts", expectedMatch: false},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(subTest *testing.T) {
			rule, matched := ruleSet.Match(testCase.relativePath)
			if matched != testCase.expectedMatch {
				subTest.Fatalf("expected match %v, got %v", testCase.expectedMatch, matched)
			}
			if matched && rule.TreeOnly != testCase.expectedTreeOnly {
				subTest.Fatalf("expected tree only %v, got %v", testCase.expectedTreeOnly, rule.TreeOnly)
			}
		})
	}
}

func TestRuleSetTieKeepsDeclarationOrder(testingInstance *testing.T) {
	ruleSet := rules.BuildRuleSet(
		[]rules.Entry{enabled("*a.txt"), {Value: "*b.txt", Enabled: true, TreeOnly: true}},
		nil,
	)
	builtRules := ruleSet.Rules()
	if builtRules[0].Pattern != "*a.txt" || builtRules[1].Pattern != "*b.txt" {
		testingInstance.Fatalf("unexpected order %+v", builtRules)
	}
}

func TestRuleSetMatchesBaseName(testingInstance *testing.T) {
	ruleSet := rules.BuildRuleSet([]rules.Entry{enabled("Makefile")}, nil)
	if _, matched := ruleSet.Match("build/Makefile"); !matched {
		testingInstance.Fatalf("expected base name match")
	}
	wildcardSet := rules.BuildRuleSet([]rules.Entry{enabled("Docker?ile")}, nil)
	if _, matched := wildcardSet.Match("deploy/Dockerfile"); !matched {
		testingInstance.Fatalf("expected wildcard base name match")
	}
}

func TestEmptyRuleSetMatchesNothing(testingInstance *testing.T) {
	ruleSet := rules.BuildRuleSet(nil, nil)
	if !ruleSet.Empty() {
		testingInstance.Fatalf("expected empty rule set")
	}
	if _, matched := ruleSet.Match("a.txt"); matched {
		testingInstance.Fatalf("expected no match")
	}
}
