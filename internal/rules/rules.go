package rules

import (
	"path"
	"sort"
	"strings"
)

// Entry is one raw extension or pattern value as declared in configuration.
type Entry struct {
	Value    string
	TreeOnly bool
	Enabled  bool
}

// Group is a named set of entries sharing a tree-only flag.
type Group struct {
	Name     string
	TreeOnly bool
	Entries  []Entry
}

// PatternRule is a normalized, ordered selection rule.
type PatternRule struct {
	Pattern          string
	TreeOnly         bool
	DeclarationIndex int
}

// RuleSet is an ordered list of pattern rules. Longer patterns take precedence.
type RuleSet struct {
	rules []PatternRule
}

// BuildRuleSet converts the declared items and groups into a sorted RuleSet. Items come first,
// then each group's entries in declaration order. Disabled and blank entries are dropped but
// still consume a declaration index. A non-wildcard value becomes a suffix match.
func BuildRuleSet(items []Entry, groups []Group) RuleSet {
	builtRules := []PatternRule{}
	declarationIndex := 0
	appendEntry := func(entry Entry, groupTreeOnly bool) {
		currentIndex := declarationIndex
		declarationIndex++
		trimmedValue := strings.TrimSpace(entry.Value)
		if !entry.Enabled || trimmedValue == "" {
			return
		}
		if !IsWildcard(trimmedValue) {
			trimmedValue = anyRunWildcard + trimmedValue
		}
		builtRules = append(builtRules, PatternRule{
			Pattern:          trimmedValue,
			TreeOnly:         entry.TreeOnly || groupTreeOnly,
			DeclarationIndex: currentIndex,
		})
	}
	for _, item := range items {
		appendEntry(item, false)
	}
	for _, group := range groups {
		for _, groupEntry := range group.Entries {
			appendEntry(groupEntry, group.TreeOnly)
		}
	}
	sort.SliceStable(builtRules, func(leftIndex, rightIndex int) bool {
		leftRule := builtRules[leftIndex]
		rightRule := builtRules[rightIndex]
		if len(leftRule.Pattern) != len(rightRule.Pattern) {
			return len(leftRule.Pattern) > len(rightRule.Pattern)
		}
		return leftRule.DeclarationIndex < rightRule.DeclarationIndex
	})
	return RuleSet{rules: builtRules}
}

// Rules returns a copy of the ordered rules.
func (ruleSet RuleSet) Rules() []PatternRule {
	return append([]PatternRule(nil), ruleSet.rules...)
}

// Empty reports whether the set contains no rules.
func (ruleSet RuleSet) Empty() bool {
	return len(ruleSet.rules) == 0
}

// Match returns the first rule matching the forward-slash relative path or its base name.
func (ruleSet RuleSet) Match(relativePath string) (PatternRule, bool) {
	normalizedPath := strings.ReplaceAll(relativePath, "\\", "/")
	baseName := path.Base(normalizedPath)
	for _, rule := range ruleSet.rules {
		if Match(normalizedPath, rule.Pattern) || Match(baseName, rule.Pattern) {
			return rule, true
		}
	}
	return PatternRule{}, false
}
