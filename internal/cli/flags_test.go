package cli

import (
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func TestSwitchFlagParsesValues(testingInstance *testing.T) {
	testCases := []struct {
		name        string
		arguments   []string
		expected    bool
		expectError bool
	}{
		{name: "defaults_to_false", arguments: []string{}, expected: false},
		{name: "sets_true_without_value", arguments: []string{"--copy"}, expected: true},
		{name: "sets_false_with_equals", arguments: []string{"--copy=false"}, expected: false},
		{name: "accepts_on", arguments: []string{"--copy=on"}, expected: true},
		{name: "rejects_invalid_text", arguments: []string{"--copy=maybe"}, expectError: true},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			var flagValue bool
			flagSet := pflag.NewFlagSet("switch-flag", pflag.ContinueOnError)
			flagSet.SetOutput(io.Discard)
			registerSwitchFlag(flagSet, &flagValue, "copy", false, "copy")
			parseError := flagSet.Parse(testCase.arguments)
			if testCase.expectError {
				if parseError == nil {
					subTest.Fatalf("expected error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseError != nil {
				subTest.Fatalf("unexpected parse error: %v", parseError)
			}
			if flagValue != testCase.expected {
				subTest.Fatalf("expected value %t, got %t", testCase.expected, flagValue)
			}
		})
	}
}

func TestNormalizeSwitchArguments(testingInstance *testing.T) {
	var copyValue bool
	rootCommand := &cobra.Command{Use: "root"}
	backupCommand := &cobra.Command{Use: "backup"}
	registerSwitchFlag(backupCommand.Flags(), &copyValue, "copy", false, "copy")
	rootCommand.AddCommand(backupCommand)

	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{name: "literal value is joined", arguments: []string{"backup", "--copy", "no"}, expected: []string{"backup", "--copy=no"}},
		{name: "path is kept positional", arguments: []string{"backup", "--copy", "project.yaml"}, expected: []string{"backup", "--copy", "project.yaml"}},
		{name: "terminator stops processing", arguments: []string{"--", "--copy", "yes"}, expected: []string{"--", "--copy", "yes"}},
		{name: "non switch flag untouched", arguments: []string{"--model", "yes"}, expected: []string{"--model", "yes"}},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			actual := normalizeSwitchArguments(rootCommand, testCase.arguments)
			if len(actual) != len(testCase.expected) {
				subTest.Fatalf("expected %v, got %v", testCase.expected, actual)
			}
			for index := range actual {
				if actual[index] != testCase.expected[index] {
					subTest.Fatalf("expected %v, got %v", testCase.expected, actual)
				}
			}
		})
	}
}
