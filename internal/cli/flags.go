package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	switchFlagTypeName        = "switch"
	switchFlagTrueLiteral     = "true"
	switchFlagAcceptedValues  = "true, false, yes, no, on, off, 1, 0"
	invalidSwitchValueMessage = "invalid value %q for --%s; accepted values: %s"
)

var switchFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// switchFlagValue is a boolean flag that also accepts its value as the next argument,
// so "--copy no" and "--copy=no" behave the same.
type switchFlagValue struct {
	target   *bool
	flagName string
}

func (value *switchFlagValue) Set(input string) error {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = switchFlagTrueLiteral
	}
	parsed, known := switchFlagLiterals[normalized]
	if !known {
		return fmt.Errorf(invalidSwitchValueMessage, input, value.flagName, switchFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *switchFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *switchFlagValue) Type() string {
	return switchFlagTypeName
}

func registerSwitchFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&switchFlagValue{target: target, flagName: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = switchFlagTrueLiteral
	}
}

// normalizeSwitchArguments joins "--name value" into "--name=value" for switch flags when value
// is a recognized literal. Other arguments, such as subcommand names or paths, are left alone.
func normalizeSwitchArguments(command *cobra.Command, arguments []string) []string {
	switchNames := map[string]struct{}{}
	collectSwitchFlagNames(command, switchNames)
	if len(switchNames) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == "--" {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		if strings.HasPrefix(currentArgument, "--") && !strings.Contains(currentArgument, "=") && index+1 < len(arguments) {
			flagName := strings.TrimPrefix(currentArgument, "--")
			if _, isSwitch := switchNames[flagName]; isSwitch {
				literal := strings.ToLower(strings.TrimSpace(arguments[index+1]))
				if _, known := switchFlagLiterals[literal]; known {
					normalized = append(normalized, currentArgument+"="+arguments[index+1])
					index++
					continue
				}
			}
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func collectSwitchFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value.Type() == switchFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectSwitchFlagNames(child, target)
	}
}
