package main

import (
	"fmt"

	"github.com/temirov/backupfiles/internal/cli"
	"github.com/temirov/backupfiles/internal/utils"
)

// main is the entry point for the backupfiles command.
func main() {
	loggerInstance, loggerInitializationError := utils.NewApplicationLogger(utils.LoggerOptions{})
	if loggerInitializationError != nil {
		panic(fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerInitializationError))
	}
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		loggerInstance.Fatal(utils.ApplicationExecutionFailedMessage + ": " + applicationExecutionError.Error())
	}
}
