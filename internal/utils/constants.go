package utils

// ApplicationName is the command name used in messages and configuration paths.
const ApplicationName = "backupfiles"

// LoggerInitializationFailedMessageFormat reports a logger construction failure.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes fatal command failures.
const ApplicationExecutionFailedMessage = "backupfiles execution failed"

// Configuration file names searched in the working directory, in priority order.
var DefaultConfigurationFileNames = []string{
	"backup.config.yaml",
	"backup.config.yml",
	"backup.config.toml",
	"backup.config.json",
	"backup.config.xml",
}
