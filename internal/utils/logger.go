package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions controls how the application logger is built.
type LoggerOptions struct {
	Verbose     bool
	LogFilePath string
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
// Verbose lowers the level to debug. A log file path adds a second sink next to stderr.
func NewApplicationLogger(options LoggerOptions) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	if options.Verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if trimmedLogFilePath := strings.TrimSpace(options.LogFilePath); trimmedLogFilePath != "" {
		config.OutputPaths = append(config.OutputPaths, trimmedLogFilePath)
	}
	return config.Build()
}

// LoggerOrNop returns logger, or a no-op logger when logger is nil.
func LoggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
