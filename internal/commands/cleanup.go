package commands

import (
	"go.uber.org/zap"

	"github.com/temirov/backupfiles/internal/cleanup"
	"github.com/temirov/backupfiles/internal/config"
)

// CleanupOptions configures a standalone retention pass.
type CleanupOptions struct {
	Configuration config.Configuration
	// KeepLast overrides cleanup_keep_last when positive.
	KeepLast int
	Logger   *zap.Logger
}

// RunCleanup removes old backups of the configured project, keeping the most recent ones.
func RunCleanup(options CleanupOptions) (cleanup.Result, error) {
	keepLast := options.Configuration.CleanupKeepLast
	if options.KeepLast > 0 {
		keepLast = options.KeepLast
	}
	return cleanup.KeepLast(cleanup.Options{
		Directory: options.Configuration.ResultDirectory(),
		Pattern:   options.Configuration.ResultFilePattern(),
		KeepLast:  keepLast,
		Logger:    options.Logger,
	})
}
