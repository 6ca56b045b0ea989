// Package commands orchestrates the backup, preview, restore and cleanup flows.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/backupfiles/internal/archive"
	"github.com/temirov/backupfiles/internal/cleanup"
	"github.com/temirov/backupfiles/internal/config"
	"github.com/temirov/backupfiles/internal/scanner"
	"github.com/temirov/backupfiles/internal/services/clipboard"
	"github.com/temirov/backupfiles/internal/tokenizer"
	"github.com/temirov/backupfiles/internal/types"
	"github.com/temirov/backupfiles/internal/update"
	"github.com/temirov/backupfiles/internal/utils"
)

const (
	scanErrorFormat          = "scan %s: %w"
	zipArchiveErrorFormat    = "zip archive %s: %w"
	removeUnzippedFormat     = "remove unzipped archive %s: %w"
	readArchiveForCopyFormat = "read archive %s for clipboard: %w"

	logMessageIncrementalDisabled = "Incremental mode disabled: created timestamp is not valid"
	logMessageVersionNotUpdated   = "Unable to update configuration version"
	logMessageCleanupFailed       = "Retention cleanup failed"
	logMessageUpdateCheckFailed   = "Update check failed"
	logMessageUpdateAvailable     = "Update available"
	logMessageClipboardFailed     = "Unable to copy archive to clipboard"
	logMessageZipped              = "Archive zipped"
	logMessageBackupComplete      = "Backup completed"
)

// BackupOptions configures a backup run.
type BackupOptions struct {
	Configuration config.Configuration
	// TokenCounter, when set, counts tokens of packed content.
	TokenCounter tokenizer.Counter
	// Clipboard receives the archive text when set.
	Clipboard      clipboard.Copier
	UpdateChecker  update.Checker
	CurrentVersion string
	Now            func() time.Time
	Logger         *zap.Logger
}

// BackupResult reports what a backup run produced.
type BackupResult struct {
	// ArchivePath is the text archive; empty when it was removed after zipping.
	ArchivePath string
	ZipPath     string
	NewVersion  string
	Stats       types.ScanStats
	Removed     []string
	// Update is set when an update check completed.
	Update *update.Result
}

// RunBackup validates the configuration, scans the project, writes the archive and then applies
// zipping, version bookkeeping and retention cleanup. The update check runs alongside the backup
// and never affects its outcome.
func RunBackup(ctx context.Context, options BackupOptions) (BackupResult, error) {
	configuration := options.Configuration
	logger := utils.LoggerOrNop(options.Logger)
	if validationError := configuration.Validate(); validationError != nil {
		return BackupResult{}, validationError
	}
	nowFunction := options.Now
	if nowFunction == nil {
		nowFunction = time.Now
	}
	backupTime := nowFunction()

	var updateResult *update.Result
	updateGroup, updateContext := errgroup.WithContext(ctx)
	schedule := update.Schedule{
		IntervalMinutes: configuration.UpdateCheckMinutes,
		LastBackup:      configuration.Created,
		URL:             configuration.UpdateURL,
	}
	if update.ShouldCheck(schedule, backupTime) {
		updateGroup.Go(func() error {
			timeout := time.Duration(configuration.UpdateCheckTimeoutSeconds) * time.Second
			checkResult, checkError := options.UpdateChecker.Check(updateContext, configuration.UpdateURL, timeout, options.CurrentVersion)
			if checkError != nil {
				logger.Debug(logMessageUpdateCheckFailed, zap.Error(checkError))
				return nil
			}
			updateResult = &checkResult
			return nil
		})
	}

	result, backupError := writeBackup(configuration, options, backupTime, logger)
	_ = updateGroup.Wait()
	if updateResult != nil {
		result.Update = updateResult
		if updateResult.Available {
			logger.Info(logMessageUpdateAvailable,
				zap.String("current", updateResult.CurrentVersion),
				zap.String("remote", updateResult.RemoteVersion),
			)
		}
	}
	return result, backupError
}

func writeBackup(configuration config.Configuration, options BackupOptions, backupTime time.Time, logger *zap.Logger) (BackupResult, error) {
	scanOptions, cutoffError := configuration.ScanOptions()
	if cutoffError != nil {
		logger.Warn(logMessageIncrementalDisabled, zap.String("created", configuration.Created), zap.Error(cutoffError))
	}
	scanOptions.Now = func() time.Time { return backupTime }
	scanOptions.Logger = logger
	selection, scanError := scanner.Scan(scanOptions)
	if scanError != nil {
		return BackupResult{}, fmt.Errorf(scanErrorFormat, scanOptions.RootDirectory, scanError)
	}

	result := BackupResult{Stats: selection.Stats}
	archivePath := configuration.ResultFilePath(backupTime)
	writerOptions := archive.WriterOptions{
		RootName:     filepath.Base(selection.RootDirectory),
		TokenCounter: options.TokenCounter,
		Logger:       logger,
	}
	if writeError := archive.WriteArchiveFile(archivePath, selection.Files, writerOptions, &result.Stats); writeError != nil {
		return result, writeError
	}
	result.ArchivePath = archivePath

	if options.Clipboard != nil {
		if copyError := copyArchive(options.Clipboard, archivePath); copyError != nil {
			logger.Warn(logMessageClipboardFailed, zap.Error(copyError))
		}
	}

	if configuration.EnableZip {
		zipPath := archivePath + archive.ZipExtension
		if zipError := archive.ZipFile(archivePath, zipPath); zipError != nil {
			return result, fmt.Errorf(zipArchiveErrorFormat, archivePath, zipError)
		}
		result.ZipPath = zipPath
		logger.Info(logMessageZipped, zap.String("path", zipPath))
		if configuration.DeleteUnzipped {
			if removeError := os.Remove(archivePath); removeError != nil {
				return result, fmt.Errorf(removeUnzippedFormat, archivePath, removeError)
			}
			result.ArchivePath = ""
		}
	}

	newVersion, versionError := config.RecordBackup(configuration, backupTime)
	if versionError != nil {
		logger.Warn(logMessageVersionNotUpdated, zap.String("config", configuration.FilePath), zap.Error(versionError))
	} else {
		result.NewVersion = newVersion
	}

	cleanupResult, cleanupError := cleanup.KeepLast(cleanup.Options{
		Directory: configuration.ResultDirectory(),
		Pattern:   configuration.ResultFilePattern(),
		KeepLast:  configuration.CleanupKeepLast,
		Logger:    logger,
	})
	if cleanupError != nil {
		logger.Warn(logMessageCleanupFailed, zap.Error(cleanupError))
	}
	result.Removed = cleanupResult.Removed

	logger.Info(logMessageBackupComplete,
		zap.String("archive", firstNonEmpty(result.ZipPath, result.ArchivePath)),
		zap.String("version", result.NewVersion),
	)
	return result, nil
}

func copyArchive(copier clipboard.Copier, archivePath string) error {
	content, readError := os.ReadFile(archivePath)
	if readError != nil {
		return fmt.Errorf(readArchiveForCopyFormat, archivePath, readError)
	}
	return copier.Copy(string(content))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// IsConfigurationError reports whether err stems from an unusable configuration rather than a
// failed backup.
func IsConfigurationError(err error) bool {
	return errors.Is(err, config.ErrExampleConfiguration) ||
		errors.Is(err, config.ErrIncompleteConfiguration) ||
		errors.Is(err, config.ErrConfigurationNotFound)
}
