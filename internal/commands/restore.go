package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/backupfiles/internal/archive"
	"github.com/temirov/backupfiles/internal/utils"
)

const (
	restoreDirectoryPermissions = 0o755
	restoreDirectorySuffix      = "_restored"

	openBackupErrorFormat       = "open backup %s: %w"
	createDestinationFormat     = "create restore destination %s: %w"
	restoreBackupErrorFormat    = "restore %s: %w"
	restoreSourceMissingMessage = "either a source path or a source reader is required"

	logMessageRestoring = "Restoring backup"
	logMessageRestored  = "Restore completed"
)

// ErrRestoreSource is returned when a restore has nothing to read from.
var ErrRestoreSource = errors.New(restoreSourceMissingMessage)

// RestoreOptions configures a restore.
type RestoreOptions struct {
	// SourcePath is an archive or a zip file wrapping one.
	SourcePath string
	// Source is read instead of SourcePath when set.
	Source io.Reader
	// Destination defaults to a folder next to SourcePath named after it without its last extension.
	Destination string
	// Filesystem receives restored files; defaults to the OS filesystem.
	Filesystem afero.Fs
	Logger     *zap.Logger
}

// RestoreSummary reports the destination and the restored files.
type RestoreSummary struct {
	Destination string
	Result      archive.RestoreResult
}

// RestoreDestination returns the sibling folder a backup at sourcePath restores into: the path
// without its last extension. When that name is taken by a file, as with "X.bak.txt" kept next to
// "X.bak.txt.zip", further extensions are dropped until the name is free or names a directory.
func RestoreDestination(sourcePath string) string {
	return restoreDestination(afero.NewOsFs(), sourcePath)
}

func restoreDestination(filesystem afero.Fs, sourcePath string) string {
	destination := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	for {
		info, statError := filesystem.Stat(destination)
		if statError != nil || info.IsDir() {
			return destination
		}
		extension := filepath.Ext(destination)
		if extension == "" {
			return destination + restoreDirectorySuffix
		}
		destination = strings.TrimSuffix(destination, extension)
	}
}

// RunRestore reconstructs the files packed in an archive.
func RunRestore(options RestoreOptions) (RestoreSummary, error) {
	logger := utils.LoggerOrNop(options.Logger)
	source := options.Source
	sourceLabel := options.SourcePath
	if source == nil {
		if options.SourcePath == "" {
			return RestoreSummary{}, ErrRestoreSource
		}
		openedSource, closeSource, openError := openBackup(options.SourcePath)
		if openError != nil {
			return RestoreSummary{}, openError
		}
		defer closeSource()
		source = openedSource
	}

	filesystem := options.Filesystem
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	destination := options.Destination
	if destination == "" {
		if options.SourcePath == "" {
			return RestoreSummary{}, ErrRestoreSource
		}
		destination = restoreDestination(filesystem, options.SourcePath)
	}
	if mkdirError := filesystem.MkdirAll(destination, restoreDirectoryPermissions); mkdirError != nil {
		return RestoreSummary{}, fmt.Errorf(createDestinationFormat, destination, mkdirError)
	}

	logger.Info(logMessageRestoring, zap.String("source", sourceLabel), zap.String("destination", destination))
	restoreResult, restoreError := archive.Restore(source, afero.NewBasePathFs(filesystem, destination), archive.ReaderOptions{Logger: logger})
	summary := RestoreSummary{Destination: destination, Result: restoreResult}
	if restoreError != nil {
		return summary, fmt.Errorf(restoreBackupErrorFormat, sourceLabel, restoreError)
	}
	logger.Info(logMessageRestored,
		zap.Int("files", len(restoreResult.RestoredPaths)),
		zap.Int("failures", restoreResult.Failures),
	)
	return summary, nil
}

func openBackup(sourcePath string) (io.Reader, func(), error) {
	if archive.IsZipPath(sourcePath) {
		entryReader, _, entryError := archive.OpenFirstEntry(sourcePath)
		if entryError != nil {
			return nil, nil, fmt.Errorf(openBackupErrorFormat, sourcePath, entryError)
		}
		return entryReader, func() { _ = entryReader.Close() }, nil
	}
	backupFile, openError := os.Open(sourcePath)
	if openError != nil {
		return nil, nil, fmt.Errorf(openBackupErrorFormat, sourcePath, openError)
	}
	return backupFile, func() { _ = backupFile.Close() }, nil
}
