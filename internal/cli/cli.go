// Package cli provides the command line interface.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/backupfiles/internal/commands"
	"github.com/temirov/backupfiles/internal/config"
	"github.com/temirov/backupfiles/internal/output"
	"github.com/temirov/backupfiles/internal/services/clipboard"
	"github.com/temirov/backupfiles/internal/tokenizer"
	"github.com/temirov/backupfiles/internal/update"
	"github.com/temirov/backupfiles/internal/utils"
)

const (
	verboseFlagName     = "verbose"
	logFileFlagName     = "log-file"
	waitFlagName        = "wait"
	versionFlagName     = "version"
	formatFlagName      = "format"
	tokensFlagName      = "tokens"
	modelFlagName       = "model"
	copyFlagName        = "copy"
	outputFlagName      = "output"
	clipboardFlagName   = "clipboard"
	templateFlagName    = "template"
	forceFlagName       = "force"
	keepFlagName        = "keep"
	clipboardRestoreDir = "clipboard_restore"

	versionTemplate      = "backupfiles version: %s\n"
	rootUse              = "backupfiles [path]"
	rootShortDescription = "pack project files into a text archive and restore them"
	rootLongDescription  = `backupfiles packs the files selected by a configuration into one readable text archive
that starts with a tree of the selected files, and restores such archives back into files.

Without arguments the configuration is discovered in the working directory (backup.config.yaml,
.yml, .toml, .json or .xml) or in the user configuration directory; a template is created when
none exists. A configuration path runs a backup; any other file is restored into a folder named
after it.`
	rootUsageExample = `  # Back up using the configuration in the working directory
  backupfiles

  # Back up with an explicit configuration
  backupfiles ./backup.config.yaml

  # Restore an archive next to itself
  backupfiles ./backup/MyProject_1.0.3_20240101120000.bak.txt.zip`

	backupUse              = "backup [config]"
	backupShortDescription = "write an archive of the selected files"
	backupLongDescription  = `Scan the project described by the configuration, write the archive, then apply zipping,
version bookkeeping and retention cleanup. Use --tokens to count tokens of packed content and --copy
to place the archive on the clipboard.`
	treeUse                 = "tree [config]"
	treeShortDescription    = "preview the tree of selected files"
	treeLongDescription     = `Scan the project exactly like a backup and print the tree summary without writing anything.`
	restoreUse              = "restore [archive]"
	restoreShortDescription = "recreate files from an archive"
	restoreLongDescription  = `Recreate the files packed in an archive or a zip file wrapping one. Files are written into a
folder next to the archive named after it, or into --output. Use --clipboard to restore archive text
from the clipboard.`
	initUse              = "init [path]"
	initShortDescription = "create an example configuration"
	initLongDescription  = `Write an example configuration. The template format follows --template or the file extension
and defaults to YAML. The example is disabled until is_example is set to 0.`
	cleanupUse              = "cleanup [config]"
	cleanupShortDescription = "remove old backups"
	cleanupLongDescription  = `Remove old backups of the configured project from the result directory, keeping the most recent
ones. --keep overrides cleanup_keep_last.`

	verboseFlagDescription   = "enable debug logging"
	logFileFlagDescription   = "also write logs to this file"
	waitFlagDescription      = "wait for Enter before exiting when attached to a terminal"
	versionFlagDescription   = "display application version"
	formatFlagDescription    = "report format: raw, json or xml"
	tokensFlagDescription    = "count tokens of packed content"
	modelFlagDescription     = "tokenizer model used for token counting"
	copyFlagDescription      = "copy the archive text to the clipboard"
	outputFlagDescription    = "restore destination directory"
	clipboardFlagDescription = "restore archive text from the clipboard"
	templateFlagDescription  = "template format: yaml or xml"
	forceFlagDescription     = "overwrite an existing configuration"
	keepFlagDescription      = "number of backups to keep"

	templateCreatedMessageFormat = "Configuration file is missing. A template has been created at %s. Set is_example to 0 before use.\n"
	configurationCreatedFormat   = "Configuration template written to %s. Set is_example to 0 before use.\n"
	waitPromptMessage            = "Press Enter to exit..."

	configurationMissingErrorFormat = "%w: %s"
	workingDirectoryErrorFormat     = "unable to determine working directory: %w"
	readClipboardErrorFormat        = "read clipboard: %w"
	restoreArgumentMessage          = "an archive path or --clipboard is required"
	invalidKeepValueMessageFormat   = "--keep must not be negative, got %d"

	logMessageUsingConfiguration = "Using configuration"
)

var errVersionRequested = errors.New("version requested")

type clipboardService interface {
	clipboard.Copier
	clipboard.Paster
}

type dependencies struct {
	clipboard        clipboardService
	updateChecker    update.Checker
	now              func() time.Time
	workingDirectory string
	isTerminal       func() bool
}

type application struct {
	dependencies
	verbose      bool
	logFilePath  string
	waitForInput bool
	showVersion  bool
	logger       *zap.Logger
}

func defaultDependencies() dependencies {
	return dependencies{
		clipboard: clipboard.NewService(),
		now:       time.Now,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

// Execute runs the backupfiles application.
func Execute() error {
	app := &application{dependencies: defaultDependencies()}
	return app.run(context.Background(), os.Args[1:], os.Stdin, os.Stdout)
}

func (app *application) run(ctx context.Context, arguments []string, input io.Reader, outputWriter io.Writer) error {
	rootCommand := app.createRootCommand()
	rootCommand.SetIn(input)
	rootCommand.SetOut(outputWriter)
	rootCommand.SetErr(outputWriter)
	rootCommand.SetArgs(normalizeSwitchArguments(rootCommand, arguments))
	executionError := rootCommand.ExecuteContext(ctx)
	app.syncLogger()
	if errors.Is(executionError, errVersionRequested) {
		executionError = nil
	}
	if app.waitForInput && app.isTerminal != nil && app.isTerminal() {
		fmt.Fprint(outputWriter, waitPromptMessage)
		_, _ = bufio.NewReader(input).ReadString('\n')
	}
	return executionError
}

// syncLogger flushes the logger unless it writes to a terminal, where Sync reports spurious errors.
func (app *application) syncLogger() {
	if app.logger == nil || term.IsTerminal(int(os.Stderr.Fd())) {
		return
	}
	_ = app.logger.Sync()
}

// createRootCommand builds the root Cobra command.
func (app *application) createRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				return app.runDefault(command)
			}
			if config.IsConfigurationPath(arguments[0]) {
				return app.runBackup(command, arguments[0], backupFlags{format: output.FormatRaw})
			}
			return app.runRestore(command, restoreFlags{format: output.FormatRaw}, arguments[0])
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if app.showVersion {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return errVersionRequested
			}
			logger, loggerError := utils.NewApplicationLogger(utils.LoggerOptions{Verbose: app.verbose, LogFilePath: app.logFilePath})
			if loggerError != nil {
				return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
			}
			app.logger = logger
			return nil
		},
	}
	persistentFlags := rootCommand.PersistentFlags()
	registerSwitchFlag(persistentFlags, &app.verbose, verboseFlagName, false, verboseFlagDescription)
	persistentFlags.StringVar(&app.logFilePath, logFileFlagName, "", logFileFlagDescription)
	registerSwitchFlag(persistentFlags, &app.waitForInput, waitFlagName, false, waitFlagDescription)
	registerSwitchFlag(persistentFlags, &app.showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		app.createBackupCommand(),
		app.createTreeCommand(),
		app.createRestoreCommand(),
		app.createInitCommand(),
		app.createCleanupCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

type backupFlags struct {
	format     string
	tokens     bool
	model      string
	copyResult bool
}

// createBackupCommand returns the backup subcommand.
func (app *application) createBackupCommand() *cobra.Command {
	var flags backupFlags
	backupCommand := &cobra.Command{
		Use:   backupUse,
		Short: backupShortDescription,
		Long:  backupLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runBackup(command, firstArgument(arguments), flags)
		},
	}
	backupCommand.Flags().StringVar(&flags.format, formatFlagName, output.FormatRaw, formatFlagDescription)
	registerSwitchFlag(backupCommand.Flags(), &flags.tokens, tokensFlagName, false, tokensFlagDescription)
	backupCommand.Flags().StringVar(&flags.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	registerSwitchFlag(backupCommand.Flags(), &flags.copyResult, copyFlagName, false, copyFlagDescription)
	return backupCommand
}

// createTreeCommand returns the tree subcommand.
func (app *application) createTreeCommand() *cobra.Command {
	var format string
	treeCommand := &cobra.Command{
		Use:   treeUse,
		Short: treeShortDescription,
		Long:  treeLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runPreview(command, firstArgument(arguments), format)
		},
	}
	treeCommand.Flags().StringVar(&format, formatFlagName, output.FormatRaw, formatFlagDescription)
	return treeCommand
}

type restoreFlags struct {
	format        string
	destination   string
	fromClipboard bool
}

// createRestoreCommand returns the restore subcommand.
func (app *application) createRestoreCommand() *cobra.Command {
	var flags restoreFlags
	restoreCommand := &cobra.Command{
		Use:   restoreUse,
		Short: restoreShortDescription,
		Long:  restoreLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runRestore(command, flags, firstArgument(arguments))
		},
	}
	restoreCommand.Flags().StringVar(&flags.format, formatFlagName, output.FormatRaw, formatFlagDescription)
	restoreCommand.Flags().StringVar(&flags.destination, outputFlagName, "", outputFlagDescription)
	registerSwitchFlag(restoreCommand.Flags(), &flags.fromClipboard, clipboardFlagName, false, clipboardFlagDescription)
	return restoreCommand
}

// createInitCommand returns the init subcommand.
func (app *application) createInitCommand() *cobra.Command {
	var templateFormat string
	var force bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			createdPath, initError := config.InitializeConfiguration(config.InitOptions{
				Path:             firstArgument(arguments),
				WorkingDirectory: app.workingDirectory,
				Format:           config.TemplateFormat(templateFormat),
				Force:            force,
				Now:              app.now,
			})
			if initError != nil {
				return initError
			}
			fmt.Fprintf(command.OutOrStdout(), configurationCreatedFormat, createdPath)
			return nil
		},
	}
	initCommand.Flags().StringVar(&templateFormat, templateFlagName, "", templateFlagDescription)
	registerSwitchFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// createCleanupCommand returns the cleanup subcommand.
func (app *application) createCleanupCommand() *cobra.Command {
	var format string
	var keepLast int
	cleanupCommand := &cobra.Command{
		Use:   cleanupUse,
		Short: cleanupShortDescription,
		Long:  cleanupLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			if keepLast < 0 {
				return fmt.Errorf(invalidKeepValueMessageFormat, keepLast)
			}
			normalizedFormat, formatError := normalizeFormat(format)
			if formatError != nil {
				return formatError
			}
			configuration, loadError := app.loadConfiguration(firstArgument(arguments))
			if loadError != nil {
				return loadError
			}
			cleanupResult, cleanupError := commands.RunCleanup(commands.CleanupOptions{
				Configuration: configuration,
				KeepLast:      keepLast,
				Logger:        app.logger,
			})
			if cleanupError != nil {
				return cleanupError
			}
			return output.WriteCleanupReport(command.OutOrStdout(), normalizedFormat, output.CleanupReport{
				Kept:    cleanupResult.Kept,
				Removed: cleanupResult.Removed,
			})
		},
	}
	cleanupCommand.Flags().StringVar(&format, formatFlagName, output.FormatRaw, formatFlagDescription)
	cleanupCommand.Flags().IntVar(&keepLast, keepFlagName, 0, keepFlagDescription)
	return cleanupCommand
}

// runDefault backs up with the discovered configuration, or creates a template when none exists.
func (app *application) runDefault(command *cobra.Command) error {
	resolution, resolveError := config.ResolveConfigurationPath(config.LoadOptions{WorkingDirectory: app.workingDirectory})
	if resolveError != nil {
		return resolveError
	}
	if !resolution.Exists {
		createdPath, initError := config.InitializeConfiguration(config.InitOptions{Path: resolution.Path, Now: app.now})
		if initError != nil {
			return initError
		}
		fmt.Fprintf(command.OutOrStdout(), templateCreatedMessageFormat, createdPath)
		return nil
	}
	return app.runBackup(command, resolution.Path, backupFlags{format: output.FormatRaw})
}

func (app *application) runBackup(command *cobra.Command, configurationPath string, flags backupFlags) error {
	normalizedFormat, formatError := normalizeFormat(flags.format)
	if formatError != nil {
		return formatError
	}
	configuration, loadError := app.loadConfiguration(configurationPath)
	if loadError != nil {
		return loadError
	}

	options := commands.BackupOptions{
		Configuration:  configuration,
		UpdateChecker:  app.updateChecker,
		CurrentVersion: utils.GetApplicationVersion(),
		Now:            app.now,
		Logger:         app.logger,
	}
	var tokenModel string
	if flags.tokens {
		counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: flags.model})
		if counterError != nil {
			return counterError
		}
		options.TokenCounter = counter
		tokenModel = resolvedModel
	}
	if flags.copyResult {
		options.Clipboard = app.clipboard
	}

	backupResult, backupError := commands.RunBackup(command.Context(), options)
	if backupError != nil {
		return backupError
	}
	report := output.BackupReport{
		Archive: backupResult.ArchivePath,
		Zip:     backupResult.ZipPath,
		Version: backupResult.NewVersion,
		Model:   tokenModel,
		Removed: backupResult.Removed,
		Stats:   backupResult.Stats,
	}
	if backupResult.Update != nil && backupResult.Update.Available {
		report.UpdateAvailable = backupResult.Update.RemoteVersion
	}
	return output.WriteBackupReport(command.OutOrStdout(), normalizedFormat, report)
}

func (app *application) runPreview(command *cobra.Command, configurationPath string, format string) error {
	normalizedFormat, formatError := normalizeFormat(format)
	if formatError != nil {
		return formatError
	}
	configuration, loadError := app.loadConfiguration(configurationPath)
	if loadError != nil {
		return loadError
	}
	var treeBuffer strings.Builder
	stats, previewError := commands.RunPreview(commands.PreviewOptions{
		Configuration: configuration,
		Output:        &treeBuffer,
		Now:           app.now,
		Logger:        app.logger,
	})
	if previewError != nil {
		return previewError
	}
	return output.WritePreviewReport(command.OutOrStdout(), normalizedFormat, output.PreviewReport{
		Tree:  treeBuffer.String(),
		Stats: stats,
	})
}

func (app *application) runRestore(command *cobra.Command, flags restoreFlags, sourcePath string) error {
	normalizedFormat, formatError := normalizeFormat(flags.format)
	if formatError != nil {
		return formatError
	}
	options := commands.RestoreOptions{
		SourcePath:  sourcePath,
		Destination: flags.destination,
		Logger:      app.logger,
	}
	if flags.fromClipboard {
		archiveText, pasteError := app.clipboard.Paste()
		if pasteError != nil {
			return fmt.Errorf(readClipboardErrorFormat, pasteError)
		}
		options.Source = strings.NewReader(archiveText)
		if options.Destination == "" {
			workingDirectory, workingDirectoryError := app.resolveWorkingDirectory()
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			options.Destination = filepath.Join(workingDirectory, clipboardRestoreDir)
		}
	} else if sourcePath == "" {
		return errors.New(restoreArgumentMessage)
	}

	summary, restoreError := commands.RunRestore(options)
	if restoreError != nil {
		return restoreError
	}
	return output.WriteRestoreReport(command.OutOrStdout(), normalizedFormat, output.RestoreReport{
		Destination: summary.Destination,
		Restored:    summary.Result.RestoredPaths,
		Failures:    summary.Result.Failures,
	})
}

// loadConfiguration resolves and loads the configuration. An empty path uses discovery.
func (app *application) loadConfiguration(configurationPath string) (config.Configuration, error) {
	resolution, resolveError := config.ResolveConfigurationPath(config.LoadOptions{
		WorkingDirectory: app.workingDirectory,
		ExplicitFilePath: configurationPath,
	})
	if resolveError != nil {
		return config.Configuration{}, resolveError
	}
	if !resolution.Exists {
		return config.Configuration{}, fmt.Errorf(configurationMissingErrorFormat, config.ErrConfigurationNotFound, resolution.Path)
	}
	utils.LoggerOrNop(app.logger).Debug(logMessageUsingConfiguration, zap.String("path", resolution.Path))
	return config.Load(resolution.Path)
}

func (app *application) resolveWorkingDirectory() (string, error) {
	if app.workingDirectory != "" {
		return app.workingDirectory, nil
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	return workingDirectory, nil
}

func normalizeFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if validationError := output.ValidateFormat(normalized); validationError != nil {
		return "", validationError
	}
	return normalized, nil
}

func firstArgument(arguments []string) string {
	if len(arguments) == 0 {
		return ""
	}
	return arguments[0]
}
