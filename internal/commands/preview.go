package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/backupfiles/internal/config"
	"github.com/temirov/backupfiles/internal/scanner"
	"github.com/temirov/backupfiles/internal/tree"
	"github.com/temirov/backupfiles/internal/types"
	"github.com/temirov/backupfiles/internal/utils"
)

const renderPreviewErrorFormat = "render tree: %w"

// PreviewOptions configures a tree preview.
type PreviewOptions struct {
	Configuration config.Configuration
	Output        io.Writer
	Now           func() time.Time
	Logger        *zap.Logger
}

// RunPreview scans the project exactly like a backup and writes the tree summary to Output
// without creating an archive or touching the configuration.
func RunPreview(options PreviewOptions) (types.ScanStats, error) {
	logger := utils.LoggerOrNop(options.Logger)
	scanOptions, cutoffError := options.Configuration.ScanOptions()
	if cutoffError != nil {
		logger.Warn(logMessageIncrementalDisabled, zap.String("created", options.Configuration.Created), zap.Error(cutoffError))
	}
	scanOptions.Now = options.Now
	scanOptions.Logger = logger
	selection, scanError := scanner.Scan(scanOptions)
	if scanError != nil {
		return types.ScanStats{}, fmt.Errorf(scanErrorFormat, scanOptions.RootDirectory, scanError)
	}
	rootNode := tree.Build(filepath.Base(selection.RootDirectory), selection.Files)
	if renderError := rootNode.Write(options.Output); renderError != nil {
		return selection.Stats, fmt.Errorf(renderPreviewErrorFormat, renderError)
	}
	return selection.Stats, nil
}
