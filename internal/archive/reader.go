package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/backupfiles/internal/utils"
)

const (
	restoreReadErrorFormat      = "read archive: %w"
	restoreDirectoryPermissions = 0o755
	restoreFilePermissions      = 0o644
	logMessageCreatedFile       = "Created file"
	logMessageRestoreFailure    = "Unable to restore file"
	logMessageEscapingPath      = "Refusing path outside the destination"
	logMessageEmptyPath         = "Discarding block without a path"
)

// ReaderOptions configures restore.
type ReaderOptions struct {
	Logger *zap.Logger
}

// RestoreResult summarizes a restore pass.
type RestoreResult struct {
	RestoredPaths []string
	Failures      int
}

type parserState int

const (
	stateOutside parserState = iota
	stateInsideFile
)

type restoreParser struct {
	destination   afero.Fs
	logger        *zap.Logger
	state         parserState
	currentPath   string
	bufferedLines []string
	result        RestoreResult
}

// Restore parses an archive from source and writes every terminated file block into
// destination. A line equal to DelimiterLine is dropped in any state, so packed content
// containing that exact line does not survive. A trailing block without an end marker is
// discarded. Only a failure to read source is returned as an error; per-file write failures
// are logged and counted.
func Restore(source io.Reader, destination afero.Fs, options ReaderOptions) (RestoreResult, error) {
	parser := &restoreParser{
		destination: destination,
		logger:      utils.LoggerOrNop(options.Logger),
		state:       stateOutside,
		result:      RestoreResult{RestoredPaths: []string{}},
	}
	bufferedReader := bufio.NewReader(source)
	for {
		line, readError := bufferedReader.ReadString('\n')
		if readError != nil && !errors.Is(readError, io.EOF) {
			return parser.result, fmt.Errorf(restoreReadErrorFormat, readError)
		}
		if line != "" {
			parser.consume(strings.TrimSuffix(line, "\n"))
		}
		if readError != nil {
			return parser.result, nil
		}
	}
}

func (parser *restoreParser) consume(line string) {
	trimmedLine := strings.TrimSpace(line)
	switch {
	case trimmedLine == DelimiterLine:
		return
	case strings.HasPrefix(trimmedLine, FilePathMarker):
		parser.flush()
		parser.currentPath = strings.TrimSpace(strings.TrimPrefix(trimmedLine, FilePathMarker))
		parser.state = stateInsideFile
	case strings.HasPrefix(trimmedLine, EndOfFileMarker):
		parser.flush()
		parser.currentPath = ""
		parser.state = stateOutside
	case parser.state == stateInsideFile:
		parser.bufferedLines = append(parser.bufferedLines, line)
	}
}

// flush writes the buffered lines joined by "\n" to the current path, if any lines are buffered.
func (parser *restoreParser) flush() {
	if parser.state != stateInsideFile || len(parser.bufferedLines) == 0 {
		parser.bufferedLines = nil
		return
	}
	content := strings.Join(parser.bufferedLines, "\n")
	parser.bufferedLines = nil

	relativePath := utils.NormalizeSlashes(parser.currentPath)
	if relativePath == "" {
		parser.logger.Warn(logMessageEmptyPath)
		parser.result.Failures++
		return
	}
	if !utils.IsWithinRoot(relativePath) {
		parser.logger.Warn(logMessageEscapingPath, zap.String(logFieldPath, parser.currentPath))
		parser.result.Failures++
		return
	}
	localPath := filepath.Clean(filepath.FromSlash(relativePath))
	if mkdirError := parser.destination.MkdirAll(filepath.Dir(localPath), restoreDirectoryPermissions); mkdirError != nil {
		parser.logger.Warn(logMessageRestoreFailure, zap.String(logFieldPath, relativePath), zap.Error(mkdirError))
		parser.result.Failures++
		return
	}
	if writeError := afero.WriteFile(parser.destination, localPath, []byte(content), restoreFilePermissions); writeError != nil {
		parser.logger.Warn(logMessageRestoreFailure, zap.String(logFieldPath, relativePath), zap.Error(writeError))
		parser.result.Failures++
		return
	}
	parser.logger.Info(logMessageCreatedFile, zap.String(logFieldPath, relativePath))
	parser.result.RestoredPaths = append(parser.result.RestoredPaths, relativePath)
}
