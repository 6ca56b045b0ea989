package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/backupfiles/internal/tokenizer"
	"github.com/temirov/backupfiles/internal/tree"
	"github.com/temirov/backupfiles/internal/types"
	"github.com/temirov/backupfiles/internal/utils"
)

// ErrArchiveWrite reports that the archive could not be created or written. It aborts a backup.
var ErrArchiveWrite = errors.New("archive write failure")

const (
	archiveWriteErrorFormat     = "%w: %s: %w"
	archiveFilePermissions      = 0o644
	archiveDirectoryPermissions = 0o755

	logFieldPath           = "path"
	logFieldTokens         = "tokens"
	logMessagePacking      = "Packing file"
	logMessageBinary       = "Skipping binary file"
	logMessageReadFailure  = "Unable to read file content"
	logMessageTokenFailure = "Unable to count tokens"
)

// WriterOptions configures how the archive is produced.
type WriterOptions struct {
	// RootName labels the root line of the tree summary.
	RootName string
	// TokenCounter, when set, counts tokens of every packed file into ScanStats.PackedTokens.
	TokenCounter tokenizer.Counter
	Logger       *zap.Logger
}

// WriteArchiveFile creates archivePath, including missing parent directories, and writes the
// archive into it. Creation and write failures wrap ErrArchiveWrite.
func WriteArchiveFile(archivePath string, files []types.SelectedFile, options WriterOptions, stats *types.ScanStats) error {
	if mkdirError := os.MkdirAll(filepath.Dir(archivePath), archiveDirectoryPermissions); mkdirError != nil {
		return fmt.Errorf(archiveWriteErrorFormat, ErrArchiveWrite, filepath.Dir(archivePath), mkdirError)
	}
	archiveFile, createError := os.OpenFile(archivePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, archiveFilePermissions)
	if createError != nil {
		return fmt.Errorf(archiveWriteErrorFormat, ErrArchiveWrite, archivePath, createError)
	}
	writeError := WriteArchive(archiveFile, files, options, stats)
	closeError := archiveFile.Close()
	if writeError != nil {
		return writeError
	}
	if closeError != nil {
		return fmt.Errorf(archiveWriteErrorFormat, ErrArchiveWrite, archivePath, closeError)
	}
	return nil
}

// WriteArchive writes the tree summary followed by one block per packed file. Tree-only files
// appear only in the summary. Binary and unreadable files are counted and skipped.
func WriteArchive(destination io.Writer, files []types.SelectedFile, options WriterOptions, stats *types.ScanStats) error {
	if stats == nil {
		stats = &types.ScanStats{}
	}
	logger := utils.LoggerOrNop(options.Logger)
	bufferedWriter := bufio.NewWriter(destination)

	if treeError := tree.Build(options.RootName, files).Write(bufferedWriter); treeError != nil {
		return fmt.Errorf(archiveWriteErrorFormat, ErrArchiveWrite, options.RootName, treeError)
	}

	for _, file := range files {
		if file.TreeOnly {
			continue
		}
		content, readError := os.ReadFile(file.Path)
		if readError != nil {
			logger.Warn(logMessageReadFailure, zap.String(logFieldPath, file.RelativePath), zap.Error(readError))
			stats.Record(types.OutcomeContentReadFailure)
			continue
		}
		if utils.IsBinary(content) {
			logger.Info(logMessageBinary, zap.String(logFieldPath, file.RelativePath))
			stats.Record(types.OutcomeSkippedAsBinary)
			continue
		}
		logger.Info(logMessagePacking, zap.String(logFieldPath, file.RelativePath))
		if blockError := writeBlock(bufferedWriter, file.RelativePath, content); blockError != nil {
			return fmt.Errorf(archiveWriteErrorFormat, ErrArchiveWrite, file.RelativePath, blockError)
		}
		stats.Packed++
		stats.PackedBytes += int64(len(content))
		if options.TokenCounter != nil {
			countResult, countError := tokenizer.CountBytes(options.TokenCounter, content)
			if countError != nil {
				logger.Warn(logMessageTokenFailure, zap.String(logFieldPath, file.RelativePath), zap.Error(countError))
			} else if countResult.Counted {
				stats.PackedTokens += countResult.Tokens
				logger.Debug(logMessagePacking, zap.String(logFieldPath, file.RelativePath), zap.Int(logFieldTokens, countResult.Tokens))
			}
		}
	}

	if flushError := bufferedWriter.Flush(); flushError != nil {
		return fmt.Errorf(archiveWriteErrorFormat, ErrArchiveWrite, options.RootName, flushError)
	}
	return nil
}

// writeBlock writes content verbatim followed by exactly one line terminator.
func writeBlock(writer *bufio.Writer, relativePath string, content []byte) error {
	if _, headerError := writer.WriteString(blockHeader(relativePath)); headerError != nil {
		return headerError
	}
	if _, contentError := writer.Write(content); contentError != nil {
		return contentError
	}
	if _, terminatorError := writer.WriteString(lineTerminator); terminatorError != nil {
		return terminatorError
	}
	_, footerError := writer.WriteString(blockFooter())
	return footerError
}
