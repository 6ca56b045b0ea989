// Package scanner walks configured include paths and files and selects the files to back up.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/temirov/backupfiles/internal/rules"
	"github.com/temirov/backupfiles/internal/types"
	"github.com/temirov/backupfiles/internal/utils"
)

const (
	forceIncludeMarker = "!"

	rootDirectoryErrorFormat   = "scan root %s: %w"
	rootNotDirectoryFormat     = "scan root %s is not a directory"
	logFieldPath               = "path"
	logMessageMissingDirectory = "Include path does not exist"
	logMessageMissingFile      = "Include file does not exist"
	logMessageOutsideRoot      = "Include entry is outside the root directory"
	logMessageReadDirectory    = "Unable to read directory"
	logMessageInvalidPattern   = "Include path pattern is invalid"
	logMessageIncludingFile    = "Including file"
	logMessageForcedFile       = "Including file (override)"
	logMessageExcludedFile     = "File excluded by filter"
	logMessageExcludedDir      = "Directory excluded by filter"
	logMessageTooLarge         = "Skipping file larger than limit"
	logMessageTooOld           = "Skipping file older than limit"
	logMessageSelectionRules   = "Selection rules"
	logMessageNoRules          = "No selection rules; no files will be selected"
)

// ErrRootNotDirectory is returned when the scan root is missing or not a directory.
var ErrRootNotDirectory = errors.New("scan root is not a directory")

// IncludeDirectory is a directory whose files are candidates for selection.
type IncludeDirectory struct {
	// Value is a root-relative path, an absolute path, or a wildcard pattern such as "*/res".
	Value     string
	TreeOnly  bool
	Recursive bool
}

// IncludeFile is an explicitly named file. A trailing "!" forces inclusion past exclusions.
type IncludeFile struct {
	Value    string
	TreeOnly bool
}

// Options configures a scan.
type Options struct {
	RootDirectory      string
	IncludeDirectories []IncludeDirectory
	IncludeFiles       []IncludeFile
	ExcludePatterns    []string
	Rules              rules.RuleSet
	// MaxFileSizeBytes skips larger files when positive.
	MaxFileSizeBytes int64
	// MaxFileAge skips files modified longer ago than this when positive.
	MaxFileAge time.Duration
	// IncrementalCutoff skips files modified at or before it when non-zero.
	IncrementalCutoff time.Time
	Now               func() time.Time
	Logger            *zap.Logger
}

// Selection is the outcome of a scan.
type Selection struct {
	RootDirectory string
	Files         []types.SelectedFile
	Stats         types.ScanStats
}

type candidateFile struct {
	absolutePath string
	relativePath string
	treeOnly     bool
	forced       bool
}

type scanContext struct {
	options         Options
	rootDirectory   string
	exclusions      ExclusionMatcher
	now             time.Time
	logger          *zap.Logger
	selection       Selection
	consideredPaths map[string]struct{}
	selectedPaths   map[string]struct{}
}

// Scan walks include directories in lexical order, then the declared include files, and returns
// the selected files with aggregated statistics. Missing include entries are logged and counted.
func Scan(options Options) (Selection, error) {
	absoluteRoot, absoluteRootError := filepath.Abs(options.RootDirectory)
	if absoluteRootError != nil {
		return Selection{}, fmt.Errorf(rootDirectoryErrorFormat, options.RootDirectory, absoluteRootError)
	}
	rootInfo, rootStatError := os.Stat(absoluteRoot)
	if rootStatError != nil {
		return Selection{}, fmt.Errorf(rootDirectoryErrorFormat, absoluteRoot, errors.Join(ErrRootNotDirectory, rootStatError))
	}
	if !rootInfo.IsDir() {
		return Selection{}, fmt.Errorf("%w: "+rootNotDirectoryFormat, ErrRootNotDirectory, absoluteRoot)
	}

	nowFunction := options.Now
	if nowFunction == nil {
		nowFunction = time.Now
	}
	scan := &scanContext{
		options:         options,
		rootDirectory:   absoluteRoot,
		exclusions:      NewExclusionMatcher(options.ExcludePatterns),
		now:             nowFunction(),
		logger:          utils.LoggerOrNop(options.Logger),
		selection:       Selection{RootDirectory: absoluteRoot, Files: []types.SelectedFile{}},
		consideredPaths: map[string]struct{}{},
		selectedPaths:   map[string]struct{}{},
	}

	scan.logRules()
	for _, includeDirectory := range options.IncludeDirectories {
		scan.scanIncludeDirectory(includeDirectory)
	}
	for _, includeFile := range options.IncludeFiles {
		scan.scanIncludeFile(includeFile)
	}
	return scan.selection, nil
}

func (scan *scanContext) logRules() {
	if scan.options.Rules.Empty() {
		scan.logger.Warn(logMessageNoRules)
		return
	}
	orderedRules := scan.options.Rules.Rules()
	patterns := make([]string, 0, len(orderedRules))
	for _, rule := range orderedRules {
		patterns = append(patterns, rule.Pattern)
	}
	scan.logger.Debug(logMessageSelectionRules, zap.Strings("patterns", patterns))
}

func (scan *scanContext) scanIncludeDirectory(includeDirectory IncludeDirectory) {
	trimmedValue := strings.TrimSpace(includeDirectory.Value)
	if trimmedValue == "" {
		return
	}
	directories, resolveError := scan.resolveIncludeDirectories(trimmedValue)
	if resolveError != nil {
		scan.logger.Warn(logMessageInvalidPattern, zap.String(logFieldPath, trimmedValue), zap.Error(resolveError))
		scan.selection.Stats.Record(types.OutcomePathNotFound)
		return
	}
	if len(directories) == 0 {
		scan.logger.Warn(logMessageMissingDirectory, zap.String(logFieldPath, trimmedValue))
		scan.selection.Stats.Record(types.OutcomePathNotFound)
		return
	}
	for _, directoryPath := range directories {
		relativeDirectory := utils.RelativePathOrSelf(directoryPath, scan.rootDirectory)
		if relativeDirectory != "." && !utils.IsWithinRoot(relativeDirectory) {
			scan.logger.Warn(logMessageOutsideRoot, zap.String(logFieldPath, directoryPath))
			scan.selection.Stats.Record(types.OutcomePathNotFound)
			continue
		}
		if relativeDirectory != "." && scan.exclusions.Excluded(relativeDirectory) {
			scan.recordPrunedDirectory(directoryPath, relativeDirectory, includeDirectory.Recursive)
			continue
		}
		scan.walkDirectory(directoryPath, includeDirectory)
	}
}

// resolveIncludeDirectories expands wildcard values against the root and returns existing directories.
func (scan *scanContext) resolveIncludeDirectories(value string) ([]string, error) {
	if rules.IsWildcard(value) {
		pattern := rules.NormalizePattern(value)
		matches, globError := doublestar.Glob(os.DirFS(scan.rootDirectory), strings.TrimSuffix(pattern, "/"))
		if globError != nil {
			return nil, globError
		}
		directories := []string{}
		for _, match := range matches {
			candidatePath := filepath.Join(scan.rootDirectory, filepath.FromSlash(match))
			if info, statError := os.Stat(candidatePath); statError == nil && info.IsDir() {
				directories = append(directories, candidatePath)
			}
		}
		return directories, nil
	}
	candidatePath := scan.absolutePath(value)
	info, statError := os.Stat(candidatePath)
	if statError != nil || !info.IsDir() {
		return nil, nil
	}
	return []string{candidatePath}, nil
}

func (scan *scanContext) walkDirectory(directoryPath string, includeDirectory IncludeDirectory) {
	entries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		scan.logger.Warn(logMessageReadDirectory, zap.String(logFieldPath, directoryPath), zap.Error(readError))
		return
	}
	for _, entry := range entries {
		childPath := filepath.Join(directoryPath, entry.Name())
		relativePath := utils.RelativePathOrSelf(childPath, scan.rootDirectory)
		if isDirectoryEntry(entry, childPath) {
			if !includeDirectory.Recursive {
				continue
			}
			if scan.exclusions.Excluded(relativePath) {
				scan.recordPrunedDirectory(childPath, relativePath, true)
				continue
			}
			scan.walkDirectory(childPath, includeDirectory)
			continue
		}
		scan.considerFile(candidateFile{
			absolutePath: childPath,
			relativePath: relativePath,
			treeOnly:     includeDirectory.TreeOnly,
		})
	}
}

// recordPrunedDirectory skips an excluded directory. Its files still count as scanned and
// excluded, the same as files excluded one by one.
func (scan *scanContext) recordPrunedDirectory(directoryPath string, relativeDirectory string, recursive bool) {
	scan.logger.Debug(logMessageExcludedDir, zap.String(logFieldPath, relativeDirectory))
	stats := &scan.selection.Stats
	stats.ExcludedDirectories++
	walkError := filepath.WalkDir(directoryPath, func(entryPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if entry.IsDir() {
			if entryPath != directoryPath && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if isDirectoryEntry(entry, entryPath) {
			return nil
		}
		relativePath := utils.RelativePathOrSelf(entryPath, scan.rootDirectory)
		if _, alreadyConsidered := scan.consideredPaths[relativePath]; alreadyConsidered {
			return nil
		}
		scan.consideredPaths[relativePath] = struct{}{}
		stats.Scanned++
		stats.Record(types.OutcomeExcludedByPath)
		return nil
	})
	if walkError != nil {
		scan.logger.Warn(logMessageReadDirectory, zap.String(logFieldPath, directoryPath), zap.Error(walkError))
	}
}

func (scan *scanContext) scanIncludeFile(includeFile IncludeFile) {
	trimmedValue := strings.TrimSpace(includeFile.Value)
	if trimmedValue == "" {
		return
	}
	forced := false
	if strings.HasSuffix(trimmedValue, forceIncludeMarker) {
		forced = true
		trimmedValue = strings.TrimSpace(strings.TrimSuffix(trimmedValue, forceIncludeMarker))
	}
	candidatePath := scan.absolutePath(trimmedValue)
	info, statError := os.Stat(candidatePath)
	if statError != nil || info.IsDir() {
		scan.logger.Warn(logMessageMissingFile, zap.String(logFieldPath, candidatePath))
		scan.selection.Stats.Record(types.OutcomePathNotFound)
		return
	}
	relativePath := utils.RelativePathOrSelf(candidatePath, scan.rootDirectory)
	if !utils.IsWithinRoot(relativePath) {
		scan.logger.Warn(logMessageOutsideRoot, zap.String(logFieldPath, candidatePath))
		scan.selection.Stats.Record(types.OutcomePathNotFound)
		return
	}
	if scan.considerFile(candidateFile{
		absolutePath: candidatePath,
		relativePath: relativePath,
		treeOnly:     includeFile.TreeOnly,
		forced:       forced,
	}) {
		if forced {
			scan.logger.Info(logMessageForcedFile, zap.String(logFieldPath, relativePath))
		} else {
			scan.logger.Info(logMessageIncludingFile, zap.String(logFieldPath, relativePath))
		}
	}
}

// considerFile applies exclusion, limits, rule matching and the incremental cutoff, in that order.
// It reports whether the candidate was selected.
func (scan *scanContext) considerFile(candidate candidateFile) bool {
	if _, alreadySelected := scan.selectedPaths[candidate.relativePath]; alreadySelected {
		return false
	}
	stats := &scan.selection.Stats
	if _, alreadyConsidered := scan.consideredPaths[candidate.relativePath]; !alreadyConsidered {
		scan.consideredPaths[candidate.relativePath] = struct{}{}
		stats.Scanned++
	}

	if !candidate.forced && scan.exclusions.Excluded(candidate.relativePath) {
		scan.logger.Debug(logMessageExcludedFile, zap.String(logFieldPath, candidate.relativePath))
		stats.Record(types.OutcomeExcludedByPath)
		return false
	}

	fileInfo, statError := os.Stat(candidate.absolutePath)
	if statError == nil {
		if scan.options.MaxFileSizeBytes > 0 && fileInfo.Size() > scan.options.MaxFileSizeBytes {
			scan.logger.Debug(logMessageTooLarge, zap.String(logFieldPath, candidate.relativePath), zap.Int64("size", fileInfo.Size()))
			stats.Record(types.OutcomeSkippedBySize)
			return false
		}
		if scan.options.MaxFileAge > 0 && scan.now.Sub(fileInfo.ModTime()) > scan.options.MaxFileAge {
			scan.logger.Debug(logMessageTooOld, zap.String(logFieldPath, candidate.relativePath), zap.Time("modified", fileInfo.ModTime()))
			stats.Record(types.OutcomeSkippedByAge)
			return false
		}
	}

	matchedRule, matched := scan.options.Rules.Match(candidate.relativePath)
	if !matched {
		stats.Record(types.OutcomeSkippedByPattern)
		return false
	}

	if !scan.options.IncrementalCutoff.IsZero() && statError == nil && !fileInfo.ModTime().After(scan.options.IncrementalCutoff) {
		stats.Record(types.OutcomeSkippedUnchanged)
		return false
	}

	selectedFile := types.SelectedFile{
		Path:         candidate.absolutePath,
		RelativePath: candidate.relativePath,
		TreeOnly:     candidate.treeOnly || matchedRule.TreeOnly,
	}
	scan.selectedPaths[candidate.relativePath] = struct{}{}
	scan.selection.Files = append(scan.selection.Files, selectedFile)
	stats.Record(types.OutcomeIncluded)
	if selectedFile.TreeOnly {
		stats.TreeOnly++
	}
	return true
}

func (scan *scanContext) absolutePath(value string) string {
	localValue := filepath.FromSlash(utils.NormalizeSlashes(value))
	if filepath.IsAbs(localValue) {
		return filepath.Clean(localValue)
	}
	return filepath.Join(scan.rootDirectory, localValue)
}

func isDirectoryEntry(entry fs.DirEntry, entryPath string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	targetInfo, statError := os.Stat(entryPath)
	return statError == nil && targetInfo.IsDir()
}
