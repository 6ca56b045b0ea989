// Package cleanup removes old backup files so only the most recent ones remain.
package cleanup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/backupfiles/internal/rules"
	"github.com/temirov/backupfiles/internal/utils"
)

const (
	zipSuffix = ".zip"

	listResultDirectoryErrorFormat = "list result directory %s: %w"
	removeBackupErrorFormat        = "remove backup %s: %w"
	removedBackupMessage           = "Removed old backup"
	keepingBackupsMessage          = "Retention cleanup"
)

// Options selects the backups subject to retention.
type Options struct {
	Directory string
	// Pattern is a wildcard matched against file names. Names matching Pattern plus ".zip" count too.
	Pattern  string
	KeepLast int
	Logger   *zap.Logger
}

// Result lists the backups that were kept and removed.
type Result struct {
	Kept    []string
	Removed []string
}

// backupSet is one backup: the text archive, its zip, or both.
type backupSet struct {
	key          string
	paths        []string
	modification time.Time
}

// KeepLast removes every backup in Directory matching Pattern except the KeepLast most recently
// modified ones. An archive and its ".zip" twin count as one backup. A non-positive KeepLast
// disables cleanup. A missing directory is not an error.
func KeepLast(options Options) (Result, error) {
	if options.KeepLast <= 0 || options.Pattern == "" {
		return Result{}, nil
	}
	logger := utils.LoggerOrNop(options.Logger)

	entries, readError := os.ReadDir(options.Directory)
	if readError != nil {
		if errors.Is(readError, os.ErrNotExist) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf(listResultDirectoryErrorFormat, options.Directory, readError)
	}

	setsByKey := map[string]*backupSet{}
	var candidates []*backupSet
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !rules.Match(name, options.Pattern) && !rules.Match(name, options.Pattern+zipSuffix) {
			continue
		}
		info, infoError := entry.Info()
		if infoError != nil {
			continue
		}
		key := strings.TrimSuffix(name, zipSuffix)
		set, exists := setsByKey[key]
		if !exists {
			set = &backupSet{key: key}
			setsByKey[key] = set
			candidates = append(candidates, set)
		}
		set.paths = append(set.paths, filepath.Join(options.Directory, name))
		if info.ModTime().After(set.modification) {
			set.modification = info.ModTime()
		}
	}

	sort.SliceStable(candidates, func(left, right int) bool {
		if candidates[left].modification.Equal(candidates[right].modification) {
			return candidates[left].key > candidates[right].key
		}
		return candidates[left].modification.After(candidates[right].modification)
	})

	var result Result
	var removalErrors []error
	for index, candidate := range candidates {
		if index < options.KeepLast {
			result.Kept = append(result.Kept, candidate.paths...)
			continue
		}
		for _, path := range candidate.paths {
			if removeError := os.Remove(path); removeError != nil {
				removalErrors = append(removalErrors, fmt.Errorf(removeBackupErrorFormat, path, removeError))
				continue
			}
			result.Removed = append(result.Removed, path)
			logger.Info(removedBackupMessage, zap.String("path", path))
		}
	}
	logger.Debug(keepingBackupsMessage, zap.Int("kept", len(result.Kept)), zap.Int("removed", len(result.Removed)))
	return result, errors.Join(removalErrors...)
}
