package config

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	projectNameToken = "@PROJECTNAME"
	versionToken     = "@VER"
	maskWildcard     = "*"
)

var (
	timestampTokenExpression = regexp.MustCompile(`#([^#]*)#`)
	timestampLayoutReplacer  = strings.NewReplacer(
		"YYYY", "2006",
		"MM", "01",
		"DD", "02",
		"hh", "15",
		"mm", "04",
		"ss", "05",
	)
)

// ResultFileName expands the filename mask. "@PROJECTNAME" and "@VER" are replaced with the
// project name and version, and a "#...#" token is formatted from backupTime using the
// placeholders YYYY, MM, DD, hh, mm and ss.
func (configuration Configuration) ResultFileName(backupTime time.Time) string {
	expanded := strings.ReplaceAll(configuration.ResultFilenameMask, projectNameToken, configuration.ProjectName)
	expanded = strings.ReplaceAll(expanded, versionToken, configuration.Version)
	return timestampTokenExpression.ReplaceAllStringFunc(expanded, func(token string) string {
		layout := timestampLayoutReplacer.Replace(strings.Trim(token, "#"))
		return backupTime.Format(layout)
	})
}

// ResultDirectory is the absolute directory backups are written to.
func (configuration Configuration) ResultDirectory() string {
	resultPath := filepath.FromSlash(strings.TrimSpace(configuration.ResultPath))
	if filepath.IsAbs(resultPath) {
		return filepath.Clean(resultPath)
	}
	return filepath.Join(configuration.RootDirectory(), resultPath)
}

// ResultFilePath joins ResultDirectory and ResultFileName.
func (configuration Configuration) ResultFilePath(backupTime time.Time) string {
	return filepath.Join(configuration.ResultDirectory(), configuration.ResultFileName(backupTime))
}

// ResultFilePattern converts the mask into a wildcard matching every backup it can produce:
// the project name stays literal while the version and timestamp tokens become "*".
func (configuration Configuration) ResultFilePattern() string {
	pattern := strings.ReplaceAll(configuration.ResultFilenameMask, projectNameToken, configuration.ProjectName)
	pattern = strings.ReplaceAll(pattern, versionToken, maskWildcard)
	return timestampTokenExpression.ReplaceAllString(pattern, maskWildcard)
}
