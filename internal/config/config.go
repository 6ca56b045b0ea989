// Package config loads, validates and updates backup configuration files.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/temirov/backupfiles/internal/rules"
	"github.com/temirov/backupfiles/internal/scanner"
	"github.com/temirov/backupfiles/internal/utils"
)

const (
	defaultUpdateCheckMinutes        = 1440
	defaultUpdateCheckTimeoutSeconds = 5
	defaultResultPath                = "./backup"
	defaultResultFilenameMask        = "@PROJECTNAME_@VER_#YYYYMMDDhhmmss#.bak.txt"
)

var (
	// ErrExampleConfiguration is returned for configurations still marked as an example.
	ErrExampleConfiguration = errors.New("configuration is an example; set is_example to 0 before use")
	// ErrIncompleteConfiguration is returned when required values are missing.
	ErrIncompleteConfiguration = errors.New("configuration is incomplete")
	// ErrConfigurationNotFound is returned when a configuration file does not exist.
	ErrConfigurationNotFound = errors.New("configuration file not found")
)

// Configuration is the decoded content of a backup configuration file.
type Configuration struct {
	ProjectName               string                 `mapstructure:"project_name"`
	Version                   string                 `mapstructure:"version"`
	Created                   string                 `mapstructure:"created"`
	UpdateCheckMinutes        int                    `mapstructure:"update_check_minutes"`
	UpdateCheckTimeoutSeconds int                    `mapstructure:"update_check_timeout_seconds"`
	UpdateURL                 string                 `mapstructure:"update_url"`
	Extensions                ExtensionConfiguration `mapstructure:"extensions"`
	IncludePaths              []ConfigItem           `mapstructure:"include_paths"`
	IncludeFiles              []ConfigItem           `mapstructure:"include_files"`
	ExcludePaths              []string               `mapstructure:"exclude_paths"`
	ResultPath                string                 `mapstructure:"result_path"`
	ResultFilenameMask        string                 `mapstructure:"result_filename_mask"`
	EnableZip                 bool                   `mapstructure:"enable_zip"`
	DeleteUnzipped            bool                   `mapstructure:"delete_unzipped"`
	MaxFileSizeMB             int                    `mapstructure:"max_file_size_mb"`
	MaxFileAgeDays            int                    `mapstructure:"max_file_age_days"`
	Incremental               bool                   `mapstructure:"incremental"`
	CleanupKeepLast           int                    `mapstructure:"cleanup_keep_last"`
	IsExample                 bool                   `mapstructure:"is_example"`

	// FilePath is the absolute path the configuration was loaded from.
	FilePath string `mapstructure:"-"`
}

// ExtensionConfiguration declares the patterns that select files.
type ExtensionConfiguration struct {
	Items  []ConfigItem     `mapstructure:"items"`
	Groups []ExtensionGroup `mapstructure:"groups"`
}

// ExtensionGroup is a named set of extension items sharing a tree-only flag.
type ExtensionGroup struct {
	Name     string       `mapstructure:"name"`
	TreeOnly bool         `mapstructure:"tree_only"`
	Items    []ConfigItem `mapstructure:"items"`
}

// ConfigItem is a configured value with optional flags. Plain strings decode into Value.
type ConfigItem struct {
	Value     string `mapstructure:"value"`
	TreeOnly  bool   `mapstructure:"tree_only"`
	Enable    *bool  `mapstructure:"enable"`
	Recursive *bool  `mapstructure:"recursive"`
}

// Enabled reports whether the item is active. Items are enabled unless disabled explicitly.
func (item ConfigItem) Enabled() bool {
	return item.Enable == nil || *item.Enable
}

// IsRecursive reports whether an include path descends into subdirectories. Defaults to true.
func (item ConfigItem) IsRecursive() bool {
	return item.Recursive == nil || *item.Recursive
}

// Default returns a configuration populated with default values only.
func Default() Configuration {
	return Configuration{
		UpdateCheckMinutes:        defaultUpdateCheckMinutes,
		UpdateCheckTimeoutSeconds: defaultUpdateCheckTimeoutSeconds,
		ResultPath:                defaultResultPath,
		ResultFilenameMask:        defaultResultFilenameMask,
	}
}

// RootDirectory is the directory containing the configuration file. Relative paths resolve against it.
func (configuration Configuration) RootDirectory() string {
	return directoryOf(configuration.FilePath)
}

// Validate checks that the configuration is usable for a backup.
func (configuration Configuration) Validate() error {
	if configuration.IsExample {
		return ErrExampleConfiguration
	}
	if strings.TrimSpace(configuration.ProjectName) == "" || strings.TrimSpace(configuration.Version) == "" {
		return errors.Join(ErrIncompleteConfiguration, errors.New("project name or version is missing"))
	}
	if configuration.RuleSet().Empty() || len(configuration.IncludePaths) == 0 {
		return errors.Join(ErrIncompleteConfiguration, errors.New("extensions or include paths are missing"))
	}
	return nil
}

// RuleSet builds the ordered selection rules from the extension items and groups.
func (configuration Configuration) RuleSet() rules.RuleSet {
	items := toRuleEntries(configuration.Extensions.Items)
	groups := make([]rules.Group, 0, len(configuration.Extensions.Groups))
	for _, group := range configuration.Extensions.Groups {
		groups = append(groups, rules.Group{
			Name:     group.Name,
			TreeOnly: group.TreeOnly,
			Entries:  toRuleEntries(group.Items),
		})
	}
	return rules.BuildRuleSet(items, groups)
}

func toRuleEntries(items []ConfigItem) []rules.Entry {
	entries := make([]rules.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, rules.Entry{Value: item.Value, TreeOnly: item.TreeOnly, Enabled: item.Enabled()})
	}
	return entries
}

// ScanOptions translates the configuration into scanner options. When incremental mode is on
// and the created timestamp cannot be parsed, the returned options have no cutoff and the
// parse error is returned alongside them so callers can warn and continue.
func (configuration Configuration) ScanOptions() (scanner.Options, error) {
	options := scanner.Options{
		RootDirectory:    configuration.RootDirectory(),
		ExcludePatterns:  utils.DeduplicatePatterns(configuration.ExcludePaths),
		Rules:            configuration.RuleSet(),
		MaxFileSizeBytes: utils.MegabytesToBytes(configuration.MaxFileSizeMB),
	}
	if configuration.MaxFileAgeDays > 0 {
		options.MaxFileAge = time.Duration(configuration.MaxFileAgeDays) * 24 * time.Hour
	}
	for _, includePath := range configuration.IncludePaths {
		if !includePath.Enabled() {
			continue
		}
		options.IncludeDirectories = append(options.IncludeDirectories, scanner.IncludeDirectory{
			Value:     includePath.Value,
			TreeOnly:  includePath.TreeOnly,
			Recursive: includePath.IsRecursive(),
		})
	}
	for _, includeFile := range configuration.IncludeFiles {
		if !includeFile.Enabled() {
			continue
		}
		options.IncludeFiles = append(options.IncludeFiles, scanner.IncludeFile{
			Value:    includeFile.Value,
			TreeOnly: includeFile.TreeOnly,
		})
	}
	if !configuration.Incremental || strings.TrimSpace(configuration.Created) == "" {
		return options, nil
	}
	cutoff, parseError := utils.ParseBackupTimestamp(configuration.Created)
	if parseError != nil {
		return options, parseError
	}
	options.IncrementalCutoff = cutoff
	return options, nil
}
