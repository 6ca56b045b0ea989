package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/temirov/backupfiles/internal/utils"
)

const (
	xmlExtension = ".xml"

	determineWorkingDirectoryErrorFormat = "determine working directory: %w"
	resolveConfigurationPathErrorFormat  = "resolve configuration path %s: %w"
	statConfigurationErrorFormat         = "stat configuration %s: %w"
	configurationIsDirectoryErrorFormat  = "configuration path %s is a directory"
	readConfigurationErrorFormat         = "read configuration from %s: %w"
	decodeConfigurationErrorFormat       = "decode configuration from %s: %w"
	configurationNotFoundErrorFormat     = "%w: %s"
)

// LoadOptions controls how the configuration file is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// Resolution describes the configuration file chosen by ResolveConfigurationPath.
type Resolution struct {
	Path string
	// Exists is false when no candidate exists and Path is the default location to create.
	Exists bool
	// Explicit is true when the path was requested by the caller.
	Explicit bool
}

// GlobalConfigurationPath is the per-user configuration location under XDG_CONFIG_HOME.
func GlobalConfigurationPath() string {
	return filepath.Join(xdg.ConfigHome, utils.ApplicationName, utils.DefaultConfigurationFileNames[0])
}

// ResolveConfigurationPath picks the explicit path when given. Otherwise it returns the first
// default file name present in the working directory, then the global configuration. When
// nothing exists the working directory YAML location is returned with Exists set to false.
func ResolveConfigurationPath(options LoadOptions) (Resolution, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return Resolution{}, fmt.Errorf(determineWorkingDirectoryErrorFormat, err)
		}
		workingDirectory = currentDirectory
	}

	if explicitPath := strings.TrimSpace(options.ExplicitFilePath); explicitPath != "" {
		if !filepath.IsAbs(explicitPath) {
			explicitPath = filepath.Join(workingDirectory, explicitPath)
		}
		absolutePath, err := filepath.Abs(explicitPath)
		if err != nil {
			return Resolution{}, fmt.Errorf(resolveConfigurationPathErrorFormat, explicitPath, err)
		}
		return Resolution{Path: absolutePath, Exists: fileExists(absolutePath), Explicit: true}, nil
	}

	for _, fileName := range utils.DefaultConfigurationFileNames {
		candidatePath := filepath.Join(workingDirectory, fileName)
		if fileExists(candidatePath) {
			return Resolution{Path: candidatePath, Exists: true}, nil
		}
	}
	if globalPath := GlobalConfigurationPath(); fileExists(globalPath) {
		return Resolution{Path: globalPath, Exists: true}, nil
	}
	return Resolution{Path: filepath.Join(workingDirectory, utils.DefaultConfigurationFileNames[0])}, nil
}

// IsConfigurationPath reports whether path has an extension the loader understands.
func IsConfigurationPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml", ".json", xmlExtension:
		return true
	default:
		return false
	}
}

// Load reads the configuration at path. XML files use the legacy element layout; every other
// supported format is decoded through viper.
func Load(path string) (Configuration, error) {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return Configuration{}, fmt.Errorf(resolveConfigurationPathErrorFormat, path, absoluteError)
	}
	info, statErr := os.Stat(absolutePath)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return Configuration{}, fmt.Errorf(configurationNotFoundErrorFormat, ErrConfigurationNotFound, absolutePath)
		}
		return Configuration{}, fmt.Errorf(statConfigurationErrorFormat, absolutePath, statErr)
	}
	if info.IsDir() {
		return Configuration{}, fmt.Errorf(configurationIsDirectoryErrorFormat, absolutePath)
	}

	var configuration Configuration
	var loadError error
	if isXMLPath(absolutePath) {
		configuration, loadError = loadXMLConfiguration(absolutePath)
	} else {
		configuration, loadError = loadStructuredConfiguration(absolutePath)
	}
	if loadError != nil {
		return Configuration{}, loadError
	}
	configuration.FilePath = absolutePath
	configuration.ExcludePaths = utils.DeduplicatePatterns(configuration.ExcludePaths)
	return configuration, nil
}

func loadStructuredConfiguration(path string) (Configuration, error) {
	reader := viper.New()
	reader.SetConfigFile(path)
	defaults := Default()
	reader.SetDefault("update_check_minutes", defaults.UpdateCheckMinutes)
	reader.SetDefault("update_check_timeout_seconds", defaults.UpdateCheckTimeoutSeconds)
	reader.SetDefault("result_path", defaults.ResultPath)
	reader.SetDefault("result_filename_mask", defaults.ResultFilenameMask)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return Configuration{}, fmt.Errorf(readConfigurationErrorFormat, path, readErr)
	}
	var configuration Configuration
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToConfigItemHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if decodeErr := reader.Unmarshal(&configuration, decodeHook); decodeErr != nil {
		return Configuration{}, fmt.Errorf(decodeConfigurationErrorFormat, path, decodeErr)
	}
	return configuration, nil
}

// stringToConfigItemHookFunc lets list entries be written as plain strings instead of maps.
func stringToConfigItemHookFunc() mapstructure.DecodeHookFuncType {
	configItemType := reflect.TypeOf(ConfigItem{})
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != configItemType || from.Kind() != reflect.String {
			return data, nil
		}
		return map[string]interface{}{"value": data}, nil
	}
}

func isXMLPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), xmlExtension)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func directoryOf(path string) string {
	if path == "" {
		return "."
	}
	return filepath.Dir(path)
}
