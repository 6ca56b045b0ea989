package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/temirov/backupfiles/internal/utils"
)

const (
	versionPartCount       = 3
	maximumMinorVersion    = 99
	versionKey             = "version"
	createdKey             = "created"
	yamlIndentSpaces       = 2
	stringTag              = "!!str"
	invalidVersionFormat   = "%w: %q"
	readBookkeepingFormat  = "read configuration %s: %w"
	writeBookkeepingFormat = "write configuration %s: %w"
	yamlDocumentFormat     = "configuration %s is not a YAML mapping"
)

// ErrInvalidVersion is returned for versions that are not Prefix.Major.Minor.
var ErrInvalidVersion = errors.New("version must have the form prefix.major.minor")

// IncrementVersion bumps the minor part of a Prefix.Major.Minor version. A minor part of 99
// rolls over to 0 and increments the major part.
func IncrementVersion(version string) (string, error) {
	versionParts := strings.Split(strings.TrimSpace(version), ".")
	if len(versionParts) != versionPartCount {
		return "", fmt.Errorf(invalidVersionFormat, ErrInvalidVersion, version)
	}
	majorVersion, majorError := strconv.Atoi(versionParts[1])
	minorVersion, minorError := strconv.Atoi(versionParts[2])
	if majorError != nil || minorError != nil {
		return "", fmt.Errorf(invalidVersionFormat, ErrInvalidVersion, version)
	}
	if minorVersion < maximumMinorVersion {
		minorVersion++
	} else {
		minorVersion = 0
		majorVersion++
	}
	return versionParts[0] + "." + strconv.Itoa(majorVersion) + "." + strconv.Itoa(minorVersion), nil
}

// RecordBackup writes the incremented version and the backup timestamp back into the
// configuration file and returns the new version. XML and YAML files keep their comments.
func RecordBackup(configuration Configuration, backupTime time.Time) (string, error) {
	newVersion, versionError := IncrementVersion(configuration.Version)
	if versionError != nil {
		return "", versionError
	}
	created := utils.FormatBackupTimestamp(backupTime)
	path := configuration.FilePath

	var writeError error
	switch {
	case isXMLPath(path):
		writeError = updateXMLBookkeeping(path, newVersion, created)
	case isYAMLPath(path):
		writeError = updateYAMLBookkeeping(path, newVersion, created)
	default:
		writeError = updateStructuredBookkeeping(path, newVersion, created)
	}
	if writeError != nil {
		return "", writeError
	}
	return newVersion, nil
}

func isYAMLPath(path string) bool {
	lowerPath := strings.ToLower(path)
	return strings.HasSuffix(lowerPath, ".yaml") || strings.HasSuffix(lowerPath, ".yml")
}

func updateYAMLBookkeeping(path string, version string, created string) error {
	content, readError := os.ReadFile(path)
	if readError != nil {
		return fmt.Errorf(readBookkeepingFormat, path, readError)
	}
	var document yaml.Node
	if decodeError := yaml.Unmarshal(content, &document); decodeError != nil {
		return fmt.Errorf(readBookkeepingFormat, path, decodeError)
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 || document.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf(yamlDocumentFormat, path)
	}
	mapping := document.Content[0]
	setMappingString(mapping, versionKey, version)
	setMappingString(mapping, createdKey, created)

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndentSpaces)
	if encodeError := encoder.Encode(&document); encodeError != nil {
		return fmt.Errorf(writeBookkeepingFormat, path, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(writeBookkeepingFormat, path, closeError)
	}
	if writeError := os.WriteFile(path, buffer.Bytes(), configurationFilePermissions); writeError != nil {
		return fmt.Errorf(writeBookkeepingFormat, path, writeError)
	}
	return nil
}

func setMappingString(mapping *yaml.Node, key string, value string) {
	for index := 0; index+1 < len(mapping.Content); index += 2 {
		if mapping.Content[index].Value == key {
			valueNode := mapping.Content[index+1]
			valueNode.Kind = yaml.ScalarNode
			valueNode.Tag = stringTag
			valueNode.Value = value
			valueNode.Content = nil
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: stringTag, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: stringTag, Value: value},
	)
}

func updateStructuredBookkeeping(path string, version string, created string) error {
	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return fmt.Errorf(readBookkeepingFormat, path, readErr)
	}
	reader.Set(versionKey, version)
	reader.Set(createdKey, created)
	if writeErr := reader.WriteConfig(); writeErr != nil {
		return fmt.Errorf(writeBookkeepingFormat, path, writeErr)
	}
	return nil
}
