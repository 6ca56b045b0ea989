package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/backupfiles/internal/utils"
)

// TemplateFormat identifies the layout of a generated configuration template.
type TemplateFormat string

const (
	// TemplateFormatYAML writes a YAML configuration.
	TemplateFormatYAML TemplateFormat = "yaml"
	// TemplateFormatXML writes the legacy XML configuration.
	TemplateFormatXML TemplateFormat = "xml"

	configurationFilePermissions = 0o600
	configurationDirPermissions  = 0o755

	unsupportedFormatErrorFormat      = "unsupported configuration format %q"
	configurationExistsErrorFormat    = "configuration file already exists at %s"
	inspectConfigurationErrorFormat   = "inspect configuration path %s: %w"
	createConfigurationDirErrorFormat = "create configuration directory %s: %w"
	writeConfigurationErrorFormat     = "write configuration to %s: %w"

	yamlConfigurationTemplate = `# How to use this file
# 1. It defines which files and folders are included in the backup.
# 2. include_paths are scanned recursively unless recursive is false.
# 3. include_files are added explicitly. A value ending in "!" ignores exclude_paths.
# 4. exclude_paths are wildcard patterns such as "*.min.js" or "*/node_modules".
# 5. extensions select files by suffix or wildcard; tree_only lists them without content.
# 6. result_path and result_filename_mask decide where backups are written.
# 7. created is the last backup timestamp and is updated automatically.
# 8. update_check_minutes is the update check interval (0 disables it).
# 9. is_example: 1 disables work. Set it to 0 before use.
project_name: MyProject
version: 1.0.0
created: "%s"
update_check_minutes: 1440
update_check_timeout_seconds: 5
update_url: ""
extensions:
  items: []
  groups:
    - name: Web and Frontend
      items: [.html, .js, .ts, .tsx, .css, .scss, .less, .webmanifest, .map]
    - name: Programming Languages
      items: [.py, .cs, .csproj, .sln, .php, .rb, .go, .rs, .java, .kt, .swift, .dart]
    - name: Config and Automation
      items: [.config, .yaml, .yml, .json, .xml, .toml, .ini, .sh, .ps1, .bat, Dockerfile, Makefile]
    - name: Documentation
      items: [.md, .txt, .rst]
    - name: Images and Media
      tree_only: true
      items: [.png, .jpg, .jpeg, .webp, .gif, .ico, .svg, .mp4, .webm, .mp3, .wav]
    - name: Fonts
      tree_only: true
      items: [.woff, .woff2, .ttf, .otf, .eot]
    - name: Binary and Archives
      tree_only: true
      items: [.dll, .exe, .jar, .aar, .apk, .zip, .tar, .gz, .7z, .rar]
    - name: Security
      tree_only: true
      items: [.env, .crt, .pem, .key, .p12]
    - name: Design and System
      tree_only: true
      items:
        - .pdf
        - .psd
        - .DS_Store
        - value: Thumbs.db
          enable: false
        - .log
include_paths:
  - ./public
  - ./src
  - ./lib
  - ./assets
  - value: "*/res"
    tree_only: true
  - value: "*/bin"
    tree_only: true
include_files:
  - ./backup.config.yaml
exclude_paths:
  - ./backup
  - ./archive
  - "*/node_modules"
  - "*/vendor"
  - "*.min.js"
result_path: ./backup
result_filename_mask: "@PROJECTNAME_@VER_#YYYYMMDDhhmmss#.bak.txt"
enable_zip: false
delete_unzipped: false
max_file_size_mb: 0
max_file_age_days: 0
incremental: false
cleanup_keep_last: 0
is_example: 1
`

	xmlConfigurationTemplate = `<?xml version="1.0" encoding="utf-8"?>
<!--How to use this file
1. It defines which files and folders are included in the backup.
2. includePaths are scanned recursively unless recursive="false".
3. includeFiles are added explicitly. A value ending in "!" ignores excludePaths.
4. excludePaths are wildcard patterns such as *.min.js or */node_modules.
5. extensions select files by suffix or wildcard; tree_only lists them without content.
6. ResultPath and ResultFilenameMask decide where backups are written.
7. Created is the last backup timestamp and is updated automatically.
8. UpdateCheckMinutes is the update check interval (0 disables it).
9. IsExample=1 disables work. Set it to 0 before use.
-->
<configuration>
  <ProjectName>MyProject</ProjectName>
  <Version>1.0.0</Version>
  <Created>%s</Created>
  <UpdateCheckMinutes>1440</UpdateCheckMinutes>
  <UpdateCheckTimeoutSeconds>5</UpdateCheckTimeoutSeconds>
  <extensions>
    <group name="Web and Frontend">
      <extension>.html</extension>
      <extension>.js</extension>
      <extension>.ts</extension>
      <extension>.css</extension>
    </group>
    <group name="Programming Languages">
      <extension>.py</extension>
      <extension>.cs</extension>
      <extension>.go</extension>
      <extension>.java</extension>
    </group>
    <group name="Config and Documentation">
      <extension>.json</extension>
      <extension>.yaml</extension>
      <extension>.xml</extension>
      <extension>.md</extension>
      <extension>.txt</extension>
    </group>
    <group name="Images and Media" tree_only="true">
      <extension>.png</extension>
      <extension>.jpg</extension>
      <extension>.svg</extension>
      <extension enable="false">Thumbs.db</extension>
    </group>
  </extensions>
  <includePaths>
    <includePath>./public</includePath>
    <includePath>./src</includePath>
    <includePath tree_only="true">*/res</includePath>
  </includePaths>
  <includeFiles>
    <includeFile>./backup.config.xml</includeFile>
  </includeFiles>
  <excludePaths>
    <excludePath>./backup</excludePath>
    <excludePath>*/node_modules</excludePath>
    <excludePath>*.min.js</excludePath>
  </excludePaths>
  <ResultPath>./backup</ResultPath>
  <ResultFilenameMask>@PROJECTNAME_@VER_#YYYYMMDDhhmmss#.bak.txt</ResultFilenameMask>
  <EnableZip>false</EnableZip>
  <DeleteUnzipped>false</DeleteUnzipped>
  <IsExample>1</IsExample>
</configuration>
`
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	// Path is the destination file. Empty selects the default file name in WorkingDirectory.
	Path             string
	WorkingDirectory string
	Format           TemplateFormat
	Force            bool
	Now              func() time.Time
}

// TemplateFormatForPath picks the XML template for .xml paths and YAML otherwise.
func TemplateFormatForPath(path string) TemplateFormat {
	if isXMLPath(path) {
		return TemplateFormatXML
	}
	return TemplateFormatYAML
}

// RenderTemplate returns the example configuration in the requested format.
func RenderTemplate(format TemplateFormat, created time.Time) (string, error) {
	timestamp := utils.FormatBackupTimestamp(created)
	switch format {
	case TemplateFormatYAML, "":
		return fmt.Sprintf(yamlConfigurationTemplate, timestamp), nil
	case TemplateFormatXML:
		return fmt.Sprintf(xmlConfigurationTemplate, timestamp), nil
	default:
		return "", fmt.Errorf(unsupportedFormatErrorFormat, format)
	}
}

// InitializeConfiguration writes an example configuration and returns its path.
func InitializeConfiguration(options InitOptions) (string, error) {
	format := TemplateFormat(strings.ToLower(string(options.Format)))
	destinationPath := strings.TrimSpace(options.Path)
	if destinationPath == "" {
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			current, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf(determineWorkingDirectoryErrorFormat, err)
			}
			workingDirectory = current
		}
		fileName := utils.DefaultConfigurationFileNames[0]
		if format == TemplateFormatXML {
			fileName = utils.DefaultConfigurationFileNames[len(utils.DefaultConfigurationFileNames)-1]
		}
		destinationPath = filepath.Join(workingDirectory, fileName)
	} else if format == "" {
		format = TemplateFormatForPath(destinationPath)
	}

	nowFunction := options.Now
	if nowFunction == nil {
		nowFunction = time.Now
	}
	content, renderError := RenderTemplate(format, nowFunction())
	if renderError != nil {
		return "", renderError
	}

	if _, err := os.Stat(destinationPath); err == nil {
		if !options.Force {
			return "", fmt.Errorf(configurationExistsErrorFormat, destinationPath)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf(inspectConfigurationErrorFormat, destinationPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(destinationPath), configurationDirPermissions); err != nil {
		return "", fmt.Errorf(createConfigurationDirErrorFormat, filepath.Dir(destinationPath), err)
	}
	if err := os.WriteFile(destinationPath, []byte(content), configurationFilePermissions); err != nil {
		return "", fmt.Errorf(writeConfigurationErrorFormat, destinationPath, err)
	}
	return destinationPath, nil
}
