package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
)

const yamlConfigurationFixture = `project_name: Demo
version: app.1.5
created: "2024-03-10 12:00:00"
extensions:
  items:
    - .go
    - value: .md
      tree_only: true
    - value: .tmp
      enable: false
  groups:
    - name: Images
      tree_only: true
      items: [.png]
include_paths:
  - ./src
  - value: ./docs
    recursive: false
include_files:
  - ./Makefile !
exclude_paths:
  - ./backup
  - ./backup
max_file_size_mb: 2
max_file_age_days: 3
incremental: true
is_example: 0
`

const xmlConfigurationFixture = `<?xml version="1.0" encoding="utf-8"?>
<!-- kept comment -->
<configuration>
  <ProjectName>Legacy</ProjectName>
  <Version>v.1.99</Version>
  <extensions>
    <extension>.cs</extension>
    <group name="Media" tree_only="true">
      <extension>.png</extension>
      <extension enable="false">Thumbs.db</extension>
    </group>
  </extensions>
  <includePaths>
    <includePath>./src</includePath>
    <includePath tree_only="true" recursive="false">*/res</includePath>
  </includePaths>
  <includeFiles>
    <includeFile>./backup.web.config.xml !</includeFile>
  </includeFiles>
  <excludePaths>
    <excludePath>*/bin</excludePath>
  </excludePaths>
  <ResultFilenameMask>@PROJECTNAME.txt</ResultFilenameMask>
  <EnableZip>true</EnableZip>
  <DeleteUnziped>true</DeleteUnziped>
  <IsExample>0</IsExample>
</configuration>
`

func writeConfigurationFixture(testingInstance *testing.T, directory string, fileName string, content string) string {
	testingInstance.Helper()
	path := filepath.Join(directory, fileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		testingInstance.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadYAMLConfiguration(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	path := writeConfigurationFixture(testingInstance, directory, "backup.config.yaml", yamlConfigurationFixture)
	configuration, err := Load(path)
	if err != nil {
		testingInstance.Fatalf("Load error: %v", err)
	}
	if configuration.ProjectName != "Demo" || configuration.Version != "app.1.5" {
		testingInstance.Fatalf("unexpected identity %+v", configuration)
	}
	if configuration.UpdateCheckMinutes != defaultUpdateCheckMinutes || configuration.ResultFilenameMask != defaultResultFilenameMask {
		testingInstance.Fatalf("expected defaults, got %+v", configuration)
	}
	items := configuration.Extensions.Items
	if len(items) != 3 || items[0].Value != ".go" || !items[1].TreeOnly || items[2].Enabled() {
		testingInstance.Fatalf("unexpected items %+v", items)
	}
	if len(configuration.Extensions.Groups) != 1 || !configuration.Extensions.Groups[0].TreeOnly {
		testingInstance.Fatalf("unexpected groups %+v", configuration.Extensions.Groups)
	}
	if len(configuration.IncludePaths) != 2 || !configuration.IncludePaths[0].IsRecursive() || configuration.IncludePaths[1].IsRecursive() {
		testingInstance.Fatalf("unexpected include paths %+v", configuration.IncludePaths)
	}
	if len(configuration.ExcludePaths) != 1 {
		testingInstance.Fatalf("expected deduplicated exclude paths, got %v", configuration.ExcludePaths)
	}
	if configuration.FilePath != path || configuration.RootDirectory() != directory {
		testingInstance.Fatalf("unexpected file path %s", configuration.FilePath)
	}
	if err := configuration.Validate(); err != nil {
		testingInstance.Fatalf("Validate error: %v", err)
	}
}

func TestLoadJSONConfiguration(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	path := writeConfigurationFixture(testingInstance, directory, "backup.config.json", `{"project_name":"J","version":"j.0.1","extensions":{"items":[".js"]},"include_paths":["./lib"],"update_check_minutes":0}`)
	configuration, err := Load(path)
	if err != nil {
		testingInstance.Fatalf("Load error: %v", err)
	}
	if configuration.UpdateCheckMinutes != 0 || len(configuration.IncludePaths) != 1 || configuration.IncludePaths[0].Value != "./lib" {
		testingInstance.Fatalf("unexpected configuration %+v", configuration)
	}
}

func TestLoadXMLConfiguration(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	path := writeConfigurationFixture(testingInstance, directory, "backup.config.xml", xmlConfigurationFixture)
	configuration, err := Load(path)
	if err != nil {
		testingInstance.Fatalf("Load error: %v", err)
	}
	if configuration.ProjectName != "Legacy" || !configuration.EnableZip || !configuration.DeleteUnzipped || configuration.IsExample {
		testingInstance.Fatalf("unexpected configuration %+v", configuration)
	}
	if configuration.ResultPath != defaultResultPath || configuration.UpdateCheckTimeoutSeconds != defaultUpdateCheckTimeoutSeconds {
		testingInstance.Fatalf("expected defaults, got %+v", configuration)
	}
	groups := configuration.Extensions.Groups
	if len(configuration.Extensions.Items) != 1 || len(groups) != 1 || groups[0].Name != "Media" || groups[0].Items[1].Enabled() {
		testingInstance.Fatalf("unexpected extensions %+v", configuration.Extensions)
	}
	resPath := configuration.IncludePaths[1]
	if !resPath.TreeOnly || resPath.IsRecursive() || resPath.Value != "*/res" {
		testingInstance.Fatalf("unexpected include path %+v", resPath)
	}
	if configuration.IncludeFiles[0].Value != "./backup.web.config.xml !" {
		testingInstance.Fatalf("unexpected include file %+v", configuration.IncludeFiles)
	}
}

func TestLoadMissingConfiguration(testingInstance *testing.T) {
	_, err := Load(filepath.Join(testingInstance.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigurationNotFound) {
		testingInstance.Fatalf("expected ErrConfigurationNotFound, got %v", err)
	}
}

func TestValidate(testingInstance *testing.T) {
	enabledItems := ExtensionConfiguration{Items: []ConfigItem{{Value: ".go"}}}
	disabled := false
	testCases := []struct {
		name          string
		configuration Configuration
		expected      error
	}{
		{name: "example", configuration: Configuration{IsExample: true}, expected: ErrExampleConfiguration},
		{name: "missing version", configuration: Configuration{ProjectName: "p"}, expected: ErrIncompleteConfiguration},
		{name: "no include paths", configuration: Configuration{ProjectName: "p", Version: "a.1.0", Extensions: enabledItems}, expected: ErrIncompleteConfiguration},
		{
			name: "only disabled extensions",
			configuration: Configuration{
				ProjectName:  "p",
				Version:      "a.1.0",
				Extensions:   ExtensionConfiguration{Items: []ConfigItem{{Value: ".go", Enable: &disabled}}},
				IncludePaths: []ConfigItem{{Value: "."}},
			},
			expected: ErrIncompleteConfiguration,
		},
		{
			name: "only blank group extensions",
			configuration: Configuration{
				ProjectName:  "p",
				Version:      "a.1.0",
				Extensions:   ExtensionConfiguration{Groups: []ExtensionGroup{{Name: "Blank", Items: []ConfigItem{{Value: "  "}}}}},
				IncludePaths: []ConfigItem{{Value: "."}},
			},
			expected: ErrIncompleteConfiguration,
		},
		{
			name:          "group extensions only",
			configuration: Configuration{ProjectName: "p", Version: "a.1.0", Extensions: ExtensionConfiguration{Groups: []ExtensionGroup{{Name: "Code", Items: []ConfigItem{{Value: ".go"}}}}}, IncludePaths: []ConfigItem{{Value: "."}}},
			expected:      nil,
		},
		{
			name:          "valid",
			configuration: Configuration{ProjectName: "p", Version: "a.1.0", Extensions: enabledItems, IncludePaths: []ConfigItem{{Value: "."}}},
			expected:      nil,
		},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			err := testCase.configuration.Validate()
			if testCase.expected == nil && err != nil {
				subTest.Fatalf("unexpected error %v", err)
			}
			if testCase.expected != nil && !errors.Is(err, testCase.expected) {
				subTest.Fatalf("expected %v, got %v", testCase.expected, err)
			}
		})
	}
}

func TestScanOptions(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	path := writeConfigurationFixture(testingInstance, directory, "backup.config.yaml", yamlConfigurationFixture)
	configuration, err := Load(path)
	if err != nil {
		testingInstance.Fatalf("Load error: %v", err)
	}
	options, scanOptionsError := configuration.ScanOptions()
	if scanOptionsError != nil {
		testingInstance.Fatalf("ScanOptions error: %v", scanOptionsError)
	}
	if options.RootDirectory != directory || options.MaxFileSizeBytes != 2*1024*1024 || options.MaxFileAge != 72*time.Hour {
		testingInstance.Fatalf("unexpected options %+v", options)
	}
	expectedCutoff := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.Local)
	if !options.IncrementalCutoff.Equal(expectedCutoff) {
		testingInstance.Fatalf("expected cutoff %v, got %v", expectedCutoff, options.IncrementalCutoff)
	}
	if len(options.IncludeDirectories) != 2 || options.IncludeDirectories[1].Recursive {
		testingInstance.Fatalf("unexpected include directories %+v", options.IncludeDirectories)
	}
	if len(options.IncludeFiles) != 1 || options.IncludeFiles[0].Value != "./Makefile !" {
		testingInstance.Fatalf("unexpected include files %+v", options.IncludeFiles)
	}
	if _, matched := options.Rules.Match("docs/readme.md"); !matched {
		testingInstance.Fatalf("expected markdown rule")
	}
	if _, matched := options.Rules.Match("a.tmp"); matched {
		testingInstance.Fatalf("disabled rule must not match")
	}
}

func TestScanOptionsDisablesIncrementalOnBadTimestamp(testingInstance *testing.T) {
	configuration := Configuration{Incremental: true, Created: "last tuesday", FilePath: filepath.Join(testingInstance.TempDir(), "c.yaml")}
	options, err := configuration.ScanOptions()
	if err == nil {
		testingInstance.Fatalf("expected parse error")
	}
	if !options.IncrementalCutoff.IsZero() {
		testingInstance.Fatalf("expected no cutoff")
	}
}

func TestResolveConfigurationPath(testingInstance *testing.T) {
	testingInstance.Cleanup(xdg.Reload)
	testingInstance.Setenv("XDG_CONFIG_HOME", testingInstance.TempDir())
	xdg.Reload()

	workingDirectory := testingInstance.TempDir()
	resolution, err := ResolveConfigurationPath(LoadOptions{WorkingDirectory: workingDirectory})
	if err != nil {
		testingInstance.Fatalf("ResolveConfigurationPath error: %v", err)
	}
	if resolution.Exists || resolution.Path != filepath.Join(workingDirectory, "backup.config.yaml") {
		testingInstance.Fatalf("unexpected resolution %+v", resolution)
	}

	globalPath := GlobalConfigurationPath()
	if err := os.MkdirAll(filepath.Dir(globalPath), 0o755); err != nil {
		testingInstance.Fatalf("mkdir: %v", err)
	}
	writeConfigurationFixture(testingInstance, filepath.Dir(globalPath), filepath.Base(globalPath), yamlConfigurationFixture)
	resolution, err = ResolveConfigurationPath(LoadOptions{WorkingDirectory: workingDirectory})
	if err != nil || !resolution.Exists || resolution.Path != globalPath {
		testingInstance.Fatalf("expected global configuration, got %+v %v", resolution, err)
	}

	localXML := writeConfigurationFixture(testingInstance, workingDirectory, "backup.config.xml", xmlConfigurationFixture)
	resolution, err = ResolveConfigurationPath(LoadOptions{WorkingDirectory: workingDirectory})
	if err != nil || resolution.Path != localXML {
		testingInstance.Fatalf("expected local configuration, got %+v %v", resolution, err)
	}

	resolution, err = ResolveConfigurationPath(LoadOptions{WorkingDirectory: workingDirectory, ExplicitFilePath: "custom.toml"})
	if err != nil || !resolution.Explicit || resolution.Exists || resolution.Path != filepath.Join(workingDirectory, "custom.toml") {
		testingInstance.Fatalf("unexpected explicit resolution %+v %v", resolution, err)
	}
}

func TestIsConfigurationPath(testingInstance *testing.T) {
	for _, path := range []string{"a.yaml", "a.YML", "a.toml", "a.json", "a.XML"} {
		if !IsConfigurationPath(path) {
			testingInstance.Fatalf("expected %s to be a configuration path", path)
		}
	}
	for _, path := range []string{"a.txt", "a.zip", "a"} {
		if IsConfigurationPath(path) {
			testingInstance.Fatalf("expected %s not to be a configuration path", path)
		}
	}
}

func TestResultFileNameAndPattern(testingInstance *testing.T) {
	configuration := Configuration{
		ProjectName:        "Demo",
		Version:            "app.1.5",
		ResultPath:         "./out",
		ResultFilenameMask: defaultResultFilenameMask,
		FilePath:           filepath.Join("/work", "backup.config.yaml"),
	}
	backupTime := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.Local)
	if name := configuration.ResultFileName(backupTime); name != "Demo_app.1.5_20240102150405.bak.txt" {
		testingInstance.Fatalf("unexpected name %s", name)
	}
	if pattern := configuration.ResultFilePattern(); pattern != "Demo_*_*.bak.txt" {
		testingInstance.Fatalf("unexpected pattern %s", pattern)
	}
	expectedPath := filepath.Join("/work", "out", "Demo_app.1.5_20240102150405.bak.txt")
	if resultPath := configuration.ResultFilePath(backupTime); resultPath != expectedPath {
		testingInstance.Fatalf("expected %s, got %s", expectedPath, resultPath)
	}
	configuration.ResultFilenameMask = "#YYYY-MM-DD_hh.mm.ss#.txt"
	if name := configuration.ResultFileName(backupTime); name != "2024-01-02_15.04.05.txt" {
		testingInstance.Fatalf("unexpected name %s", name)
	}
	if !strings.HasPrefix(configuration.ResultDirectory(), filepath.Join("/work", "out")) {
		testingInstance.Fatalf("unexpected directory %s", configuration.ResultDirectory())
	}
}
