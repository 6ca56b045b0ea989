package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestIncrementVersion(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		version  string
		expected string
		err      error
	}{
		{name: "minor bump", version: "app.1.5", expected: "app.1.6"},
		{name: "minor rollover", version: "v.1.99", expected: "v.2.0"},
		{name: "numeric prefix", version: "1.0.0", expected: "1.0.1"},
		{name: "two parts", version: "1.0", err: ErrInvalidVersion},
		{name: "non numeric", version: "a.b.c", err: ErrInvalidVersion},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			result, err := IncrementVersion(testCase.version)
			if testCase.err != nil {
				if !errors.Is(err, testCase.err) {
					subTest.Fatalf("expected %v, got %v", testCase.err, err)
				}
				return
			}
			if err != nil || result != testCase.expected {
				subTest.Fatalf("expected %s, got %s (%v)", testCase.expected, result, err)
			}
		})
	}
}

var bookkeepingTime = time.Date(2025, time.February, 3, 4, 5, 6, 0, time.Local)

func TestRecordBackupYAMLKeepsComments(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	path := writeConfigurationFixture(testingInstance, directory, "backup.config.yaml", "# leading comment\n"+yamlConfigurationFixture)
	configuration, err := Load(path)
	if err != nil {
		testingInstance.Fatalf("Load error: %v", err)
	}
	newVersion, recordErr := RecordBackup(configuration, bookkeepingTime)
	if recordErr != nil || newVersion != "app.1.6" {
		testingInstance.Fatalf("unexpected result %s %v", newVersion, recordErr)
	}
	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "# leading comment") {
		testingInstance.Fatalf("expected comment to survive, got\n%s", content)
	}
	reloaded, reloadErr := Load(path)
	if reloadErr != nil {
		testingInstance.Fatalf("reload error: %v", reloadErr)
	}
	if reloaded.Version != "app.1.6" || reloaded.Created != "2025-02-03 04:05:06" {
		testingInstance.Fatalf("unexpected bookkeeping %s %s", reloaded.Version, reloaded.Created)
	}
}

func TestRecordBackupXMLInsertsCreated(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	path := writeConfigurationFixture(testingInstance, directory, "backup.config.xml", xmlConfigurationFixture)
	configuration, err := Load(path)
	if err != nil {
		testingInstance.Fatalf("Load error: %v", err)
	}
	newVersion, recordErr := RecordBackup(configuration, bookkeepingTime)
	if recordErr != nil || newVersion != "v.2.0" {
		testingInstance.Fatalf("unexpected result %s %v", newVersion, recordErr)
	}
	content, _ := os.ReadFile(path)
	text := string(content)
	if !strings.Contains(text, "<!-- kept comment -->") {
		testingInstance.Fatalf("expected comment to survive, got\n%s", text)
	}
	if strings.Index(text, "<Created>") < strings.Index(text, "<Version>") {
		testingInstance.Fatalf("expected Created after Version, got\n%s", text)
	}
	reloaded, reloadErr := Load(path)
	if reloadErr != nil || reloaded.Created != "2025-02-03 04:05:06" || reloaded.Version != "v.2.0" {
		testingInstance.Fatalf("unexpected reload %+v %v", reloaded, reloadErr)
	}
}

func TestRecordBackupJSON(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	path := writeConfigurationFixture(testingInstance, directory, "backup.config.json", `{"project_name":"J","version":"j.0.1"}`)
	configuration, err := Load(path)
	if err != nil {
		testingInstance.Fatalf("Load error: %v", err)
	}
	if _, recordErr := RecordBackup(configuration, bookkeepingTime); recordErr != nil {
		testingInstance.Fatalf("RecordBackup error: %v", recordErr)
	}
	reloaded, reloadErr := Load(path)
	if reloadErr != nil || reloaded.Version != "j.0.2" || reloaded.Created != "2025-02-03 04:05:06" {
		testingInstance.Fatalf("unexpected reload %+v %v", reloaded, reloadErr)
	}
}

func TestRecordBackupRejectsInvalidVersion(testingInstance *testing.T) {
	configuration := Configuration{Version: "1.0", FilePath: "unused.yaml"}
	if _, err := RecordBackup(configuration, bookkeepingTime); !errors.Is(err, ErrInvalidVersion) {
		testingInstance.Fatalf("expected ErrInvalidVersion, got %v", err)
	}
}
