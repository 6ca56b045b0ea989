package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func createBackup(testingInstance *testing.T, directory string, name string, modification time.Time) {
	testingInstance.Helper()
	path := filepath.Join(directory, name)
	if err := os.WriteFile(path, []byte(name), 0o600); err != nil {
		testingInstance.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, modification, modification); err != nil {
		testingInstance.Fatalf("chtimes %s: %v", name, err)
	}
}

func remainingFiles(testingInstance *testing.T, directory string) []string {
	testingInstance.Helper()
	entries, err := os.ReadDir(directory)
	if err != nil {
		testingInstance.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func TestKeepLastRemovesOlderBackups(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)
	for day := 1; day <= 5; day++ {
		name := fmt.Sprintf("Demo_1.0.%d_2024010%d120000.bak.txt", day, day)
		createBackup(testingInstance, directory, name, base.AddDate(0, 0, day))
	}
	createBackup(testingInstance, directory, "notes.txt", base)

	result, err := KeepLast(Options{Directory: directory, Pattern: "Demo_*_*.bak.txt", KeepLast: 2})
	if err != nil {
		testingInstance.Fatalf("KeepLast error: %v", err)
	}
	if len(result.Kept) != 2 || len(result.Removed) != 3 {
		testingInstance.Fatalf("unexpected result %+v", result)
	}
	expected := []string{
		"Demo_1.0.4_20240104120000.bak.txt",
		"Demo_1.0.5_20240105120000.bak.txt",
		"notes.txt",
	}
	remaining := remainingFiles(testingInstance, directory)
	if len(remaining) != len(expected) {
		testingInstance.Fatalf("expected %v, got %v", expected, remaining)
	}
	for index := range expected {
		if remaining[index] != expected[index] {
			testingInstance.Fatalf("expected %v, got %v", expected, remaining)
		}
	}
}

func TestKeepLastCountsZippedBackups(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)
	createBackup(testingInstance, directory, "Demo_a_1.bak.txt.zip", base.Add(time.Hour))
	createBackup(testingInstance, directory, "Demo_a_2.bak.txt", base.Add(2*time.Hour))
	createBackup(testingInstance, directory, "Demo_a_0.bak.txt.zip", base)

	result, err := KeepLast(Options{Directory: directory, Pattern: "Demo_*_*.bak.txt", KeepLast: 2})
	if err != nil {
		testingInstance.Fatalf("KeepLast error: %v", err)
	}
	if len(result.Removed) != 1 || filepath.Base(result.Removed[0]) != "Demo_a_0.bak.txt.zip" {
		testingInstance.Fatalf("unexpected removal %+v", result.Removed)
	}
}

func TestKeepLastTreatsArchiveAndZipAsOneBackup(testingInstance *testing.T) {
	directory := testingInstance.TempDir()
	base := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)
	for index := 1; index <= 3; index++ {
		name := fmt.Sprintf("Demo_1.0.%d_2024010%d120000.bak.txt", index, index)
		modification := base.AddDate(0, 0, index)
		createBackup(testingInstance, directory, name, modification)
		createBackup(testingInstance, directory, name+".zip", modification.Add(time.Second))
	}

	result, err := KeepLast(Options{Directory: directory, Pattern: "Demo_*_*.bak.txt", KeepLast: 2})
	if err != nil {
		testingInstance.Fatalf("KeepLast error: %v", err)
	}
	if len(result.Kept) != 4 || len(result.Removed) != 2 {
		testingInstance.Fatalf("unexpected result %+v", result)
	}
	expected := []string{
		"Demo_1.0.2_20240102120000.bak.txt",
		"Demo_1.0.2_20240102120000.bak.txt.zip",
		"Demo_1.0.3_20240103120000.bak.txt",
		"Demo_1.0.3_20240103120000.bak.txt.zip",
	}
	remaining := remainingFiles(testingInstance, directory)
	if len(remaining) != len(expected) {
		testingInstance.Fatalf("expected %v, got %v", expected, remaining)
	}
	for index := range expected {
		if remaining[index] != expected[index] {
			testingInstance.Fatalf("expected %v, got %v", expected, remaining)
		}
	}
}

func TestKeepLastDisabled(testingInstance *testing.T) {
	testCases := []struct {
		name    string
		options Options
	}{
		{name: "zero keep", options: Options{Directory: testingInstance.TempDir(), Pattern: "*", KeepLast: 0}},
		{name: "empty pattern", options: Options{Directory: testingInstance.TempDir(), KeepLast: 1}},
		{name: "missing directory", options: Options{Directory: filepath.Join(testingInstance.TempDir(), "absent"), Pattern: "*", KeepLast: 1}},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			result, err := KeepLast(testCase.options)
			if err != nil || len(result.Removed) != 0 || len(result.Kept) != 0 {
				subTest.Fatalf("expected no-op, got %+v %v", result, err)
			}
		})
	}
}
