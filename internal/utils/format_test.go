package utils_test

import (
	"testing"
	"time"

	"github.com/temirov/backupfiles/internal/utils"
)

func TestFormatFileSize(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{name: "negative", bytes: -1, expected: "0b"},
		{name: "zero", bytes: 0, expected: "0b"},
		{name: "bytes", bytes: 512, expected: "512b"},
		{name: "one kilobyte", bytes: 1024, expected: "1kb"},
		{name: "fractional kilobyte", bytes: 1536, expected: "1.5kb"},
		{name: "ten megabytes", bytes: 10 * 1024 * 1024, expected: "10mb"},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			result := utils.FormatFileSize(testCase.bytes)
			if result != testCase.expected {
				subTest.Fatalf("expected %s, got %s", testCase.expected, result)
			}
		})
	}
}

func TestMegabytesToBytes(testingInstance *testing.T) {
	if result := utils.MegabytesToBytes(0); result != 0 {
		testingInstance.Fatalf("expected 0, got %d", result)
	}
	if result := utils.MegabytesToBytes(-3); result != 0 {
		testingInstance.Fatalf("expected 0, got %d", result)
	}
	if result := utils.MegabytesToBytes(2); result != 2*1024*1024 {
		testingInstance.Fatalf("expected %d, got %d", 2*1024*1024, result)
	}
}

func TestBackupTimestampRoundTrip(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		value    time.Time
		expected string
	}{
		{
			name:     "zero time",
			value:    time.Time{},
			expected: "",
		},
		{
			name:     "local timestamp",
			value:    time.Date(2024, time.January, 2, 15, 4, 5, 0, time.Local),
			expected: "2024-01-02 15:04:05",
		},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subTest *testing.T) {
			result := utils.FormatBackupTimestamp(testCase.value)
			if result != testCase.expected {
				subTest.Fatalf("expected %s, got %s", testCase.expected, result)
			}
			if result == "" {
				return
			}
			parsed, parseError := utils.ParseBackupTimestamp(" " + result + " ")
			if parseError != nil {
				subTest.Fatalf("unexpected parse error: %v", parseError)
			}
			if !parsed.Equal(testCase.value) {
				subTest.Fatalf("expected %v, got %v", testCase.value, parsed)
			}
		})
	}
}

func TestParseBackupTimestampRejectsMalformedValue(testingInstance *testing.T) {
	if _, parseError := utils.ParseBackupTimestamp("yesterday"); parseError == nil {
		testingInstance.Fatalf("expected parse error")
	}
}
