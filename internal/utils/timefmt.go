package utils

import (
	"strings"
	"time"
)

// BackupTimestampLayout is the layout of the "created" configuration value.
const BackupTimestampLayout = "2006-01-02 15:04:05"

// FormatBackupTimestamp formats value in the local time zone using BackupTimestampLayout.
func FormatBackupTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.In(time.Local).Format(BackupTimestampLayout)
}

// ParseBackupTimestamp parses a BackupTimestampLayout value as local time.
func ParseBackupTimestamp(value string) (time.Time, error) {
	return time.ParseInLocation(BackupTimestampLayout, strings.TrimSpace(value), time.Local)
}
