// Package output renders command reports as raw text, JSON or XML.
package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/temirov/backupfiles/internal/types"
	"github.com/temirov/backupfiles/internal/utils"
)

const (
	// FormatRaw is the human-readable report.
	FormatRaw = "raw"
	// FormatJSON renders reports as indented JSON.
	FormatJSON = "json"
	// FormatXML renders reports as indented XML.
	FormatXML = "xml"

	indentPrefix = ""
	indentSpacer = "  "
	xmlHeader    = xml.Header

	unsupportedFormatErrorFormat = "unsupported output format %q"
	encodeReportErrorFormat      = "encode %s report: %w"
)

// BackupReport describes a completed backup.
type BackupReport struct {
	XMLName         xml.Name        `json:"-" xml:"backup"`
	Archive         string          `json:"archive,omitempty" xml:"archive,omitempty"`
	Zip             string          `json:"zip,omitempty" xml:"zip,omitempty"`
	Version         string          `json:"version,omitempty" xml:"version,omitempty"`
	Model           string          `json:"model,omitempty" xml:"model,omitempty"`
	Removed         []string        `json:"removed,omitempty" xml:"removed>path,omitempty"`
	UpdateAvailable string          `json:"update_available,omitempty" xml:"update_available,omitempty"`
	Stats           types.ScanStats `json:"stats" xml:"stats"`
}

// PreviewReport describes a tree preview.
type PreviewReport struct {
	XMLName xml.Name        `json:"-" xml:"preview"`
	Tree    string          `json:"tree" xml:"tree"`
	Stats   types.ScanStats `json:"stats" xml:"stats"`
}

// RestoreReport describes a completed restore.
type RestoreReport struct {
	XMLName     xml.Name `json:"-" xml:"restore"`
	Destination string   `json:"destination" xml:"destination"`
	Restored    []string `json:"restored" xml:"restored>path"`
	Failures    int      `json:"failures" xml:"failures"`
}

// CleanupReport describes a retention pass.
type CleanupReport struct {
	XMLName xml.Name `json:"-" xml:"cleanup"`
	Kept    []string `json:"kept" xml:"kept>path"`
	Removed []string `json:"removed" xml:"removed>path"`
}

// ValidateFormat reports an error for unknown format names.
func ValidateFormat(format string) error {
	switch format {
	case FormatRaw, FormatJSON, FormatXML:
		return nil
	default:
		return fmt.Errorf(unsupportedFormatErrorFormat, format)
	}
}

// FormatSummaryLine formats packed file statistics into the summary line.
func FormatSummaryLine(stats types.ScanStats, model string) string {
	label := "files"
	if stats.Packed == 1 {
		label = "file"
	}
	extra := ""
	if stats.PackedTokens > 0 {
		extra = fmt.Sprintf(", %d tokens", stats.PackedTokens)
	}
	modelSuffix := ""
	if model != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", model)
	}
	return fmt.Sprintf("Summary: %d %s, %s%s%s", stats.Packed, label, utils.FormatFileSize(stats.PackedBytes), extra, modelSuffix)
}

// WriteBackupReport renders report in format.
func WriteBackupReport(writer io.Writer, format string, report BackupReport) error {
	return writeStructured(writer, format, report, func() {
		switch {
		case report.Zip != "" && report.Archive != "":
			fmt.Fprintf(writer, "Backup written to %s and %s\n", report.Archive, report.Zip)
		case report.Zip != "":
			fmt.Fprintf(writer, "Backup written to %s\n", report.Zip)
		default:
			fmt.Fprintf(writer, "Backup written to %s\n", report.Archive)
		}
		fmt.Fprintln(writer, FormatSummaryLine(report.Stats, report.Model))
		fmt.Fprintf(writer, "Files: %s\n", report.Stats.Describe())
		if report.Version != "" {
			fmt.Fprintf(writer, "Version updated to %s\n", report.Version)
		}
		for _, removedPath := range report.Removed {
			fmt.Fprintf(writer, "Removed old backup %s\n", removedPath)
		}
		if report.UpdateAvailable != "" {
			fmt.Fprintf(writer, "Update available: %s\n", report.UpdateAvailable)
		}
	})
}

// WritePreviewReport renders report in format.
func WritePreviewReport(writer io.Writer, format string, report PreviewReport) error {
	return writeStructured(writer, format, report, func() {
		fmt.Fprint(writer, report.Tree)
		fmt.Fprintln(writer)
		fmt.Fprintf(writer, "Files: %s\n", report.Stats.Describe())
	})
}

// WriteRestoreReport renders report in format.
func WriteRestoreReport(writer io.Writer, format string, report RestoreReport) error {
	return writeStructured(writer, format, report, func() {
		for _, restoredPath := range report.Restored {
			fmt.Fprintf(writer, "Created file: %s\n", restoredPath)
		}
		fmt.Fprintf(writer, "Restored %d %s into %s\n", len(report.Restored), pluralFiles(len(report.Restored)), report.Destination)
		if report.Failures > 0 {
			fmt.Fprintf(writer, "Failed to restore %d %s\n", report.Failures, pluralFiles(report.Failures))
		}
	})
}

// WriteCleanupReport renders report in format.
func WriteCleanupReport(writer io.Writer, format string, report CleanupReport) error {
	return writeStructured(writer, format, report, func() {
		for _, removedPath := range report.Removed {
			fmt.Fprintf(writer, "Removed old backup %s\n", removedPath)
		}
		fmt.Fprintf(writer, "Kept %d %s, removed %d\n", len(report.Kept), pluralFiles(len(report.Kept)), len(report.Removed))
	})
}

func writeStructured(writer io.Writer, format string, report interface{}, writeRaw func()) error {
	switch format {
	case FormatRaw, "":
		writeRaw()
		return nil
	case FormatJSON:
		encoded, encodeError := json.MarshalIndent(report, indentPrefix, indentSpacer)
		if encodeError != nil {
			return fmt.Errorf(encodeReportErrorFormat, format, encodeError)
		}
		_, writeError := fmt.Fprintln(writer, string(encoded))
		return writeError
	case FormatXML:
		encoded, encodeError := xml.MarshalIndent(report, indentPrefix, indentSpacer)
		if encodeError != nil {
			return fmt.Errorf(encodeReportErrorFormat, format, encodeError)
		}
		_, writeError := fmt.Fprintln(writer, strings.TrimSuffix(xmlHeader, "\n")+"\n"+string(encoded))
		return writeError
	default:
		return fmt.Errorf(unsupportedFormatErrorFormat, format)
	}
}

func pluralFiles(count int) string {
	if count == 1 {
		return "file"
	}
	return "files"
}
