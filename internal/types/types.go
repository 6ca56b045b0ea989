// Package types defines every cross-package data structure used by the backupfiles CLI.
package types

import (
	"strconv"
	"strings"
)

// SelectedFile is a file chosen by the scanner.
type SelectedFile struct {
	// Path is the absolute path on disk.
	Path string
	// RelativePath is the forward-slash path relative to the scan root.
	RelativePath string
	// TreeOnly files appear in the tree summary but their content is not packed.
	TreeOnly bool
}

// SelectionOutcome is the per-file result of a scan or pack decision.
type SelectionOutcome int

const (
	OutcomeIncluded SelectionOutcome = iota
	OutcomeExcludedByPath
	OutcomeSkippedByPattern
	OutcomeSkippedUnchanged
	OutcomeSkippedBySize
	OutcomeSkippedByAge
	OutcomeSkippedAsBinary
	OutcomeContentReadFailure
	OutcomePathNotFound
)

var selectionOutcomeNames = map[SelectionOutcome]string{
	OutcomeIncluded:           "included",
	OutcomeExcludedByPath:     "excluded by path",
	OutcomeSkippedByPattern:   "skipped by pattern",
	OutcomeSkippedUnchanged:   "skipped unchanged",
	OutcomeSkippedBySize:      "skipped by size",
	OutcomeSkippedByAge:       "skipped by age",
	OutcomeSkippedAsBinary:    "skipped as binary",
	OutcomeContentReadFailure: "content read failure",
	OutcomePathNotFound:       "path not found",
}

// String returns a human-readable outcome name.
func (outcome SelectionOutcome) String() string {
	if name, known := selectionOutcomeNames[outcome]; known {
		return name
	}
	return "unknown"
}

// ScanStats aggregates the counters of one scan and pack pass.
type ScanStats struct {
	// Scanned counts each candidate file once, including files beneath pruned directories.
	Scanned             int   `json:"scanned" xml:"scanned"`
	Included            int   `json:"included" xml:"included"`
	TreeOnly            int   `json:"tree_only" xml:"tree_only"`
	Excluded            int   `json:"excluded" xml:"excluded"`
	ExcludedDirectories int   `json:"excluded_directories" xml:"excluded_directories"`
	SkippedByPattern    int   `json:"skipped_by_pattern" xml:"skipped_by_pattern"`
	SkippedUnchanged    int   `json:"skipped_unchanged" xml:"skipped_unchanged"`
	SkippedBySize       int   `json:"skipped_by_size" xml:"skipped_by_size"`
	SkippedByAge        int   `json:"skipped_by_age" xml:"skipped_by_age"`
	SkippedBinary       int   `json:"skipped_binary" xml:"skipped_binary"`
	ReadFailures        int   `json:"read_failures" xml:"read_failures"`
	MissingPaths        int   `json:"missing_paths" xml:"missing_paths"`
	Packed              int   `json:"packed" xml:"packed"`
	PackedBytes         int64 `json:"packed_bytes" xml:"packed_bytes"`
	PackedTokens        int   `json:"packed_tokens" xml:"packed_tokens"`
}

// Record increments the counter matching outcome.
func (stats *ScanStats) Record(outcome SelectionOutcome) {
	switch outcome {
	case OutcomeIncluded:
		stats.Included++
	case OutcomeExcludedByPath:
		stats.Excluded++
	case OutcomeSkippedByPattern:
		stats.SkippedByPattern++
	case OutcomeSkippedUnchanged:
		stats.SkippedUnchanged++
	case OutcomeSkippedBySize:
		stats.SkippedBySize++
	case OutcomeSkippedByAge:
		stats.SkippedByAge++
	case OutcomeSkippedAsBinary:
		stats.SkippedBinary++
	case OutcomeContentReadFailure:
		stats.ReadFailures++
	case OutcomePathNotFound:
		stats.MissingPaths++
	}
}

// Describe renders the non-zero counters as a single comma separated line.
func (stats ScanStats) Describe() string {
	parts := []string{}
	appendCounter := func(label string, value int) {
		if value > 0 {
			parts = append(parts, label+": "+strconv.Itoa(value))
		}
	}
	appendCounter("scanned", stats.Scanned)
	appendCounter("included", stats.Included)
	appendCounter("tree only", stats.TreeOnly)
	appendCounter("excluded", stats.Excluded)
	appendCounter("excluded directories", stats.ExcludedDirectories)
	appendCounter("skipped by pattern", stats.SkippedByPattern)
	appendCounter("unchanged", stats.SkippedUnchanged)
	appendCounter("too large", stats.SkippedBySize)
	appendCounter("too old", stats.SkippedByAge)
	appendCounter("binary", stats.SkippedBinary)
	appendCounter("read failures", stats.ReadFailures)
	appendCounter("missing paths", stats.MissingPaths)
	appendCounter("packed", stats.Packed)
	if len(parts) == 0 {
		return "nothing scanned"
	}
	return strings.Join(parts, ", ")
}
