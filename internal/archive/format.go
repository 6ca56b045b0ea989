// Package archive writes and restores the plain text backup container.
package archive

import "strings"

const (
	// SectionSeparatorLine opens and closes every packed file block.
	SectionSeparatorLine = "-----------------------------------------"
	// DelimiterLine surrounds the path marker and the end marker of a block.
	DelimiterLine = "#########################################"
	// FilePathMarker prefixes the relative path that starts a block.
	FilePathMarker = "##>"
	// EndOfFileMarker closes a block.
	EndOfFileMarker = "## END OF FILE"

	lineTerminator = "\n"
)

// blockHeader returns the lines preceding a packed file's content.
func blockHeader(relativePath string) string {
	return strings.Join([]string{
		SectionSeparatorLine,
		DelimiterLine,
		FilePathMarker + relativePath,
		DelimiterLine,
	}, lineTerminator) + lineTerminator
}

// blockFooter returns the lines following a packed file's content.
func blockFooter() string {
	return strings.Join([]string{
		DelimiterLine,
		EndOfFileMarker,
		DelimiterLine,
		SectionSeparatorLine,
	}, lineTerminator) + lineTerminator
}
