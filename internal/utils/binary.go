package utils

const (
	// sniffLength defines the maximum number of bytes inspected when detecting binary content.
	sniffLength = 4096
	// maximumControlBytes is the number of control bytes tolerated in a text sample.
	maximumControlBytes = 4
)

// IsBinary reports whether the leading sniffLength bytes of data look binary: a NUL byte,
// or more than maximumControlBytes control bytes outside the tab..carriage-return range.
func IsBinary(data []byte) bool {
	if len(data) > sniffLength {
		data = data[:sniffLength]
	}
	controlByteCount := 0
	for _, byteValue := range data {
		if byteValue == 0 {
			return true
		}
		if byteValue < 0x09 || (byteValue > 0x0D && byteValue < 0x20) {
			controlByteCount++
			if controlByteCount > maximumControlBytes {
				return true
			}
		}
	}
	return false
}
