package event

import (
	"fmt"

	"github.com/rivo/uniseg"
)

// formatTimestamp renders an event's timestamp as a fixed-width, aligned
// field (e.g. " @     12.750000"). The timestamp column itself is ASCII-only
// and simply padded; Output pads the preceding Kind name column with
// PadToWidth instead, since a symbolic Kind string is plain ASCII but
// region/callpath names substituted into variant-specific fields downstream
// may not be.
func formatTimestamp(ts float64) string {
	return fmt.Sprintf(" @%14.6f", ts)
}

// DisplayWidth returns the user-perceived column width of s (grapheme
// clusters, not bytes or runes). PadToWidth uses it to align the Kind name
// column that Output writes.
func DisplayWidth(s string) int {
	return uniseg.StringWidth(s)
}

// PadToWidth right-pads s with spaces until it occupies at least width
// display columns.
func PadToWidth(s string, width int) string {
	w := DisplayWidth(s)
	if w >= width {
		return s
	}
	padding := make([]byte, width-w)
	for i := range padding {
		padding[i] = ' '
	}
	return s + string(padding)
}
