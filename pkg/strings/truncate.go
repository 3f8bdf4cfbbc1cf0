package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the width descriptions are cut to in table output.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the smallest maxLen that leaves room for one rune plus "...".
const MinTruncateLen = 4

// TruncateDescription collapses all whitespace runs into single spaces and
// cuts the result to maxLen runes, marking the cut with "...".
// maxLen values below MinTruncateLen are raised to MinTruncateLen.
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
