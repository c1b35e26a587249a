package reconcile

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// fallbackBaseName is used when sanitizing a description leaves nothing.
const fallbackBaseName = "report"

// timestampLayout renders the artifact timestamp at second resolution,
// e.g. "20260114_221005".
const timestampLayout = "20060102_150405"

// reportFilename builds the filename for a downloaded report artifact:
// the sanitized target description, the timestamp, and the extension,
// e.g. "Production_App_20260114_221005.html". The timestamp keeps
// repeated downloads of the same target from overwriting each other.
func reportFilename(description string, now time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(description), now.Format(timestampLayout), ext)
}

// sanitizeFilename rewrites a target description into a name safe on any
// filesystem. Letters and digits in any script pass through, as do '-',
// '_', and '.'; every other rune becomes '_'. An empty description falls
// back to "report".
//
// Operators name targets freely ("My App: v2 (staging)", URLs, paths),
// so the input must be treated as hostile to the filesystem.
func sanitizeFilename(description string) string {
	var b strings.Builder
	b.Grow(len(description))

	for _, r := range description {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	if b.Len() == 0 {
		return fallbackBaseName
	}
	return b.String()
}
