// Package bot parses command text and dispatches it to the services.
package bot

import "strings"

// Mobile keyboards substitute typographic quotes; normalize them before
// splitting so `/add Food “Nice dinner” 45` works.
var quoteNormalizer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‟", `"`,
	"‘", "'",
	"’", "'",
)

// SplitArgs splits command text on whitespace, keeping double-quoted runs
// together. Quotes are stripped from the result. An unterminated quote runs
// to the end of the input.
func SplitArgs(s string) []string {
	s = quoteNormalizer.Replace(s)

	var args []string
	var cur strings.Builder
	inQuote := false
	flushed := true

	flush := func() {
		if !flushed {
			args = append(args, cur.String())
			cur.Reset()
			flushed = true
		}
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			flushed = false
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			cur.WriteRune(r)
			flushed = false
		}
	}
	flush()
	return args
}
