package perception

import (
	"regexp"
	"strings"
)

// fillerPhrases are stripped from user input before rule matching.
// Multi-word phrases are listed before the single words they contain so one
// pass removes them cleanly. Matching is whole-word and case-insensitive.
var fillerPhrases = []string{
	"hi there",
	"hey there",
	"can you",
	"could you",
	"would you",
	"will you",
	"you know",
	"for me",
	"please",
	"kindly",
	"hey",
	"hiya",
	"umm",
	"um",
	"uh",
	"basically",
	"actually",
	"like really",
}

var (
	fillerRe     *regexp.Regexp
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func init() {
	quoted := make([]string, len(fillerPhrases))
	for i, p := range fillerPhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	fillerRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Normalize lower-cases the raw message, removes filler words and phrases,
// collapses repeated whitespace, and trims. It is a pure function with no
// failure mode: empty in, empty out. Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	s = fillerRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
