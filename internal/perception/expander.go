package perception

import (
	"regexp"
	"strings"
	"unicode"

	"bizpilot/internal/logging"
	"bizpilot/internal/types"
)

// PhraseRule rewrites one idiom into an explicit instruction. Rules are
// applied in declaration order and each rule replaces only the first
// occurrence of its phrase.
type PhraseRule struct {
	Phrase    string
	Expansion string
}

// defaultPhraseRules is the ordered idiom dictionary. Longer idioms come
// before shorter overlapping ones so the most specific reading wins.
var defaultPhraseRules = []PhraseRule{
	{"make it pop", "enhance the visual design and color contrast"},
	{"jazz it up", "make the content more lively and engaging"},
	{"spice it up", "add more energy and interesting detail"},
	{"punch it up", "strengthen the wording and impact"},
	{"clean it up", "tidy the wording and formatting"},
	{"dumb it down", "simplify the language for a general audience"},
	{"make it shorter", "reduce the length while keeping the key points"},
	{"make it longer", "expand the content with more supporting detail"},
	{"tone it down", "soften the language and reduce the intensity"},
	{"from scratch", "starting over without reusing the previous result"},
	{"asap", "as soon as possible"},
}

// ExpansionMemory is the slice of session context the expander reads:
// what the user last asked for and what kind of artifact came back.
type ExpansionMemory struct {
	LastIntent     string
	LastContext    *types.IntentContext
	LastOutputType types.OutputType
}

// Expander rewrites shorthand, pronoun-laden input into an explicit
// instruction using a fixed phrase dictionary plus short-term output-type
// memory. It never fails; with no memory, steps that need it are skipped.
type Expander struct {
	rules []PhraseRule
}

// NewExpander creates an Expander with the default idiom dictionary.
func NewExpander() *Expander {
	return &Expander{rules: defaultPhraseRules}
}

// NewExpanderWithRules creates an Expander with a custom ordered dictionary.
func NewExpanderWithRules(rules []PhraseRule) *Expander {
	return &Expander{rules: rules}
}

var pronounRe = regexp.MustCompile(`\b(it|that|those|this)\b`)

// Expand rewrites the raw message into an explicit instruction. mem may be
// nil when there is no prior turn to draw on.
func (e *Expander) Expand(raw string, mem *ExpansionMemory) string {
	base := strings.TrimSpace(strings.ToLower(raw))
	expanded := base

	for _, rule := range e.rules {
		expanded = strings.Replace(expanded, rule.Phrase, rule.Expansion, 1)
	}

	if mem != nil && mem.LastIntent != "" &&
		(strings.Contains(expanded, "repeat") || strings.Contains(expanded, "again")) {
		clause := ". Previously I asked for: " + mem.LastIntent
		if mem.LastContext != nil && !mem.LastContext.Empty() {
			clause += " (" + mem.LastContext.Describe() + ")"
		}
		expanded += clause
	}

	if mem != nil && mem.LastOutputType.Known() && pronounRe.MatchString(expanded) {
		expanded = pronounRe.ReplaceAllString(expanded, mem.LastOutputType.NounPhrase())
	}

	if expanded == base {
		if len(strings.Fields(base)) <= 3 {
			// Too terse to expand: hand the raw request through and ask
			// the model to offer alternatives rather than guess.
			return strings.TrimSpace(raw) +
				". If the request is unclear, suggest related actions I can take."
		}
	}

	logging.PerceptionDebug("prompt expanded: %d -> %d chars", len(raw), len(expanded))
	return capitalizeFirst(expanded)
}

func capitalizeFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
