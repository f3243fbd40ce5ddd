package perception

import (
	"regexp"
	"strings"

	"bizpilot/internal/logging"
	"bizpilot/internal/types"
)

// Rule-matcher constants. Scores are keyword-count based and capped below
// certainty so the clarification gate always has room to hedge.
const (
	maxRuleConfidence     = 0.95
	genericConfidence     = 0.7
	genericKeywordMinimum = 2
)

// Matcher scores normalized messages against an injected keyword taxonomy.
// The taxonomy is treated as immutable; construct a new Matcher to change
// tables (tests inject trimmed ones).
type Matcher struct {
	taxonomy []DomainTaxonomy
}

// NewMatcher creates a Matcher over the given taxonomy. Pass
// DefaultTaxonomy() for the built-in corpus.
func NewMatcher(taxonomy []DomainTaxonomy) *Matcher {
	return &Matcher{taxonomy: taxonomy}
}

// Match classifies a normalized message. currentAgent is the domain the
// conversation is already routed to; it only matters for the no-match
// default. The winning result always carries extracted secondary context.
//
// Tie-break is deterministic and documented: higher confidence wins, and at
// equal confidence the domain declared first in the taxonomy wins.
func (m *Matcher) Match(normalized string, currentAgent types.AgentDomain) types.IntentResult {
	best := types.IntentResult{
		Intent:     types.GeneralQueryIntent,
		Agent:      defaultAgent(currentAgent),
		Confidence: 0,
	}
	var genericHit *types.IntentResult

	for _, domain := range m.taxonomy {
		keywordMatches := countMatches(normalized, domain.Keywords)
		if keywordMatches == 0 {
			continue
		}

		scored := false
		for _, intent := range domain.Intents {
			intentMatches := countMatches(normalized, intent.Keywords)
			if intentMatches == 0 {
				continue
			}
			scored = true
			confidence := float64(keywordMatches+intentMatches) / 10
			if confidence > maxRuleConfidence {
				confidence = maxRuleConfidence
			}
			if confidence > best.Confidence {
				best = types.IntentResult{
					Intent:     intent.Name,
					Agent:      domain.Domain,
					Confidence: confidence,
				}
			}
		}

		if !scored && keywordMatches >= genericKeywordMinimum && genericHit == nil {
			genericHit = &types.IntentResult{
				Intent:     types.GeneralQueryIntent,
				Agent:      domain.Domain,
				Confidence: genericConfidence,
			}
		}
	}

	if genericHit != nil && genericHit.Confidence > best.Confidence {
		best = *genericHit
	}

	best.Context = ExtractContext(normalized)
	logging.PerceptionDebug("rule match: intent=%s agent=%s confidence=%.2f",
		best.Intent, best.Agent, best.Confidence)
	return best
}

// countMatches counts how many keywords appear as substrings of the message.
func countMatches(message string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(message, kw) {
			n++
		}
	}
	return n
}

func defaultAgent(current types.AgentDomain) types.AgentDomain {
	if current.Valid() {
		return current
	}
	return types.AgentCopilot
}

// =============================================================================
// SECONDARY CONTEXT EXTRACTION
// =============================================================================

var knownPlatforms = []string{"instagram", "facebook", "linkedin", "twitter", "tiktok", "youtube"}

var toneWords = []string{"professional", "casual", "friendly", "funny", "formal", "urgent", "luxury"}

// Timeframe phrases, longest first so "next week" beats "week".
var timeframePhrases = []string{
	"this weekend", "next weekend", "this week", "next week",
	"this month", "next month", "tomorrow", "tonight", "today",
}

var (
	topicRe  = regexp.MustCompile(`\b(?:about|regarding)\s+([^.,!?]+)`)
	targetRe = regexp.MustCompile(`\b(?:with|to)\s+([a-z]+)`)
)

// ExtractContext pulls secondary signals out of a normalized message:
// mentioned platforms, a tone word, a relative timeframe, and a loosely
// captured topic/target. It never fails; absent signals stay empty.
func ExtractContext(normalized string) types.IntentContext {
	var ctx types.IntentContext

	for _, p := range knownPlatforms {
		if strings.Contains(normalized, p) {
			ctx.Platforms = append(ctx.Platforms, p)
		}
	}
	for _, t := range toneWords {
		if strings.Contains(normalized, t) {
			ctx.Tone = t
			break
		}
	}
	for _, tf := range timeframePhrases {
		if strings.Contains(normalized, tf) {
			ctx.Timeframe = tf
			break
		}
	}
	if m := topicRe.FindStringSubmatch(normalized); len(m) > 1 {
		ctx.Topic = strings.TrimSpace(m[1])
	}
	if m := targetRe.FindStringSubmatch(normalized); len(m) > 1 {
		ctx.Target = m[1]
	}
	return ctx
}
