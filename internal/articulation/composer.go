package articulation

import (
	"fmt"
	"math/rand"
	"strings"

	"bizpilot/internal/types"
)

// =============================================================================
// RESPONSE COMPOSITION - Tone Detection, Acknowledgments, Humanization
// =============================================================================

// Tone classifies how the user is speaking this turn.
type Tone string

const (
	ToneUrgent       Tone = "urgent"
	ToneCasual       Tone = "casual"
	ToneProfessional Tone = "professional"
	ToneBrief        Tone = "brief"
	ToneFriendly     Tone = "friendly"
)

// briefLengthLimit is the character count under which a non-question message
// reads as terse.
const briefLengthLimit = 20

var (
	urgentMarkers = []string{"asap", "urgent", "right now", "immediately", "hurry", "emergency"}
	casualMarkers = []string{"hey", "yo", "lol", "haha", "btw", "gonna", "wanna"}
	politeMarkers = []string{"please", "kindly", "would you", "could you", "thank you"}
)

// DetectTone classifies the user's tone with ordered checks. Urgency beats
// casualness beats politeness; short non-questions read as brief; friendly
// is the default, checked last.
func DetectTone(message string) Tone {
	lower := strings.ToLower(message)
	for _, m := range urgentMarkers {
		if strings.Contains(lower, m) {
			return ToneUrgent
		}
	}
	for _, m := range casualMarkers {
		if strings.Contains(lower, m) {
			return ToneCasual
		}
	}
	for _, m := range politeMarkers {
		if strings.Contains(lower, m) {
			return ToneProfessional
		}
	}
	if len(strings.TrimSpace(message)) < briefLengthLimit && !strings.Contains(message, "?") {
		return ToneBrief
	}
	return ToneFriendly
}

// ackCategory groups user prompts so the acknowledgment can reference what
// the user actually asked for. Triggers are ordered substring checks; the
// first category whose trigger fires wins.
type ackCategory struct {
	name     string
	triggers []string
	phrases  []string
}

// defaultAckCategories returns the per-domain acknowledgment tables. Each
// category carries 2-3 pre-written phrasings to keep replies from sounding
// canned.
func defaultAckCategories() map[types.AgentDomain][]ackCategory {
	return map[types.AgentDomain][]ackCategory{
		types.AgentExecutiveAssistant: {
			{
				name:     "scheduling",
				triggers: []string{"schedule", "meeting", "calendar", "appointment"},
				phrases: []string{
					"On it. Let me get that scheduled for you.",
					"Sure thing, I'll take care of the scheduling.",
					"Got it, setting that up on your calendar now.",
				},
			},
			{
				name:     "email",
				triggers: []string{"email", "mail", "message"},
				phrases: []string{
					"I'll get that email drafted for you.",
					"On it, writing that up now.",
				},
			},
			{
				name:     "reminder",
				triggers: []string{"remind", "remember", "don't forget"},
				phrases: []string{
					"Noted, I'll make sure you don't forget.",
					"Got it, setting that reminder now.",
				},
			},
		},
		types.AgentContent: {
			{
				name:     "post",
				triggers: []string{"post", "caption", "content"},
				phrases: []string{
					"Let's make something great. Working on your post now.",
					"On it, putting together that post for you.",
					"Great idea. Drafting that content now.",
				},
			},
			{
				name:     "image",
				triggers: []string{"image", "photo", "picture", "visual"},
				phrases: []string{
					"Generating that image for you now.",
					"On it, creating the visual.",
				},
			},
		},
		types.AgentTransactionCoordinator: {
			{
				name:     "document",
				triggers: []string{"document", "contract", "agreement", "form"},
				phrases: []string{
					"I'll prepare that document right away.",
					"On it, getting the paperwork together.",
				},
			},
			{
				name:     "deadline",
				triggers: []string{"deadline", "closing", "due"},
				phrases: []string{
					"Let me check those dates for you.",
					"On it, pulling up the timeline now.",
				},
			},
		},
		types.AgentLeads: {
			{
				name:     "follow_up",
				triggers: []string{"follow up", "follow-up", "reach out"},
				phrases: []string{
					"Good call. Let's keep that lead warm.",
					"On it, preparing the follow-up now.",
				},
			},
			{
				name:     "pipeline",
				triggers: []string{"lead", "prospect", "pipeline"},
				phrases: []string{
					"Let me pull up your pipeline.",
					"On it, checking your leads now.",
				},
			},
		},
		types.AgentAdvisor: {
			{
				name:     "advice",
				triggers: []string{"advice", "should i", "strategy", "market", "pricing"},
				phrases: []string{
					"Good question. Let me think that through with you.",
					"Happy to weigh in on that.",
				},
			},
		},
	}
}

// genericAcks covers prompts no category matched, and the copilot domain.
var genericAcks = []string{
	"On it.",
	"Sure, let me help with that.",
	"Got it, one moment.",
}

// nextStepTable maps (actionType, agentDomain) to a follow-up suggestion.
// Missing entries mean no suggestion is offered.
var nextStepTable = map[types.AgentDomain]map[string]string{
	types.AgentContent: {
		"generate_post":  "Want me to generate a matching image for it?",
		"generate_image": "Want me to draft a caption to go with it?",
		"publish_post":   "Want me to schedule a follow-up post for next week?",
	},
	types.AgentExecutiveAssistant: {
		"schedule_meeting": "Want me to send the invite to the attendees?",
		"draft_email":      "Want me to set a reminder to follow up if there's no reply?",
		"send_email":       "Want me to set a reminder to follow up if there's no reply?",
	},
	types.AgentTransactionCoordinator: {
		"create_document": "Want me to set a deadline reminder for this transaction?",
	},
	types.AgentLeads: {
		"add_lead": "Want me to schedule a follow-up for this lead?",
	},
}

// toolConfirmations maps exact tool names to a confirmation sentence.
var toolConfirmations = map[string]string{
	"generate_post":    "Your post is ready.",
	"generate_image":   "Your image has been generated.",
	"publish_post":     "Your post has been published.",
	"save_draft":       "Draft saved.",
	"schedule_meeting": "Your meeting is on the calendar.",
	"draft_email":      "Your email draft is ready.",
	"send_email":       "Your email has been sent.",
	"set_reminder":     "Reminder set.",
	"create_document":  "Your document has been created.",
	"track_deadline":   "I'm now tracking that deadline.",
	"add_lead":         "Lead added to your pipeline.",
	"save_report":      "Report saved.",
}

const genericConfirmation = "Done. Let me know if you need anything else."

// Composer assembles the final user-visible message. The random index
// function is injectable so tests can pin acknowledgment selection.
type Composer struct {
	categories map[types.AgentDomain][]ackCategory
	pick       func(n int) int
}

// ComposerOption customizes a Composer.
type ComposerOption func(*Composer)

// WithPickFunc replaces the random phrase selector. The function receives
// the candidate count and must return an index in [0, n).
func WithPickFunc(pick func(n int) int) ComposerOption {
	return func(c *Composer) { c.pick = pick }
}

// NewComposer creates a composer. Phrase selection defaults to math/rand.
func NewComposer(opts ...ComposerOption) *Composer {
	c := &Composer{
		categories: defaultAckCategories(),
		pick:       rand.Intn,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acknowledge picks an acknowledgment phrase for the prompt. The prompt is
// classified into the first matching category for the agent's domain, then
// one of that category's phrasings is chosen by the pick function. Urgent
// tone gets a tighter lead-in.
func (c *Composer) Acknowledge(userPrompt string, agent types.AgentDomain, tone Tone) string {
	lower := strings.ToLower(userPrompt)

	phrases := genericAcks
	for _, cat := range c.categories[agent] {
		if containsAny(lower, cat.triggers) {
			phrases = cat.phrases
			break
		}
	}

	ack := phrases[c.pick(len(phrases))]
	if tone == ToneUrgent {
		ack = "Right away. " + ack
	}
	return ack
}

// NextStep returns the follow-up suggestion for an executed action. The
// second return is false when the table has no entry.
func (c *Composer) NextStep(actionType string, agent types.AgentDomain) (string, bool) {
	next, ok := nextStepTable[agent][actionType]
	return next, ok
}

// HumanizeToolResult turns a raw tool execution result into a short
// conversational confirmation. Recognized payload fields (subject, title,
// platform) add a detail clause; a table hit on the agent and tool adds a
// next-step suggestion.
func (c *Composer) HumanizeToolResult(toolName string, result map[string]any, agent types.AgentDomain) string {
	msg, ok := toolConfirmations[toolName]
	if !ok {
		msg = genericConfirmation
	}

	if detail := resultDetail(result); detail != "" {
		msg = msg + " " + detail
	}
	if next, ok := c.NextStep(toolName, agent); ok {
		msg = msg + " " + next
	}
	return msg
}

// Hedge phrases a soft confirmation: the classifier was fairly sure but not
// sure enough to act silently. The reply still proceeds this turn.
func (c *Composer) Hedge(intent string) string {
	readable := strings.ReplaceAll(intent, "_", " ")
	return fmt.Sprintf("Just to confirm, you'd like me to %s? I'll go ahead on that basis.", readable)
}

// ClarifyQuestion phrases the open question asked when confidence is too low
// to proceed at all.
func (c *Composer) ClarifyQuestion(agent types.AgentDomain) string {
	switch agent {
	case types.AgentExecutiveAssistant:
		return "I want to make sure I help with the right thing. Are you looking to schedule something, send an email, or set a reminder?"
	case types.AgentContent:
		return "Happy to help with content. Should I create a post, generate an image, or publish something you already have?"
	case types.AgentTransactionCoordinator:
		return "Could you tell me a bit more? Are you working on a document, or tracking a deadline?"
	case types.AgentLeads:
		return "Could you say more about what you need? I can follow up with a lead, qualify one, or add a new one."
	case types.AgentAdvisor:
		return "I'd like to understand better before advising. What decision are you weighing?"
	case types.AgentCopilot:
		return "Could you tell me a bit more about what you'd like to do?"
	}
	return "Could you tell me a bit more about what you'd like to do?"
}

// resultDetail extracts a human-readable clause from a recognized result
// field. Checked in a fixed order so output is deterministic.
func resultDetail(result map[string]any) string {
	if s, ok := result["subject"].(string); ok && s != "" {
		return fmt.Sprintf("Subject: %q.", s)
	}
	if s, ok := result["title"].(string); ok && s != "" {
		return fmt.Sprintf("Titled %q.", s)
	}
	if s, ok := result["platform"].(string); ok && s != "" {
		return fmt.Sprintf("It went out on %s.", s)
	}
	return ""
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
