// Package types defines the shared data model for the dialogue orchestration
// pipeline: agent domains, intents, actions, content previews, and session
// context. Everything here is in-process data exchanged with collaborators;
// no wire format is owned by this package.
package types

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// AGENT DOMAINS
// =============================================================================

// AgentDomain identifies one of the fixed specialist behavior profiles.
// The set is closed: routing code switches exhaustively over these values so
// adding a domain is a compile-time-checked change.
type AgentDomain string

const (
	AgentExecutiveAssistant     AgentDomain = "executive_assistant"
	AgentContent                AgentDomain = "content_agent"
	AgentTransactionCoordinator AgentDomain = "transaction_coordinator"
	AgentLeads                  AgentDomain = "leads_agent"
	AgentAdvisor                AgentDomain = "advisor"
	AgentCopilot                AgentDomain = "copilot"
)

// MatchingDomains lists the five domains the rule matcher scores against.
// Copilot is the general default and has no keyword taxonomy of its own.
var MatchingDomains = []AgentDomain{
	AgentExecutiveAssistant,
	AgentContent,
	AgentTransactionCoordinator,
	AgentLeads,
	AgentAdvisor,
}

// Valid reports whether d is one of the known agent domains.
func (d AgentDomain) Valid() bool {
	switch d {
	case AgentExecutiveAssistant, AgentContent, AgentTransactionCoordinator,
		AgentLeads, AgentAdvisor, AgentCopilot:
		return true
	}
	return false
}

// ParseAgentDomain maps a string to an AgentDomain, falling back to copilot
// for anything unknown. The fallback keeps classifier output safe to route.
func ParseAgentDomain(s string) AgentDomain {
	d := AgentDomain(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d
	}
	return AgentCopilot
}

// =============================================================================
// INTENT
// =============================================================================

// GeneralQueryIntent is the catch-all intent used when no specific intent
// matched, or when the fallback classifier could not produce one.
const GeneralQueryIntent = "general_query"

// IntentContext carries secondary signals extracted alongside an intent.
// All fields are optional; empty means the signal was absent.
type IntentContext struct {
	Topic     string   `json:"topic,omitempty"`
	Tone      string   `json:"tone,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
	Timeframe string   `json:"timeframe,omitempty"`
	Target    string   `json:"target,omitempty"`
}

// Empty reports whether no secondary signal was captured.
func (c IntentContext) Empty() bool {
	return c.Topic == "" && c.Tone == "" && len(c.Platforms) == 0 &&
		c.Timeframe == "" && c.Target == ""
}

// Describe serializes the context into a short human-readable clause, used
// when re-stating a prior request ("do that again").
func (c IntentContext) Describe() string {
	var parts []string
	if c.Topic != "" {
		parts = append(parts, "topic "+c.Topic)
	}
	if c.Target != "" {
		parts = append(parts, "target "+c.Target)
	}
	if c.Tone != "" {
		parts = append(parts, c.Tone+" tone")
	}
	if len(c.Platforms) > 0 {
		parts = append(parts, "platforms "+strings.Join(c.Platforms, ", "))
	}
	if c.Timeframe != "" {
		parts = append(parts, "timeframe "+c.Timeframe)
	}
	return strings.Join(parts, "; ")
}

// IntentResult is the classified goal of one user message. Produced fresh per
// turn and never persisted beyond the session.
type IntentResult struct {
	Intent     string        `json:"intent"`
	Agent      AgentDomain   `json:"agent"`
	Confidence float64       `json:"confidence"`
	Context    IntentContext `json:"context"`
}

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// OutputType names the kind of artifact the assistant last produced.
// Only these kinds may be recorded on the session; unknown kinds must not
// overwrite the last known value.
type OutputType string

const (
	OutputPost     OutputType = "post"
	OutputEmail    OutputType = "email"
	OutputDocument OutputType = "document"
	OutputImage    OutputType = "image"
	OutputMeeting  OutputType = "meeting"
	OutputReminder OutputType = "reminder"
)

// Known reports whether t is a recognized output type.
func (t OutputType) Known() bool {
	switch t {
	case OutputPost, OutputEmail, OutputDocument, OutputImage, OutputMeeting, OutputReminder:
		return true
	}
	return false
}

// NounPhrase returns the human-readable phrase substituted for bare pronouns
// referring to this output type.
func (t OutputType) NounPhrase() string {
	switch t {
	case OutputPost:
		return "the last generated social post"
	case OutputEmail:
		return "the last drafted email"
	case OutputDocument:
		return "the last created document"
	case OutputImage:
		return "the last generated image"
	case OutputMeeting:
		return "the last scheduled meeting"
	case OutputReminder:
		return "the last created reminder"
	}
	return ""
}

// =============================================================================
// ACTIONS
// =============================================================================

// Action is a proposed or confirmed executable operation surfaced to the
// user. Key is the dedup identity; rebuilt every turn from the reply text.
type Action struct {
	Key       string         `json:"key"`
	Label     string         `json:"label"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args,omitempty"`
	Suggested bool           `json:"suggested"`
}

// Identity returns the consolidation key: the tool name when present,
// otherwise the label.
func (a Action) Identity() string {
	if a.Tool != "" {
		return a.Tool
	}
	return a.Label
}

// Integration is one entry of the user's connected external services,
// consumed read-only to gate platform-specific actions.
type Integration struct {
	Service string `json:"service"`
	Status  string `json:"status"`
}

// Connected reports whether the integration is usable.
func (i Integration) Connected() bool {
	return strings.EqualFold(i.Status, "connected") || strings.EqualFold(i.Status, "active")
}

// =============================================================================
// CONTENT PREVIEWS
// =============================================================================

// PreviewType discriminates the structured artifacts detectable in a reply.
type PreviewType string

const (
	PreviewContentPost PreviewType = "content_post"
	PreviewEmail       PreviewType = "email"
	PreviewDocument    PreviewType = "document"
)

// PostPreview is a publishable social post extracted from a reply.
type PostPreview struct {
	ImageURL string `json:"imageUrl,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Hashtags string `json:"hashtags,omitempty"`
}

// EmailPreview is a drafted email extracted from a reply.
type EmailPreview struct {
	Subject   string `json:"subject"`
	Recipient string `json:"recipient,omitempty"`
	Body      string `json:"body,omitempty"`
}

// DocumentPreview is a document artifact referenced by a reply.
type DocumentPreview struct {
	Title string `json:"title,omitempty"`
}

// ContentPreview is a structured extraction of a publishable artifact.
// At most one preview is attached per assistant turn; exactly one of the
// typed fields is populated, matching Type.
type ContentPreview struct {
	Type     PreviewType      `json:"type"`
	Post     *PostPreview     `json:"post,omitempty"`
	Email    *EmailPreview    `json:"email,omitempty"`
	Document *DocumentPreview `json:"document,omitempty"`
	Actions  []Action         `json:"actions,omitempty"`
}

// =============================================================================
// SESSION CONTEXT
// =============================================================================

// ConversationTurn is one entry of the per-session message history.
type ConversationTurn struct {
	Role      string    `json:"role"` // "user", "assistant", or "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionContext is the short-term mutable state of one conversation.
/// It is owned by exactly one active conversation: read at the start of a
// turn and written once after the turn completes.
type SessionContext struct {
	SessionID      string             `json:"sessionId"`
	UserID         string             `json:"userId"`
	AgentKey       AgentDomain        `json:"agentKey"`
	LastIntent     string             `json:"lastIntent,omitempty"`
	LastContext    *IntentContext     `json:"lastContext,omitempty"`
	LastOutputType OutputType         `json:"lastOutputType,omitempty"`
	History        []ConversationTurn `json:"history"`
}

// SetLastOutputType records the output kind of the latest turn. Unknown
// kinds are ignored so a bad value can never clobber a good one.
func (s *SessionContext) SetLastOutputType(t OutputType) {
	if t.Known() {
		s.LastOutputType = t
	}
}

// AppendTurn adds a history entry stamped now.
func (s *SessionContext) AppendTurn(role, content string) {
	s.History = append(s.History, ConversationTurn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// TrimHistory drops the oldest entries beyond limit. A limit <= 0 keeps
// everything.
func (s *SessionContext) TrimHistory(limit int) {
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// Key returns the persistence key for this session.
func (s *SessionContext) Key() string {
	return SessionKey(s.AgentKey, s.UserID)
}

// SessionKey builds the (agentKey, userId) persistence key.
func SessionKey(agent AgentDomain, userID string) string {
	return fmt.Sprintf("%s:%s", agent, userID)
}
