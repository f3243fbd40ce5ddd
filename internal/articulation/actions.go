package articulation

import (
	"sort"
	"strings"

	"bizpilot/internal/types"
)

// =============================================================================
// ACTION EXTRACTION - Reply Text → Executable Action Candidates
// =============================================================================
// The articulation layer turns a generated reply into the structured pieces
// the UI needs: candidate actions the user can take next, and (separately,
// see preview.go) a content preview when the reply contains an artifact.

// ActionSet is an insertion-ordered key→Action map with first-write-wins
// semantics. Adding a key that already exists is a deliberate no-op:
// extraction rules may fire more than once for the same logical action and
// the first registration is the one that counts.
type ActionSet struct {
	order   []string
	actions map[string]types.Action
}

// NewActionSet creates an empty action set.
func NewActionSet() *ActionSet {
	return &ActionSet{actions: make(map[string]types.Action)}
}

// Add registers an action under key. Returns false if the key was already
// present (the existing action is kept).
func (s *ActionSet) Add(key string, action types.Action) bool {
	if _, exists := s.actions[key]; exists {
		return false
	}
	action.Key = key
	s.actions[key] = action
	s.order = append(s.order, key)
	return true
}

// Len returns the number of distinct actions.
func (s *ActionSet) Len() int {
	return len(s.order)
}

// List returns the actions in first-insertion order.
func (s *ActionSet) List() []types.Action {
	out := make([]types.Action, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.actions[key])
	}
	return out
}

// Extractor scans generated replies for candidate user actions. Rules are
// agent-domain-specific and text-triggered: substring checks against the
// lower-cased reply decide which actions make sense right now.
type Extractor struct{}

// NewExtractor creates an action extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// publishablePlatforms maps integration service names to the platforms the
// content agent can publish to.
var publishablePlatforms = []string{"instagram", "facebook", "linkedin", "twitter"}

// Extract derives the action list for one assistant reply. integrations is
// the user's connected external services, used to gate platform-specific
// publish actions. The switch over agent is exhaustive; copilot offers no
// domain actions.
func (e *Extractor) Extract(reply string, integrations []types.Integration, agent types.AgentDomain) []types.Action {
	set := NewActionSet()
	lower := strings.ToLower(reply)

	switch agent {
	case types.AgentContent:
		e.extractContentActions(set, lower, integrations)
	case types.AgentExecutiveAssistant:
		e.extractSchedulingActions(set, lower)
	case types.AgentTransactionCoordinator:
		e.extractTransactionActions(set, lower)
	case types.AgentLeads:
		e.extractLeadActions(set, lower)
	case types.AgentAdvisor:
		e.extractAdvisorActions(set, lower)
	case types.AgentCopilot:
		// General chat surfaces no domain actions.
	}

	return set.List()
}

// hasPostMarkers reports whether the reply already contains a drafted post:
// an explicit caption or draft marker. Once a draft exists, generation
// actions are suppressed in favor of publish actions.
func hasPostMarkers(lower string) bool {
	return strings.Contains(lower, "caption:") ||
		strings.Contains(lower, "draft:") ||
		strings.Contains(lower, "here's your post") ||
		strings.Contains(lower, "here is your post")
}

// hasEmailMarkers reports whether the reply already contains an email draft.
func hasEmailMarkers(lower string) bool {
	return strings.Contains(lower, "subject:") &&
		(strings.Contains(lower, "to:") || strings.Contains(lower, "dear ") ||
			strings.Contains(lower, "body:"))
}

func (e *Extractor) extractContentActions(set *ActionSet, lower string, integrations []types.Integration) {
	if !hasPostMarkers(lower) {
		// No draft yet: offer generation.
		if strings.Contains(lower, "post") || strings.Contains(lower, "caption") ||
			strings.Contains(lower, "content") {
			set.Add("generate_post", types.Action{
				Label:     "Create Post",
				Tool:      "generate_post",
				Suggested: true,
			})
		}
		if strings.Contains(lower, "image") || strings.Contains(lower, "photo") ||
			strings.Contains(lower, "picture") {
			set.Add("generate_image", types.Action{
				Label:     "Generate Image",
				Tool:      "generate_image",
				Suggested: true,
			})
		}
		return
	}

	// A draft is present: offer publishing to each connected platform.
	connected := make(map[string]bool)
	for _, in := range integrations {
		if in.Connected() {
			connected[strings.ToLower(in.Service)] = true
		}
	}
	for _, platform := range publishablePlatforms {
		if connected[platform] {
			set.Add("publish_"+platform, types.Action{
				Label: "Publish to " + capitalize(platform),
				Tool:  "publish_post",
				Args:  map[string]any{"platform": platform},
			})
		}
	}
	set.Add("save_draft", types.Action{
		Label: "Save Draft",
		Tool:  "save_draft",
	})
}

func (e *Extractor) extractSchedulingActions(set *ActionSet, lower string) {
	if strings.Contains(lower, "meeting") || strings.Contains(lower, "appointment") ||
		strings.Contains(lower, "calendar") {
		set.Add("schedule_meeting", types.Action{
			Label:     "Schedule Meeting",
			Tool:      "schedule_meeting",
			Suggested: true,
		})
	}
	if strings.Contains(lower, "email") || strings.Contains(lower, "mail") {
		if hasEmailMarkers(lower) {
			set.Add("send_email", types.Action{
				Label: "Send Email",
				Tool:  "send_email",
			})
		} else {
			set.Add("draft_email", types.Action{
				Label:     "Draft Email",
				Tool:      "draft_email",
				Suggested: true,
			})
		}
	}
	if strings.Contains(lower, "remind") {
		set.Add("set_reminder", types.Action{
			Label:     "Set Reminder",
			Tool:      "set_reminder",
			Suggested: true,
		})
	}
}

func (e *Extractor) extractTransactionActions(set *ActionSet, lower string) {
	if strings.Contains(lower, "document") || strings.Contains(lower, "contract") ||
		strings.Contains(lower, "agreement") {
		set.Add("create_document", types.Action{
			Label:     "Create Document",
			Tool:      "create_document",
			Suggested: true,
		})
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "closing") ||
		strings.Contains(lower, "due date") {
		set.Add("track_deadline", types.Action{
			Label:     "Track Deadline",
			Tool:      "track_deadline",
			Suggested: true,
		})
	}
}

func (e *Extractor) extractLeadActions(set *ActionSet, lower string) {
	if strings.Contains(lower, "follow up") || strings.Contains(lower, "follow-up") ||
		strings.Contains(lower, "reach out") {
		set.Add("schedule_follow_up", types.Action{
			Label:     "Schedule Follow-up",
			Tool:      "schedule_follow_up",
			Suggested: true,
		})
	}
	if strings.Contains(lower, "lead") || strings.Contains(lower, "prospect") ||
		strings.Contains(lower, "contact") {
		set.Add("add_lead", types.Action{
			Label:     "Add Lead",
			Tool:      "add_lead",
			Suggested: true,
		})
	}
}

func (e *Extractor) extractAdvisorActions(set *ActionSet, lower string) {
	if strings.Contains(lower, "report") || strings.Contains(lower, "analysis") ||
		strings.Contains(lower, "summary") {
		set.Add("save_report", types.Action{
			Label:     "Save Report",
			Tool:      "save_report",
			Suggested: true,
		})
	}
}

// =============================================================================
// CONSOLIDATION
// =============================================================================

// consolidationPriority orders merged action lists: actions whose label
// contains an earlier word sort first; labels matching none sort after all
// that do, keeping their relative input order.
var consolidationPriority = []string{"Publish", "Send", "Schedule", "Create", "Save", "Edit"}

// priorityRank returns the index of the first priority word found in label,
// or len(priority) when none matches.
func priorityRank(label string, priority []string) int {
	for i, word := range priority {
		if strings.Contains(label, word) {
			return i
		}
	}
	return len(priority)
}

// Consolidate merges actions from multiple sources into one list. Entries
// are re-keyed by tool (falling back to label) with first occurrence kept,
// then stable-sorted by label priority.
func Consolidate(actions []types.Action) []types.Action {
	seen := make(map[string]bool)
	merged := make([]types.Action, 0, len(actions))
	for _, a := range actions {
		id := a.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, a)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return priorityRank(merged[i].Label, consolidationPriority) <
			priorityRank(merged[j].Label, consolidationPriority)
	})
	return merged
}

// capitalize upper-cases the first byte of an ASCII word.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
