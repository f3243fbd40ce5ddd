package articulation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"bizpilot/internal/types"
)

func TestDetectTone(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Tone
	}{
		{"urgent marker", "I need this done asap", ToneUrgent},
		{"urgent beats casual", "hey I need this right now", ToneUrgent},
		{"casual marker", "hey can we make a post", ToneCasual},
		{"polite marker", "Could you draft the agreement for review", ToneProfessional},
		{"short non-question", "send report", ToneBrief},
		{"short question is not brief", "what's next?", ToneFriendly},
		{"default friendly", "I was thinking about our marketing for next month", ToneFriendly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTone(tt.message))
		})
	}
}

func TestAcknowledgeDeterministicWithPinnedPick(t *testing.T) {
	c := NewComposer(WithPickFunc(func(n int) int { return 0 }))

	ack := c.Acknowledge("schedule a meeting with john", types.AgentExecutiveAssistant, ToneFriendly)
	assert.Equal(t, "On it. Let me get that scheduled for you.", ack)

	// A different pinned index selects a different phrasing from the same
	// category.
	c2 := NewComposer(WithPickFunc(func(n int) int { return 1 }))
	ack2 := c2.Acknowledge("schedule a meeting with john", types.AgentExecutiveAssistant, ToneFriendly)
	assert.Equal(t, "Sure thing, I'll take care of the scheduling.", ack2)
}

func TestAcknowledgeUrgentLeadIn(t *testing.T) {
	c := NewComposer(WithPickFunc(func(n int) int { return 0 }))

	ack := c.Acknowledge("schedule it asap", types.AgentExecutiveAssistant, ToneUrgent)
	assert.True(t, strings.HasPrefix(ack, "Right away. "), "got %q", ack)
}

func TestAcknowledgeFallsBackToGeneric(t *testing.T) {
	c := NewComposer(WithPickFunc(func(n int) int { return 0 }))

	// Copilot has no category table; the generic phrasing applies.
	ack := c.Acknowledge("tell me something interesting", types.AgentCopilot, ToneFriendly)
	assert.Equal(t, genericAcks[0], ack)
}

func TestAcknowledgePickBoundsRespected(t *testing.T) {
	// pick must always be called with the candidate count, never zero.
	c := NewComposer(WithPickFunc(func(n int) int {
		if n <= 0 {
			t.Fatalf("pick called with n = %d", n)
		}
		return n - 1
	}))

	for _, agent := range append(types.MatchingDomains, types.AgentCopilot) {
		c.Acknowledge("anything at all", agent, ToneFriendly)
		c.Acknowledge("schedule a post about a document for a lead", agent, ToneFriendly)
	}
}

func TestNextStepLookup(t *testing.T) {
	c := NewComposer()

	next, ok := c.NextStep("generate_post", types.AgentContent)
	assert.True(t, ok)
	assert.NotEmpty(t, next)

	_, ok = c.NextStep("generate_post", types.AgentAdvisor)
	assert.False(t, ok, "no table entry for this domain/action pair")

	_, ok = c.NextStep("unknown_tool", types.AgentContent)
	assert.False(t, ok)
}

func TestHumanizeToolResultKnownTool(t *testing.T) {
	c := NewComposer()

	msg := c.HumanizeToolResult("send_email",
		map[string]any{"subject": "Open House Invite"}, types.AgentExecutiveAssistant)

	assert.Contains(t, msg, "Your email has been sent.")
	assert.Contains(t, msg, `"Open House Invite"`)
	assert.Contains(t, msg, "follow up", "table next step should be appended")
}

func TestHumanizeToolResultUnknownToolGeneric(t *testing.T) {
	c := NewComposer()

	msg := c.HumanizeToolResult("mystery_tool", nil, types.AgentCopilot)
	assert.Equal(t, genericConfirmation, msg)
}

func TestHumanizeToolResultPlatformDetail(t *testing.T) {
	c := NewComposer()

	msg := c.HumanizeToolResult("publish_post",
		map[string]any{"platform": "instagram"}, types.AgentContent)
	assert.Contains(t, msg, "Your post has been published.")
	assert.Contains(t, msg, "instagram")
}

func TestHedgeAndClarifyPhrasing(t *testing.T) {
	c := NewComposer()

	hedge := c.Hedge("schedule_meeting")
	assert.Contains(t, hedge, "Just to confirm")
	assert.Contains(t, hedge, "schedule meeting")

	for _, agent := range append(types.MatchingDomains, types.AgentCopilot) {
		q := c.ClarifyQuestion(agent)
		assert.NotEmpty(t, q)
		assert.Contains(t, q, "?")
	}
}
