package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bizpilot/internal/logging"
	"bizpilot/internal/types"
)

// fallbackConfidence is the confidence attached whenever the classifier has
// to guess: total failure, or a result missing its own score.
const fallbackConfidence = 0.3

// FallbackClassifier delegates classification to the LLM when rule matching
// is not confident enough. It never returns an error: every failure mode
// degrades to a safe low-confidence default so the turn can proceed to the
// clarification gate.
type FallbackClassifier struct {
	client LLMClient
}

// NewFallbackClassifier creates a classifier over the given LLM client.
func NewFallbackClassifier(client LLMClient) *FallbackClassifier {
	return &FallbackClassifier{client: client}
}

const classifierSystemPrompt = `You classify short requests sent to a business productivity assistant.

Agent domains:
- executive_assistant: scheduling, calendars, meetings, reminders, email.
- content_agent: social posts, captions, images, publishing content.
- transaction_coordinator: contracts, closings, deadlines, transaction documents.
- leads_agent: leads, prospects, follow-ups, pipeline management.

Respond with ONLY a JSON object, no prose:
{
  "intent": "snake_case intent name, or general_query",
  "agent": "one of the domains above, or copilot",
  "confidence": 0.0-1.0,
  "context": {
    "topic": "optional subject",
    "tone": "optional tone word",
    "platforms": ["optional platform names"],
    "timeframe": "optional relative timeframe",
    "target": "optional person or thing acted on"
  }
}`

// classifierResult mirrors the JSON shape the model is asked for. Pointers
// distinguish absent fields from zero values so coercion is per-field.
type classifierResult struct {
	Intent     string              `json:"intent"`
	Agent      string              `json:"agent"`
	Confidence *float64            `json:"confidence"`
	Context    types.IntentContext `json:"context"`
}

// Classify asks the LLM to classify the message. currentAgent fills in when
// the model omits or garbles the agent field.
func (f *FallbackClassifier) Classify(ctx context.Context, message string, currentAgent types.AgentDomain) types.IntentResult {
	safe := types.IntentResult{
		Intent:     types.GeneralQueryIntent,
		Agent:      defaultAgent(currentAgent),
		Confidence: fallbackConfidence,
	}

	if f.client == nil {
		return safe
	}

	resp, err := f.client.CompleteWithSystem(ctx, classifierSystemPrompt,
		fmt.Sprintf("Message: %q", message))
	if err != nil {
		logging.PerceptionWarn("fallback classification failed: %v", err)
		return safe
	}

	parsed, err := extractClassifierJSON(resp)
	if err != nil {
		logging.PerceptionWarn("fallback classifier returned unparseable output: %v", err)
		return safe
	}

	// Field-wise coercion: a partially valid result is still a result.
	result := types.IntentResult{
		Intent:     strings.TrimSpace(parsed.Intent),
		Agent:      safe.Agent,
		Confidence: fallbackConfidence,
		Context:    parsed.Context,
	}
	if result.Intent == "" {
		result.Intent = types.GeneralQueryIntent
	}
	if d := types.AgentDomain(strings.ToLower(strings.TrimSpace(parsed.Agent))); d.Valid() {
		result.Agent = d
	}
	if parsed.Confidence != nil {
		c := *parsed.Confidence
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		result.Confidence = c
	}

	logging.PerceptionDebug("fallback classified: intent=%s agent=%s confidence=%.2f",
		result.Intent, result.Agent, result.Confidence)
	return result
}

// extractClassifierJSON pulls the first JSON object out of a possibly
// fenced or chatty model response.
func extractClassifierJSON(resp string) (classifierResult, error) {
	s := strings.TrimSpace(resp)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	if start == -1 {
		return classifierResult{}, fmt.Errorf("no JSON object found in response")
	}

	var parsed classifierResult
	dec := json.NewDecoder(strings.NewReader(s[start:]))
	if err := dec.Decode(&parsed); err != nil {
		return classifierResult{}, fmt.Errorf("failed to decode classifier JSON: %w", err)
	}
	return parsed, nil
}
