// This file contains the LLM-backed implementation of the orchestrator's
// tool invocation boundary.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bizpilot/internal/perception"
	"bizpilot/internal/session"
)

// defaultSystemPrompt frames the assistant when the orchestrator supplies
// no system message of its own.
const defaultSystemPrompt = `You are a capable business assistant. Answer the user's request directly and concretely.
When drafting content, use the conventional markers so drafts are machine-readable:
social posts start with "Caption:", emails with "Subject:" and "To:".
Keep replies short. Do not narrate your reasoning.`

// promptHistoryLimit bounds how many prior turns are replayed to the model.
const promptHistoryLimit = 10

// LLMInvoker adapts a perception.LLMClient to the orchestrator's
// ToolInvoker boundary.
type LLMInvoker struct {
	client perception.LLMClient
}

// NewLLMInvoker returns a ToolInvoker backed by client. A nil client is
// allowed at construction time; Invoke then fails cleanly so the
// orchestrator can surface its standard error reply.
func NewLLMInvoker(client perception.LLMClient) session.ToolInvoker {
	return &LLMInvoker{client: client}
}

// Invoke sends the expanded prompt plus a bounded tail of conversation
// history to the LLM. Cancellation is reported by wrapping ctx.Err() so
// the orchestrator can tell an abort from a genuine failure.
func (v *LLMInvoker) Invoke(ctx context.Context, req session.InvocationRequest) (*session.InvocationResult, error) {
	if v.client == nil {
		return nil, errors.New("no LLM client configured: set an API key")
	}

	system := req.System
	if system == "" {
		system = defaultSystemPrompt
	}

	text, err := v.client.CompleteWithSystem(ctx, system, buildPrompt(req))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("invocation aborted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("llm invocation: %w", err)
	}

	return &session.InvocationResult{Text: strings.TrimSpace(text)}, nil
}

// buildPrompt replays recent history ahead of the current request so the
// model sees the conversation, not an isolated message.
func buildPrompt(req session.InvocationRequest) string {
	history := req.PriorContext
	if len(history) > promptHistoryLimit {
		history = history[len(history)-promptHistoryLimit:]
	}

	var sb strings.Builder
	for _, turn := range history {
		switch turn.Role {
		case "user":
			sb.WriteString("User: ")
		case "assistant":
			sb.WriteString("Assistant: ")
		default:
			continue
		}
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(req.Prompt)
	return sb.String()
}
