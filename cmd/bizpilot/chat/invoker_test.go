package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bizpilot/internal/session"
	"bizpilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	f.lastSystem = systemPrompt
	f.lastPrompt = userPrompt
	return f.response, f.err
}

func TestInvokeReturnsCompletion(t *testing.T) {
	llm := &fakeLLM{response: "  Here you go.  "}
	inv := NewLLMInvoker(llm)

	result, err := inv.Invoke(context.Background(), session.InvocationRequest{
		Prompt: "draft a post about open houses",
	})
	require.NoError(t, err)
	assert.Equal(t, "Here you go.", result.Text)
	assert.Equal(t, defaultSystemPrompt, llm.lastSystem)
	assert.Contains(t, llm.lastPrompt, "User: draft a post about open houses")
}

func TestInvokeNilClient(t *testing.T) {
	inv := NewLLMInvoker(nil)
	_, err := inv.Invoke(context.Background(), session.InvocationRequest{Prompt: "hi"})
	require.Error(t, err)
}

func TestInvokeWrapsCancellation(t *testing.T) {
	inv := NewLLMInvoker(&fakeLLM{response: "never reached"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inv.Invoke(ctx, session.InvocationRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestInvokeReplaysBoundedHistory(t *testing.T) {
	llm := &fakeLLM{response: "ok"}
	inv := NewLLMInvoker(llm)

	var history []types.ConversationTurn
	for i := 0; i < 20; i++ {
		history = append(history,
			types.ConversationTurn{Role: "user", Content: "question"},
			types.ConversationTurn{Role: "assistant", Content: "answer"},
		)
	}
	history = append(history, types.ConversationTurn{Role: "system", Content: "[stopped by user]"})

	_, err := inv.Invoke(context.Background(), session.InvocationRequest{
		Prompt:       "latest",
		PriorContext: history,
	})
	require.NoError(t, err)

	// At most promptHistoryLimit prior turns, system entries dropped.
	lines := strings.Count(llm.lastPrompt, "\n")
	assert.LessOrEqual(t, lines, promptHistoryLimit+2)
	assert.NotContains(t, llm.lastPrompt, "[stopped by user]")
	assert.True(t, strings.HasSuffix(llm.lastPrompt, "User: latest"))
}
