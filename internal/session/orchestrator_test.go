package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bizpilot/internal/articulation"
	"bizpilot/internal/perception"
	"bizpilot/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubInvoker returns a fixed reply, optionally blocking until the context
// is cancelled or release is closed.
type stubInvoker struct {
	text    string
	tool    string
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubInvoker) Invoke(ctx context.Context, req InvocationRequest) (*InvocationResult, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, fmt.Errorf("invocation aborted: %w", ctx.Err())
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &InvocationResult{Text: s.text, ToolName: s.tool}, nil
}

func newTestOrchestrator(invoker ToolInvoker, store Store) *Orchestrator {
	return NewOrchestrator(
		perception.NewMatcher(perception.DefaultTaxonomy()),
		perception.NewFallbackClassifier(nil),
		perception.NewExpander(),
		articulation.NewComposer(articulation.WithPickFunc(func(n int) int { return 0 })),
		store,
		invoker,
		DefaultConfig(),
	)
}

func TestHandleMessageFullTurn(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{text: "Your meeting with John is set for tomorrow at 2pm."}
	o := newTestOrchestrator(invoker, store)

	res, err := o.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-1",
		"hey can you please schedule a meeting with john tomorrow", nil)
	require.NoError(t, err)

	assert.Equal(t, "schedule_meeting", res.Intent.Intent)
	assert.Equal(t, perception.DirectiveNone, res.Directive)
	assert.Contains(t, res.Reply, invoker.text)
	assert.False(t, res.Cancelled)

	// The turn is persisted: last intent, output type, and both history
	// entries.
	sc, err := store.Load(context.Background(), types.AgentExecutiveAssistant, "user-1")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, "schedule_meeting", sc.LastIntent)
	assert.Equal(t, types.OutputMeeting, sc.LastOutputType)
	require.Len(t, sc.History, 2)
	assert.Equal(t, "user", sc.History[0].Role)
	assert.Equal(t, "assistant", sc.History[1].Role)
}

func TestHandleMessageHardClarifySkipsInvocation(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{started: make(chan struct{})}
	o := newTestOrchestrator(invoker, store)

	// Gibberish scores 0 with the rules and the nil-client fallback returns
	// 0.3: both under the hard threshold.
	res, err := o.HandleMessage(context.Background(), types.AgentCopilot, "user-1",
		"xyzzy plugh", nil)
	require.NoError(t, err)

	assert.Equal(t, perception.DirectiveHardClarify, res.Directive)
	assert.Contains(t, res.Reply, "?")
	select {
	case <-invoker.started:
		t.Fatal("tool invocation must not run under a hard clarification")
	default:
	}

	// The clarifying exchange is still part of history.
	sc, _ := store.Load(context.Background(), types.AgentCopilot, "user-1")
	require.NotNil(t, sc)
	assert.Len(t, sc.History, 2)
}

func TestHandleMessageBusyRejected(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{
		text:    "done",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	o := newTestOrchestrator(invoker, store)

	done := make(chan *TurnResult, 1)
	go func() {
		res, _ := o.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-1",
			"schedule a meeting with john tomorrow", nil)
		done <- res
	}()

	<-invoker.started
	assert.True(t, o.Busy(types.AgentExecutiveAssistant, "user-1"))

	_, err := o.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-1",
		"schedule another meeting", nil)
	assert.ErrorIs(t, err, ErrBusy)

	close(invoker.release)
	res := <-done
	require.NotNil(t, res)
	assert.False(t, o.Busy(types.AgentExecutiveAssistant, "user-1"))

	// A different session is never blocked by this one.
	other := &stubInvoker{text: "ok"}
	o2 := newTestOrchestrator(other, store)
	_, err = o2.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-2",
		"schedule a meeting with anna tomorrow", nil)
	assert.NoError(t, err)
}

func TestHandleMessageCancellation(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	defer close(invoker.release)
	o := newTestOrchestrator(invoker, store)

	done := make(chan *TurnResult, 1)
	go func() {
		res, _ := o.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-1",
			"schedule a meeting with john tomorrow", nil)
		done <- res
	}()

	<-invoker.started
	require.True(t, o.Cancel(types.AgentExecutiveAssistant, "user-1"))

	res := <-done
	require.NotNil(t, res)
	assert.True(t, res.Cancelled)
	assert.Empty(t, res.Reply)

	// The cancelled turn left a visible marker, not a partial reply.
	sc, _ := store.Load(context.Background(), types.AgentExecutiveAssistant, "user-1")
	require.NotNil(t, sc)
	require.Len(t, sc.History, 2)
	assert.Equal(t, "system", sc.History[1].Role)
	assert.Equal(t, stoppedMarker, sc.History[1].Content)

	// The busy flag is released; the next turn proceeds.
	assert.False(t, o.Busy(types.AgentExecutiveAssistant, "user-1"))
}

func TestHandleMessageInvocationFailure(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{err: errors.New("upstream 503")}
	o := newTestOrchestrator(invoker, store)

	res, err := o.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-1",
		"schedule a meeting with john tomorrow", nil)
	require.NoError(t, err, "invocation failures become a user-visible reply, not an error")

	assert.Equal(t, errorReply, res.Reply)
	assert.False(t, res.Cancelled)
	assert.False(t, o.Busy(types.AgentExecutiveAssistant, "user-1"))
}

// stubLLM feeds the fallback classifier a canned classification.
type stubLLM struct{ response string }

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func (s *stubLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, nil
}

func TestHandleMessageSoftConfirmHedges(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{text: "Here are your leads."}

	// The rules score near zero, so the fallback classifier decides; its
	// 0.7 lands in the soft band.
	llm := &stubLLM{response: `{"intent":"follow_up_lead","agent":"leads_agent","confidence":0.7,"context":{}}`}
	o := NewOrchestrator(
		perception.NewMatcher(perception.DefaultTaxonomy()),
		perception.NewFallbackClassifier(llm),
		perception.NewExpander(),
		articulation.NewComposer(articulation.WithPickFunc(func(n int) int { return 0 })),
		store,
		invoker,
		DefaultConfig(),
	)

	res, err := o.HandleMessage(context.Background(), types.AgentLeads, "user-1",
		"hmm maybe do the thing from before", nil)
	require.NoError(t, err)

	assert.Equal(t, perception.DirectiveSoftConfirm, res.Directive)
	assert.Contains(t, res.Reply, "Just to confirm")
	assert.Contains(t, res.Reply, "follow up lead")
}

func TestHandleMessagePreviewAndActions(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{text: "Here's your post.\nCaption: \"Spring open house!\" #realestate"}

	llm := &stubLLM{response: `{"intent":"generate_post","agent":"content_agent","confidence":0.9,"context":{}}`}
	o := NewOrchestrator(
		perception.NewMatcher(perception.DefaultTaxonomy()),
		perception.NewFallbackClassifier(llm),
		perception.NewExpander(),
		articulation.NewComposer(articulation.WithPickFunc(func(n int) int { return 0 })),
		store,
		invoker,
		DefaultConfig(),
	)

	res, err := o.HandleMessage(context.Background(), types.AgentContent, "user-1",
		"create an instagram post about the spring open house", nil)
	require.NoError(t, err)

	require.NotNil(t, res.Preview)
	assert.Equal(t, types.PreviewContentPost, res.Preview.Type)

	// save_draft is always offered once a draft exists.
	keys := make([]string, 0, len(res.Actions))
	for _, a := range res.Actions {
		keys = append(keys, a.Key)
	}
	assert.Contains(t, keys, "save_draft")

	sc, _ := store.Load(context.Background(), types.AgentContent, "user-1")
	require.NotNil(t, sc)
	assert.Equal(t, types.OutputPost, sc.LastOutputType)
}

func TestClearSession(t *testing.T) {
	store := NewMemoryStore()
	o := newTestOrchestrator(&stubInvoker{text: "ok"}, store)

	_, err := o.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-1",
		"schedule a meeting with john tomorrow", nil)
	require.NoError(t, err)

	require.NoError(t, o.ClearSession(context.Background(), types.AgentExecutiveAssistant, "user-1"))
	sc, err := store.Load(context.Background(), types.AgentExecutiveAssistant, "user-1")
	require.NoError(t, err)
	assert.Nil(t, sc)
}

func TestHistoryTrimmedOnPersist(t *testing.T) {
	store := NewMemoryStore()
	invoker := &stubInvoker{text: "ok"}
	o := NewOrchestrator(
		perception.NewMatcher(perception.DefaultTaxonomy()),
		perception.NewFallbackClassifier(nil),
		perception.NewExpander(),
		articulation.NewComposer(articulation.WithPickFunc(func(n int) int { return 0 })),
		store,
		invoker,
		Config{FallbackThreshold: perception.ProceedThreshold, HistoryLimit: 4},
	)

	for i := 0; i < 5; i++ {
		_, err := o.HandleMessage(context.Background(), types.AgentExecutiveAssistant, "user-1",
			"schedule a meeting with john tomorrow", nil)
		require.NoError(t, err)
	}

	sc, _ := store.Load(context.Background(), types.AgentExecutiveAssistant, "user-1")
	require.NotNil(t, sc)
	assert.Len(t, sc.History, 4)
}

func TestCancelWithNoTurnInFlight(t *testing.T) {
	o := newTestOrchestrator(&stubInvoker{text: "ok"}, NewMemoryStore())
	assert.False(t, o.Cancel(types.AgentExecutiveAssistant, "user-1"))
}
