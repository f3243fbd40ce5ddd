package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"bizpilot/internal/articulation"
	"bizpilot/internal/logging"
	"bizpilot/internal/perception"
	"bizpilot/internal/types"
)

// =============================================================================
// TURN ORCHESTRATION
// =============================================================================
// One conversation turn: NORMALIZE -> RULE_MATCH -> (fallback when the rules
// are unsure) -> CLARIFY_GATE -> EXPAND -> INVOKE (cancellable) -> EXTRACT +
// PARSE -> COMPOSE -> PERSIST. One turn in flight per session; new
// submissions while busy are rejected, never queued.

var (
	// ErrBusy is returned when a session already has a turn in flight.
	ErrBusy = errors.New("session busy: a turn is already in flight")

	// ErrCancelled distinguishes a user-initiated abort from other
	// invocation failures.
	ErrCancelled = errors.New("invocation cancelled")
)

// stoppedMarker is the visible history entry recorded for a cancelled turn.
const stoppedMarker = "[stopped by user]"

// errorReply is shown when the tool invocation fails for any non-cancel
// reason. The turn is over; the user can simply retry.
const errorReply = "Sorry, something went wrong while working on that. Please try again."

// InvocationRequest is the input to the tool/LLM boundary.
type InvocationRequest struct {
	Prompt       string
	System       string
	Schema       map[string]any
	PriorContext []types.ConversationTurn
}

// InvocationResult is what the boundary returns on success.
type InvocationResult struct {
	Text       string
	Structured map[string]any
	ToolName   string
}

// ToolInvoker is the external tool/LLM invocation boundary. Implementations
// must honor ctx cancellation and return an error wrapping context.Canceled
// (or ErrCancelled) when aborted.
type ToolInvoker interface {
	Invoke(ctx context.Context, req InvocationRequest) (*InvocationResult, error)
}

// TurnResult is the outcome of one handled message.
type TurnResult struct {
	Reply     string
	Intent    types.IntentResult
	Directive perception.Directive
	Actions   []types.Action
	Preview   *types.ContentPreview
	Cancelled bool
}

// Config bounds orchestrator behavior.
type Config struct {
	// FallbackThreshold is the rule-match confidence below which the LLM
	// classifier is consulted.
	FallbackThreshold float64
	// HistoryLimit is the maximum history length persisted per session.
	HistoryLimit int
}

// DefaultConfig returns the standard orchestrator settings.
func DefaultConfig() Config {
	return Config{
		FallbackThreshold: perception.ProceedThreshold,
		HistoryLimit:      50,
	}
}

// sessionState tracks the in-flight turn for one session.
type sessionState struct {
	busy   bool
	cancel context.CancelFunc
}

// Orchestrator drives the turn state machine. Session context is
// single-writer: it is read at the start of a turn and written exactly once
// when the turn ends, whatever the outcome.
type Orchestrator struct {
	matcher  *perception.Matcher
	fallback *perception.FallbackClassifier
	expander *perception.Expander
	extract  *articulation.Extractor
	preview  *articulation.Parser
	composer *articulation.Composer
	store    Store
	invoker  ToolInvoker
	cfg      Config

	mu       sync.Mutex
	inFlight map[string]*sessionState
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(
	matcher *perception.Matcher,
	fallback *perception.FallbackClassifier,
	expander *perception.Expander,
	composer *articulation.Composer,
	store Store,
	invoker ToolInvoker,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		matcher:  matcher,
		fallback: fallback,
		expander: expander,
		extract:  articulation.NewExtractor(),
		preview:  articulation.NewParser(),
		composer: composer,
		store:    store,
		invoker:  invoker,
		cfg:      cfg,
		inFlight: make(map[string]*sessionState),
	}
}

// SetMatcher swaps the rule matcher. Used by taxonomy hot reload; turns
// already in flight keep the matcher they started with.
func (o *Orchestrator) SetMatcher(m *perception.Matcher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.matcher = m
}

// currentMatcher reads the matcher under the lock so a reload mid-stream is
// safe.
func (o *Orchestrator) currentMatcher() *perception.Matcher {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.matcher
}

// Busy reports whether a turn is currently in flight for the session.
func (o *Orchestrator) Busy(agent types.AgentDomain, userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.inFlight[types.SessionKey(agent, userID)]
	return ok && st.busy
}

// Cancel aborts the outstanding invocation for the session, if any. It only
// stops the blocking call; the turn itself finishes by recording a visible
// stopped marker, leaving session context intact.
func (o *Orchestrator) Cancel(agent types.AgentDomain, userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.inFlight[types.SessionKey(agent, userID)]
	if !ok || !st.busy || st.cancel == nil {
		return false
	}
	st.cancel()
	return true
}

// acquire marks the session busy, or fails with ErrBusy.
func (o *Orchestrator) acquire(key string, cancel context.CancelFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.inFlight[key]
	if ok && st.busy {
		return ErrBusy
	}
	o.inFlight[key] = &sessionState{busy: true, cancel: cancel}
	return nil
}

// release clears the busy flag. Always runs, whatever the turn outcome.
func (o *Orchestrator) release(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, key)
}

// HandleMessage runs one full turn for the user's message. Returns ErrBusy
// without touching any state when a turn is already in flight for the
// session. All other failure modes produce a user-visible TurnResult, not an
// error.
func (o *Orchestrator) HandleMessage(ctx context.Context, agent types.AgentDomain, userID, message string, integrations []types.Integration) (*TurnResult, error) {
	key := types.SessionKey(agent, userID)

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := o.acquire(key, cancel); err != nil {
		cancel()
		return nil, err
	}
	defer o.release(key)

	timer := logging.StartTimer(logging.CategorySession, "turn")
	defer timer.Stop()

	// Read session context once, at the start of the turn.
	sc, err := o.store.Load(ctx, agent, userID)
	if err != nil {
		logging.SessionWarn("failed to load session context: %v", err)
		sc = nil
	}
	if sc == nil {
		sc = NewSessionContext(agent, userID)
	}

	// Classify.
	normalized := perception.Normalize(message)
	intent := o.currentMatcher().Match(normalized, agent)
	if intent.Confidence < o.cfg.FallbackThreshold {
		intent = o.fallback.Classify(turnCtx, normalized, agent)
	}
	directive := perception.Gate(intent.Confidence)
	logging.Session("turn start: intent=%s agent=%s confidence=%.2f directive=%s",
		intent.Intent, intent.Agent, intent.Confidence, directive)

	sc.AppendTurn("user", message)

	// Hard clarification stops before any tool invocation.
	if directive == perception.DirectiveHardClarify {
		reply := o.composer.ClarifyQuestion(intent.Agent)
		sc.AppendTurn("assistant", reply)
		o.persist(ctx, sc)
		return &TurnResult{Reply: reply, Intent: intent, Directive: directive}, nil
	}

	// Expand the prompt with short-term memory from the session.
	mem := &perception.ExpansionMemory{
		LastIntent:     sc.LastIntent,
		LastContext:    sc.LastContext,
		LastOutputType: sc.LastOutputType,
	}
	prompt := o.expander.Expand(message, mem)

	result, err := o.invoker.Invoke(turnCtx, InvocationRequest{
		Prompt:       prompt,
		PriorContext: sc.History,
	})
	if err != nil {
		if isCancelled(err) {
			// A cancelled turn leaves a visible marker, never a partial
			// assistant entry.
			sc.AppendTurn("system", stoppedMarker)
			o.persist(ctx, sc)
			return &TurnResult{Intent: intent, Directive: directive, Cancelled: true}, nil
		}
		logging.SessionWarn("tool invocation failed: %v", err)
		sc.AppendTurn("assistant", errorReply)
		o.persist(ctx, sc)
		return &TurnResult{Reply: errorReply, Intent: intent, Directive: directive}, nil
	}

	// Derive actions and the content preview from the reply in parallel.
	var (
		actions []types.Action
		preview *types.ContentPreview
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		actions = o.extract.Extract(result.Text, integrations, intent.Agent)
		return nil
	})
	g.Go(func() error {
		preview = o.preview.Parse(result.Text)
		return nil
	})
	_ = g.Wait() // extraction goroutines never return errors

	reply := o.compose(message, intent, directive, result)

	// Single write of session context, at the end of the turn.
	sc.LastIntent = intent.Intent
	if !intent.Context.Empty() {
		c := intent.Context
		sc.LastContext = &c
	}
	sc.SetLastOutputType(outputTypeFor(intent.Intent, preview))
	sc.AppendTurn("assistant", reply)
	o.persist(ctx, sc)

	return &TurnResult{
		Reply:     reply,
		Intent:    intent,
		Directive: directive,
		Actions:   actions,
		Preview:   preview,
	}, nil
}

// compose assembles the user-visible reply: acknowledgment, an optional
// soft-confirm hedge, then the generated or humanized content.
func (o *Orchestrator) compose(message string, intent types.IntentResult, directive perception.Directive, result *InvocationResult) string {
	tone := articulation.DetectTone(message)
	reply := o.composer.Acknowledge(message, intent.Agent, tone)

	if directive == perception.DirectiveSoftConfirm {
		reply += " " + o.composer.Hedge(intent.Intent)
	}

	if result.ToolName != "" {
		reply += "\n\n" + o.composer.HumanizeToolResult(result.ToolName, result.Structured, intent.Agent)
	}
	if result.Text != "" {
		reply += "\n\n" + result.Text
	}
	return reply
}

// persist saves session context, trimming history first. Store failures are
// logged and swallowed; a turn that already produced a reply must not fail
// on persistence.
func (o *Orchestrator) persist(ctx context.Context, sc *types.SessionContext) {
	sc.TrimHistory(o.cfg.HistoryLimit)
	if err := o.store.Save(ctx, sc); err != nil {
		logging.SessionWarn("failed to persist session context: %v", err)
	}
}

// ClearSession drops the stored context for the session.
func (o *Orchestrator) ClearSession(ctx context.Context, agent types.AgentDomain, userID string) error {
	return o.store.Clear(ctx, agent, userID)
}

// isCancelled reports whether err is a user-initiated abort rather than a
// genuine failure.
func isCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// outputTypeFor derives the turn's output kind, preferring the detected
// preview over the classified intent.
func outputTypeFor(intent string, preview *types.ContentPreview) types.OutputType {
	if preview != nil {
		switch preview.Type {
		case types.PreviewContentPost:
			return types.OutputPost
		case types.PreviewEmail:
			return types.OutputEmail
		case types.PreviewDocument:
			return types.OutputDocument
		}
	}
	switch intent {
	case "generate_post", "publish_post":
		return types.OutputPost
	case "generate_image":
		return types.OutputImage
	case "send_email", "draft_email":
		return types.OutputEmail
	case "create_document":
		return types.OutputDocument
	case "schedule_meeting":
		return types.OutputMeeting
	case "set_reminder":
		return types.OutputReminder
	}
	// Unknown; SetLastOutputType ignores the empty value.
	return ""
}
