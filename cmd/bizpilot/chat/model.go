// Package chat provides the interactive TUI for bizpilot. The chat
// functionality is split across files:
//   - model.go: Types, Init, Update loop (this file)
//   - view.go: Rendering functions
//   - invoker.go: The LLM-backed tool invocation boundary
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizpilot/internal/session"
	"bizpilot/internal/types"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for initializing the chat interface.
type Config struct {
	Orchestrator *session.Orchestrator
	UserID       string
	// Agent is the domain the session starts on. Switchable at runtime
	// with /agent.
	Agent types.AgentDomain
}

// Message represents a single message in the chat history
type Message struct {
	Role    string // "user", "assistant", or "system"
	Content string
	Time    time.Time
}

// agentDisplayNames maps domains to the names shown in the header and
// assistant message labels.
var agentDisplayNames = map[types.AgentDomain]string{
	types.AgentExecutiveAssistant:     "Executive Assistant",
	types.AgentContent:                "Content Agent",
	types.AgentTransactionCoordinator: "Transaction Coordinator",
	types.AgentLeads:                  "Leads Agent",
	types.AgentAdvisor:                "Advisor",
	types.AgentCopilot:                "Copilot",
}

// Messages for tea updates
type (
	responseMsg *session.TurnResult
	errorMsg    error
)

// Model is the main model for the interactive chat interface
type Model struct {
	// UI Components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles
	renderer *glamour.TermRenderer

	// State
	history   []Message
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	// Input History
	inputHistory []string
	historyIndex int

	// Backend
	orch         *session.Orchestrator
	userID       string
	agent        types.AgentDomain
	integrations []types.Integration
}

// InitChat initializes the interactive chat model
func InitChat(cfg Config) Model {
	styles := DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Ask me anything... (Enter to send, Ctrl+C to exit)"
	ta.Focus()
	ta.Prompt = "| "
	ta.CharLimit = 4096
	ta.SetWidth(80)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	agent := cfg.Agent
	if !agent.Valid() {
		agent = types.AgentCopilot
	}

	return Model{
		textarea:     ta,
		spinner:      sp,
		viewport:     vp,
		styles:       styles,
		renderer:     renderer,
		historyIndex: 0,
		orch:         cfg.Orchestrator,
		userID:       cfg.UserID,
		agent:        agent,
		history: []Message{{
			Role:    "assistant",
			Content: "Hi! I'm your business copilot. Switch domains any time with `/agent` (try `/agent content_agent`), or just tell me what you need.",
			Time:    time.Now(),
		}},
	}
}

// Init initializes the interactive chat model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.orch.Cancel(m.agent, m.userID)
			return m, tea.Quit

		case tea.KeyCtrlX:
			// Stop the in-flight turn without quitting. The response
			// arrives as a normal responseMsg with Cancelled set.
			if m.isLoading {
				m.orch.Cancel(m.agent, m.userID)
			}
			return m, nil

		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			return m.handleSubmit()

		case tea.KeyUp:
			if len(m.inputHistory) > 0 && m.historyIndex > 0 {
				m.historyIndex--
				m.textarea.SetValue(m.inputHistory[m.historyIndex])
				m.textarea.CursorEnd()
				return m, nil
			}

		case tea.KeyDown:
			if m.historyIndex < len(m.inputHistory)-1 {
				m.historyIndex++
				m.textarea.SetValue(m.inputHistory[m.historyIndex])
				m.textarea.CursorEnd()
				return m, nil
			} else if m.historyIndex == len(m.inputHistory)-1 {
				m.historyIndex++
				m.textarea.Reset()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		inputHeight := 3
		chatWidth := msg.Width - 4
		chatHeight := msg.Height - headerHeight - footerHeight - inputHeight
		if chatHeight < 1 {
			chatHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(chatWidth, chatHeight)
			m.ready = true
		} else {
			m.viewport.Width = chatWidth
			m.viewport.Height = chatHeight
		}
		m.textarea.SetWidth(chatWidth)

		// Re-wrap markdown to the new width.
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(chatWidth),
		)

		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case responseMsg:
		m.isLoading = false
		result := (*session.TurnResult)(msg)
		if result.Cancelled {
			m.history = append(m.history, Message{
				Role:    "system",
				Content: "Stopped.",
				Time:    time.Now(),
			})
		} else {
			m.history = append(m.history, Message{
				Role:    "assistant",
				Content: m.formatTurn(result),
				Time:    time.Now(),
			})
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.err = error(msg)
		m.history = append(m.history, Message{
			Role:    "system",
			Content: fmt.Sprintf("Error: %v", error(msg)),
			Time:    time.Now(),
		})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

// handleSubmit processes the current textarea content as a turn.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		m.textarea.Reset()
		return m.handleCommand(input)
	}

	m.history = append(m.history, Message{
		Role:    "user",
		Content: input,
		Time:    time.Now(),
	})
	if len(m.inputHistory) == 0 || m.inputHistory[len(m.inputHistory)-1] != input {
		m.inputHistory = append(m.inputHistory, input)
	}
	m.historyIndex = len(m.inputHistory)

	m.textarea.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	m.isLoading = true
	return m, tea.Batch(
		m.spinner.Tick,
		m.processInput(input),
	)
}

// processInput runs one orchestrated turn in the background.
func (m Model) processInput(input string) tea.Cmd {
	orch := m.orch
	agent := m.agent
	userID := m.userID
	integrations := m.integrations
	return func() tea.Msg {
		result, err := orch.HandleMessage(context.Background(), agent, userID, input, integrations)
		if err != nil {
			return errorMsg(err)
		}
		return responseMsg(result)
	}
}

// handleCommand dispatches /commands.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/quit", "/exit":
		m.orch.Cancel(m.agent, m.userID)
		return m, tea.Quit

	case "/agent":
		if len(args) == 0 {
			m.addSystemMessage(fmt.Sprintf("Current agent: %s. Available: %s.",
				m.agent, strings.Join(agentList(), ", ")))
			return m, nil
		}
		next := types.AgentDomain(strings.ToLower(strings.TrimSpace(args[0])))
		if !next.Valid() {
			m.addSystemMessage(fmt.Sprintf("Unknown agent %q. Available: %s.",
				args[0], strings.Join(agentList(), ", ")))
			return m, nil
		}
		m.agent = next
		m.addSystemMessage(fmt.Sprintf("Switched to %s.", agentDisplayNames[next]))
		return m, nil

	case "/clear":
		if err := m.orch.ClearSession(context.Background(), m.agent, m.userID); err != nil {
			m.addSystemMessage(fmt.Sprintf("Could not clear session: %v", err))
			return m, nil
		}
		m.history = nil
		m.addSystemMessage("Session cleared.")
		return m, nil

	case "/connect":
		if len(args) == 0 {
			m.addSystemMessage("Usage: /connect <service> (e.g. /connect instagram)")
			return m, nil
		}
		service := strings.ToLower(args[0])
		for _, in := range m.integrations {
			if in.Service == service {
				m.addSystemMessage(fmt.Sprintf("%s is already connected.", service))
				return m, nil
			}
		}
		m.integrations = append(m.integrations, types.Integration{
			Service: service,
			Status:  "connected",
		})
		m.addSystemMessage(fmt.Sprintf("Connected %s.", service))
		return m, nil

	case "/integrations":
		if len(m.integrations) == 0 {
			m.addSystemMessage("No integrations connected. Use /connect <service>.")
			return m, nil
		}
		names := make([]string, len(m.integrations))
		for i, in := range m.integrations {
			names[i] = in.Service
		}
		m.addSystemMessage("Connected: " + strings.Join(names, ", "))
		return m, nil

	case "/help":
		m.addSystemMessage(helpText)
		return m, nil

	default:
		m.addSystemMessage(fmt.Sprintf("Unknown command %s. Try /help.", cmd))
		return m, nil
	}
}

const helpText = `Commands:
  /agent [domain]     show or switch the active agent
  /connect <service>  mark an integration as connected
  /integrations       list connected integrations
  /clear              clear the saved session for this agent
  /help               this message
  /quit               exit

Keys: Enter sends, Ctrl+X stops an in-flight turn, Ctrl+C or Esc quits.`

func (m *Model) addSystemMessage(content string) {
	m.history = append(m.history, Message{
		Role:    "system",
		Content: content,
		Time:    time.Now(),
	})
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func agentList() []string {
	out := make([]string, 0, len(types.MatchingDomains)+1)
	for _, d := range types.MatchingDomains {
		out = append(out, string(d))
	}
	out = append(out, string(types.AgentCopilot))
	return out
}

// Run starts the interactive chat session.
func Run(cfg Config) error {
	p := tea.NewProgram(InitChat(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
