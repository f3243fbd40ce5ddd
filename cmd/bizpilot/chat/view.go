// This file contains view rendering functions for the TUI.
package chat

import (
	"fmt"
	"strings"

	"bizpilot/internal/perception"
	"bizpilot/internal/session"
	"bizpilot/internal/types"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STYLES
// =============================================================================

// Styles bundles the lipgloss styles used by the chat view.
type Styles struct {
	Header    lipgloss.Style
	Badge     lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	UserInput lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Spinner   lipgloss.Style
	Input     lipgloss.Style
	Content   lipgloss.Style
}

// DefaultStyles returns the standard chat theme.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("63")).
			Padding(0, 1),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("240")).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginTop(1),
		BotLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")).
			MarginTop(1),
		UserInput: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1),
		Content: lipgloss.NewStyle().
			Padding(0, 2),
	}
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			sb.WriteString(m.styles.UserLabel.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Content))
			sb.WriteString("\n\n")

		case "system":
			sb.WriteString("  " + m.styles.Muted.Render(msg.Content) + "\n")

		default: // "assistant"
			label := agentDisplayNames[m.agent]
			if label == "" {
				label = "Copilot"
			}
			sb.WriteString(m.styles.BotLabel.Render(label) + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Content))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

// formatTurn assembles the assistant message shown for one turn: the reply
// text, then the preview card, then suggested actions.
func (m Model) formatTurn(result *session.TurnResult) string {
	var sb strings.Builder
	sb.WriteString(result.Reply)

	if result.Preview != nil {
		sb.WriteString("\n\n")
		sb.WriteString(formatPreview(result.Preview))
	}

	if len(result.Actions) > 0 {
		sb.WriteString("\n\n**Next steps:**\n")
		for _, a := range result.Actions {
			sb.WriteString(fmt.Sprintf("- %s\n", a.Label))
		}
	}

	if result.Directive == perception.DirectiveSoftConfirm {
		sb.WriteString("\n")
		sb.WriteString("_Reply to correct me if I've read that wrong._")
	}

	return sb.String()
}

func formatPreview(p *types.ContentPreview) string {
	var sb strings.Builder
	switch p.Type {
	case types.PreviewContentPost:
		sb.WriteString("> **Post preview**\n")
		if p.Post != nil {
			if p.Post.Caption != "" {
				sb.WriteString(fmt.Sprintf("> %s\n", p.Post.Caption))
			}
			if p.Post.Hashtags != "" {
				sb.WriteString(fmt.Sprintf("> %s\n", p.Post.Hashtags))
			}
			if p.Post.ImageURL != "" {
				sb.WriteString(fmt.Sprintf("> image: %s\n", p.Post.ImageURL))
			}
		}
	case types.PreviewEmail:
		sb.WriteString("> **Email draft**\n")
		if p.Email != nil {
			sb.WriteString(fmt.Sprintf("> Subject: %s\n", p.Email.Subject))
			if p.Email.Recipient != "" {
				sb.WriteString(fmt.Sprintf("> To: %s\n", p.Email.Recipient))
			}
		}
	case types.PreviewDocument:
		sb.WriteString("> **Document**\n")
		if p.Document != nil && p.Document.Title != "" {
			sb.WriteString(fmt.Sprintf("> %s\n", p.Document.Title))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	chatView := m.styles.Content.Render(m.viewport.View())
	inputArea := m.styles.Input.Render(m.textarea.View())
	footer := m.renderFooter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputArea,
		footer,
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" bizpilot ")
	agent := m.styles.Badge.Render(agentDisplayNames[m.agent])

	var status string
	if m.isLoading {
		status = lipgloss.JoinHorizontal(lipgloss.Center,
			m.spinner.View(), " ", m.styles.Muted.Render("Working... (Ctrl+X to stop)"))
	} else {
		status = m.styles.Success.Render("Ready")
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", agent, "  ", status)
	return lipgloss.JoinVertical(lipgloss.Left, line, "")
}

func (m Model) renderFooter() string {
	return m.styles.Muted.Render("  Enter: send   /help: commands   Ctrl+C: quit")
}
