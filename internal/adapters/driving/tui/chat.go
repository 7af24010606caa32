// Package tui provides the interactive chat terminal interface.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/medkb-labs/icdassist/internal/core/domain"
	"github.com/medkb-labs/icdassist/internal/core/ports/driving"
)

// answerMsg carries the result of one completed chat turn.
type answerMsg struct {
	history []domain.ChatMessage
	err     error
}

// Chat is the bubbletea model for the chat view. One query runs to
// completion at a time; input is disabled while the assistant is
// working.
type Chat struct {
	styles    *Styles
	assistant driving.AssistantService
	ctx       context.Context

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	history []domain.ChatMessage
	waiting bool
	lastErr error
	width   int
	height  int
	ready   bool
}

// NewChat creates the chat model.
func NewChat(assistant driving.AssistantService) *Chat {
	ti := textinput.New()
	ti.Placeholder = "Ask about an ICD-11 classification..."
	ti.Focus()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Chat{
		styles:    DefaultStyles(),
		assistant: assistant,
		ctx:       context.Background(),
		input:     ti,
		spinner:   sp,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for assistant calls.
func (c *Chat) WithContext(ctx context.Context) *Chat {
	c.ctx = ctx
	return c
}

// History returns the conversation so far.
func (c *Chat) History() []domain.ChatMessage {
	return c.history
}

// Init initialises the model.
func (c *Chat) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (c *Chat) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
		c.viewport = viewport.New(msg.Width, msg.Height-6)
		c.viewport.SetContent(c.renderHistory())
		c.input.Width = msg.Width - 6
		c.ready = true
		return c, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return c, tea.Quit
		case tea.KeyEnter:
			if c.waiting {
				return c, nil
			}
			query := strings.TrimSpace(c.input.Value())
			if query == "" {
				return c, nil
			}
			c.input.SetValue("")
			c.waiting = true
			c.lastErr = nil
			return c, tea.Batch(c.spinner.Tick, c.ask(query))
		}

	case answerMsg:
		c.waiting = false
		if msg.err != nil {
			c.lastErr = msg.err
		} else {
			c.history = msg.history
		}
		c.viewport.SetContent(c.renderHistory())
		c.viewport.GotoBottom()
		return c, nil

	case spinner.TickMsg:
		if !c.waiting {
			return c, nil
		}
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	cmds = append(cmds, cmd)
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return c, tea.Batch(cmds...)
}

// ask runs one chat turn as a command.
func (c *Chat) ask(query string) tea.Cmd {
	return func() tea.Msg {
		history, _, err := c.assistant.Ask(c.ctx, query, c.history)
		return answerMsg{history: history, err: err}
	}
}

// View renders the chat.
func (c *Chat) View() string {
	var b strings.Builder

	b.WriteString(c.styles.Title.Render("ICD-11 Assistant"))
	b.WriteString("\n\n")

	if c.ready {
		b.WriteString(c.viewport.View())
	} else {
		b.WriteString(c.renderHistory())
	}
	b.WriteString("\n")

	if c.waiting {
		b.WriteString(c.spinner.View())
		b.WriteString(" thinking...\n")
	} else if c.lastErr != nil {
		b.WriteString(c.styles.Error.Render("Error: " + c.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(c.styles.InputBox.Render(c.input.View()))
	b.WriteString("\n")
	b.WriteString(c.styles.Help.Render("enter: send • esc: quit"))
	return b.String()
}

// renderHistory formats the conversation transcript.
func (c *Chat) renderHistory() string {
	if len(c.history) == 0 {
		return c.styles.Help.Render("Ask a question to get started.")
	}

	var b strings.Builder
	for _, msg := range c.history {
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(c.styles.UserLabel.Render("You"))
		case domain.RoleAssistant:
			b.WriteString(c.styles.BotLabel.Render("Assistant"))
		default:
			b.WriteString(msg.Role)
		}
		b.WriteString("\n")
		b.WriteString(c.styles.Message.Render(msg.Content))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
