package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	bviewport "github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/kgview/pkg/dashboard"
	"github.com/vanderheijden86/kgview/pkg/debug"
	"github.com/vanderheijden86/kgview/pkg/model"
)

// InputPlaceholder prompts for a question.
const InputPlaceholder = "Ask about the corpus..."

// ChatPanel shows the transcript above a single-line query input.
type ChatPanel struct {
	input   textinput.Model
	scroll  bviewport.Model
	spinner spinner.Model

	md      *glamour.TermRenderer
	mdWidth int
	cache   map[string]string // message id -> rendered answer

	width, height int
	messages      []model.Message
	busy          bool
}

// NewChatPanel returns a focused, empty chat panel.
func NewChatPanel(t Theme) ChatPanel {
	ti := textinput.New()
	ti.Placeholder = InputPlaceholder
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = t.BusyText

	return ChatPanel{
		input:   ti,
		scroll:  bviewport.New(0, 0),
		spinner: sp,
		cache:   make(map[string]string),
	}
}

// SetSize lays the panel out in w×h cells.
func (c *ChatPanel) SetSize(w, h int) {
	c.width, c.height = w, h
	c.input.Width = max(w-4, 1)
	c.scroll.Width = w
	c.scroll.Height = max(h-2, 1) // input row and divider
}

// Value returns the typed query.
func (c *ChatPanel) Value() string {
	return c.input.Value()
}

// ClearInput empties the input line.
func (c *ChatPanel) ClearInput() {
	c.input.Reset()
}

// SetBusy toggles the busy indicator. It returns the spinner's tick when the
// indicator starts.
func (c *ChatPanel) SetBusy(busy bool) tea.Cmd {
	was := c.busy
	c.busy = busy
	if busy && !was {
		return c.spinner.Tick
	}
	return nil
}

// Busy reports whether the busy indicator is showing.
func (c *ChatPanel) Busy() bool {
	return c.busy
}

// Update forwards keys to the input and scroll area and ticks the spinner.
func (c ChatPanel) Update(msg tea.Msg) (ChatPanel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !c.busy {
			return c, nil
		}
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup", "pgdown", "up", "down":
			c.scroll, cmd = c.scroll.Update(msg)
			return c, cmd
		}
	case tea.MouseMsg:
		c.scroll, cmd = c.scroll.Update(msg)
		return c, cmd
	}

	c.input, cmd = c.input.Update(msg)
	cmds = append(cmds, cmd)
	return c, tea.Batch(cmds...)
}

// SetMessages replaces the transcript and scrolls to the newest entry.
func (c *ChatPanel) SetMessages(msgs []model.Message, t Theme) {
	c.messages = msgs
	c.scroll.SetContent(c.renderTranscript(t))
	c.scroll.GotoBottom()
}

// View renders the transcript, busy line and input.
func (c ChatPanel) View(t Theme) string {
	var b strings.Builder
	b.WriteString(c.scroll.View())
	b.WriteString("\n")
	if c.busy {
		b.WriteString(c.spinner.View() + " " + t.BusyText.Render(dashboard.BusyText))
	} else {
		b.WriteString(RenderDivider(c.width))
	}
	b.WriteString("\n")
	b.WriteString(c.input.View())
	return b.String()
}

func (c *ChatPanel) renderTranscript(t Theme) string {
	width := max(c.width, 10)
	bubbleWidth := max(width*4/5, 8)

	var parts []string
	for _, m := range c.messages {
		switch m.Role {
		case model.RoleUser:
			lines := wrapText(m.Text, bubbleWidth-2)
			bubble := t.UserBubble.Render(strings.Join(lines, "\n"))
			parts = append(parts, lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble))
		default:
			parts = append(parts, t.BotBubble.Render(c.renderAnswer(m, bubbleWidth-2, t)))
		}
	}
	return strings.Join(parts, "\n\n")
}

// renderAnswer renders a bot message as markdown, caching per message.
func (c *ChatPanel) renderAnswer(m model.Message, width int, t Theme) string {
	if m.Text == dashboard.FallbackMessage {
		return t.ErrorText.Render(m.Text)
	}
	if c.md == nil || c.mdWidth != width {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			debug.Warn("chat: markdown renderer unavailable: %v", err)
		}
		c.md, c.mdWidth = md, width
		c.cache = make(map[string]string)
	}
	if out, ok := c.cache[m.ID]; ok {
		return out
	}
	out := strings.Join(wrapText(m.Text, width), "\n")
	if c.md != nil {
		if rendered, err := c.md.Render(m.Text); err == nil {
			// Strip the margins glamour adds around the document.
			out = strings.Trim(rendered, "\n")
		}
	}
	c.cache[m.ID] = out
	return out
}
