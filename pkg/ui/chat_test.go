package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/kgview/pkg/dashboard"
	"github.com/vanderheijden86/kgview/pkg/model"
)

func TestChatPanel_TypingAndClear(t *testing.T) {
	c := NewChatPanel(TestTheme())
	c.SetSize(60, 20)

	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("what is caste?")})
	if c.Value() != "what is caste?" {
		t.Fatalf("value = %q", c.Value())
	}
	c.ClearInput()
	if c.Value() != "" {
		t.Errorf("value after clear = %q", c.Value())
	}
}

func TestChatPanel_BusyIndicator(t *testing.T) {
	theme := TestTheme()
	c := NewChatPanel(theme)
	c.SetSize(60, 20)

	if cmd := c.SetBusy(true); cmd == nil {
		t.Error("starting the busy indicator should tick the spinner")
	}
	if cmd := c.SetBusy(true); cmd != nil {
		t.Error("already busy: no second spinner loop")
	}
	if !strings.Contains(c.View(theme), dashboard.BusyText) {
		t.Error("busy text missing")
	}
	c.SetBusy(false)
	if strings.Contains(c.View(theme), dashboard.BusyText) {
		t.Error("busy text should disappear")
	}
}

func TestChatPanel_Transcript(t *testing.T) {
	theme := TestTheme()
	c := NewChatPanel(theme)
	c.SetSize(70, 30)

	at := time.Unix(0, 0)
	c.SetMessages([]model.Message{
		model.NewMessage(model.RoleBot, "Hello", at),
		model.NewMessage(model.RoleUser, "Who wrote it?", at),
		model.NewMessage(model.RoleBot, dashboard.FallbackMessage, at),
	}, theme)

	out := c.View(theme)
	for _, want := range []string{"Hello", "Who wrote it?", dashboard.FallbackMessage} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Hello") > strings.Index(out, "Who wrote it?") {
		t.Error("transcript out of order")
	}
}

func TestChatPanel_AnswerCacheFollowsWidth(t *testing.T) {
	theme := TestTheme()
	c := NewChatPanel(theme)
	msg := model.NewMessage(model.RoleBot, "**bold** answer", time.Unix(0, 0))

	first := c.renderAnswer(msg, 40, theme)
	if c.cache[msg.ID] != first {
		t.Error("answer should be cached")
	}
	c.renderAnswer(msg, 30, theme)
	if c.mdWidth != 30 {
		t.Errorf("renderer width = %d, want 30", c.mdWidth)
	}
	if !strings.Contains(first, "bold") {
		t.Errorf("rendered answer lost its text: %q", first)
	}
}
